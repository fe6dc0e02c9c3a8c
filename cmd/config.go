package main

import (
	"strings"
	"time"

	"boardroom/domain"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	PersonasFilepath  string        `env:"PERSONAS_FILEPATH"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY,required=true"`
	GeminiModel       string        `env:"GEMINI_MODEL,default=gemini-2.0-flash"`
	TargetChatID      *int64        `env:"TARGET_CHAT_ID"`
	BlockedWords      string        `env:"BLOCKED_WORDS"`
	CommandBuffer     int           `env:"COMMAND_BUFFER,default=16"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=1m"`
	PaceStart         time.Duration `env:"PACE_START,default=2s"`
	PaceAnnounce      time.Duration `env:"PACE_ANNOUNCE,default=1s"`
	PaceThink         time.Duration `env:"PACE_THINK,default=2s"`
	PaceTurn          time.Duration `env:"PACE_TURN,default=4s"`
	PaceRound         time.Duration `env:"PACE_ROUND,default=2s"`
	PaceIntro         time.Duration `env:"PACE_INTRO,default=1500ms"`
}

// Pacing maps the configured delays onto the meeting rhythm.
func (c Config) Pacing() domain.Pacing {
	return domain.Pacing{
		Start:    c.PaceStart,
		Announce: c.PaceAnnounce,
		Think:    c.PaceThink,
		Turn:     c.PaceTurn,
		Round:    c.PaceRound,
		Intro:    c.PaceIntro,
	}
}

// Blocklist splits BLOCKED_WORDS on commas, dropping empty fragments.
func (c Config) Blocklist() []string {
	var words []string
	for _, w := range strings.Split(c.BlockedWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}
