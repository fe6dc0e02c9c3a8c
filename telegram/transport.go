// Package telegram adapts the board to Telegram: one bot identity per
// persona for sending, with the Chairman bot alone polling for commands.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"boardroom/domain"
	apperrors "boardroom/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Transport implements contract.ChatTransport and contract.Worker. Its
// Run loop polls the Chairman bot for updates and converts bot commands
// into domain commands on the Commands channel.
type Transport struct {
	log      *slog.Logger
	bots     map[string]*tgbotapi.BotAPI
	commands chan domain.Command
}

// NewTransport builds one Telegram bot client per persona whose token is
// present in the environment. A missing Chairman token is fatal; any other
// missing token only removes that persona from the board, with a warning.
func NewTransport(log *slog.Logger, roster *domain.Roster, commandBuffer int) (*Transport, error) {
	bots := make(map[string]*tgbotapi.BotAPI)
	for _, persona := range roster.All() {
		token := persona.Token()
		if token == "" {
			if persona.Key == domain.ChairmanKey {
				return nil, fmt.Errorf("missing Chairman token (%s)", persona.TokenEnv)
			}
			log.Warn("Persona token missing, persona disabled", "persona", persona.Key, "env", persona.TokenEnv)
			continue
		}
		bot, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return nil, fmt.Errorf("initializing bot for %s: %w", persona.Key, err)
		}
		log.Info("Bot initialized", "persona", persona.Key, "username", bot.Self.UserName)
		bots[persona.Key] = bot
	}
	return &Transport{
		log:      log,
		bots:     bots,
		commands: make(chan domain.Command, commandBuffer),
	}, nil
}

// Send delivers text under the given persona identity, threaded onto
// replyTo when possible. When the threaded attempt fails (typically a
// deleted reply target) it retries once unthreaded; only a second failure
// surfaces as an error, which the orchestrator records as a nil handle.
func (t *Transport) Send(ctx context.Context, personaKey string, chatID int64, text string, replyTo *int64) (*int64, error) {
	bot, ok := t.bots[personaKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPersonaNotFound, personaKey)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyTo != nil {
		msg.ReplyToMessageID = int(*replyTo)
	}

	sent, err := bot.Send(msg)
	if err != nil && replyTo != nil {
		t.log.Warn("Threaded send failed, retrying unthreaded", "persona", personaKey, "error", err)
		msg.ReplyToMessageID = 0
		sent, err = bot.Send(msg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrDeliveryFailed, personaKey, err)
	}

	deliveryID := int64(sent.MessageID)
	return &deliveryID, nil
}

// SendTyping shows the "typing..." indicator for a persona. Best-effort:
// errors are logged and swallowed.
func (t *Transport) SendTyping(ctx context.Context, personaKey string, chatID int64) {
	bot, ok := t.bots[personaKey]
	if !ok {
		return
	}
	if _, err := bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		t.log.Debug("Could not send typing action", "persona", personaKey, "error", err)
	}
}

func (t *Transport) Commands() <-chan domain.Command {
	return t.commands
}

// Run polls the Chairman bot for updates until the context dies. Only the
// Chairman listens; the other bots are send-only identities, which avoids
// every board member answering the same group command.
func (t *Transport) Run(ctx context.Context) error {
	chairman, ok := t.bots[domain.ChairmanKey]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrPersonaNotFound, domain.ChairmanKey)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := chairman.GetUpdatesChan(updateConfig)
	defer chairman.StopReceivingUpdates()

	t.log.Info("Listening for commands", "bot", chairman.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, open := <-updates:
			if !open {
				return fmt.Errorf("telegram update stream closed")
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if command := t.parseCommand(update.Message); command != nil {
				select {
				case t.commands <- command:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (t *Transport) parseCommand(message *tgbotapi.Message) domain.Command {
	chatID := message.Chat.ID
	var requesterID int64
	if message.From != nil {
		requesterID = message.From.ID
	}

	switch message.Command() {
	case "meeting":
		return domain.StartMeetingCommand{
			Chat:      chatID,
			Requester: requesterID,
			Topic:     strings.TrimSpace(message.CommandArguments()),
		}
	case "introduce":
		return domain.IntroduceTeamCommand{Chat: chatID, Requester: requesterID}
	case "stop":
		return domain.StopMeetingCommand{Chat: chatID, Requester: requesterID}
	case "summary":
		return domain.ForceSummaryCommand{Chat: chatID, Requester: requesterID}
	case "info":
		return domain.ShowInfoCommand{Chat: chatID, Requester: requesterID}
	case "start":
		return domain.GreetCommand{Chat: chatID, Requester: requesterID}
	default:
		t.log.Debug("Ignoring unknown command", "command", message.Command(), "chat", chatID)
		return nil
	}
}
