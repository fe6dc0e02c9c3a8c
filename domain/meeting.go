// Package domain contains the core concepts of the boardroom system:
// meetings, transcript entries, personas and the discussion plan.
// Everything here is plain data; orchestration lives in runtime.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	StatusActive    MeetingStatus = "active"
	StatusStopped   MeetingStatus = "stopped"
	StatusCompleted MeetingStatus = "completed"
)

// Meeting is one complete discussion instance tied to one chat and one topic.
// A meeting is created once, moves to stopped or completed, and is never deleted.
type Meeting struct {
	ID        uuid.UUID
	Topic     string
	Status    MeetingStatus
	Processed bool
	CreatedAt time.Time
}

func NewMeeting(topic string) Meeting {
	return Meeting{
		ID:        uuid.New(),
		Topic:     topic,
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
	}
}
