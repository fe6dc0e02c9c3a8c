package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// RoundOpening tags the Chairman's opening line.
	RoundOpening = 0
	// RoundSummary is the sentinel round of the closing summary entry.
	RoundSummary = 99
)

// Entry is one immutable transcript line of a meeting.
// DeliveryID is the transport-side message handle; it stays nil when the
// delivery failed, in which case the next turn falls back to an
// unthreaded send.
type Entry struct {
	ID         uuid.UUID
	MeetingID  uuid.UUID
	Speaker    string
	Content    string
	Round      int
	DeliveryID *int64
	CreatedAt  time.Time
}

// Utterance is the shape a transcript entry takes when it is fed back to
// the language model as conversational context.
type Utterance struct {
	Speaker string
	Content string
}

// ToUtterances converts an ordered transcript into model context.
func ToUtterances(entries []Entry) []Utterance {
	utterances := make([]Utterance, 0, len(entries))
	for _, e := range entries {
		utterances = append(utterances, Utterance{Speaker: e.Speaker, Content: e.Content})
	}
	return utterances
}
