//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"boardroom/domain"
	"context"
	"reflect"
)

// ChatTransport is the outward-facing chat surface. One sender identity
// exists per persona key; the Chairman identity is also the one receiving
// inbound commands.
type ChatTransport interface {
	// Send delivers text under the given persona identity. When replyTo is
	// non-nil the message is threaded onto that prior message; the adapter
	// retries once unthreaded when the reply target is gone. A nil handle
	// together with an error means both attempts failed.
	Send(ctx context.Context, personaKey string, chatID int64, text string, replyTo *int64) (*int64, error)
	// SendTyping is best-effort; failures are swallowed by the adapter.
	SendTyping(ctx context.Context, personaKey string, chatID int64)
	// Commands streams inbound commands until the transport shuts down.
	Commands() <-chan domain.Command
}

// Generator is the language-model binding. Implementations retry transient
// provider errors internally; whatever error still escapes is converted to
// placeholder text at the turn boundary, never propagated further.
type Generator interface {
	Generate(ctx context.Context, systemInstruction string, history []domain.Utterance, prompt string) (string, error)
}

// MeetingStore persists meetings and their append-only transcripts.
// Every call is one short-lived transaction; no transaction ever spans a
// model or transport call.
type MeetingStore interface {
	CreateMeeting(meeting domain.Meeting) error
	UpdateMeetingStatus(id string, status domain.MeetingStatus, processed bool) error
	AppendEntry(entry domain.Entry) error
	ListEntries(meetingID string) ([]domain.Entry, error)
	LastEntry(meetingID string) (*domain.Entry, error)
}

// Sanitizer cleans persona output before it is delivered and stored.
type Sanitizer interface {
	Sanitize(text string) string
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// Worker doesn't protect itself; the supervisor restarts it after a crash.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
