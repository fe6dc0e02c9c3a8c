package runtime

import (
	"sync"

	"boardroom/errors"

	"github.com/google/uuid"
)

// Session is the ephemeral state of one active meeting. It is the only
// structure mutated by both the meeting loop and concurrent command
// handlers, so all access goes through the Registry lock.
type Session struct {
	MeetingID        uuid.UUID
	Topic            string
	stopped          bool
	summaryRequested bool
	summarized       bool
}

// Registry maps a chat to its single active meeting. An entry is created
// when a meeting starts, flipped by stop / force-summary requests, and
// removed by the meeting loop itself when it exits.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Register creates the session entry for a chat. A second registration is
// rejected instead of silently overwritten, so two loops can never
// interleave into the same chat.
func (r *Registry) Register(chatID int64, meetingID uuid.UUID, topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[chatID]; ok {
		return errors.ErrMeetingActive
	}
	r.sessions[chatID] = &Session{MeetingID: meetingID, Topic: topic}
	return nil
}

// MarkStopped raises the stop flag. Idempotent; returns false when no
// meeting is active in the chat.
func (r *Registry) MarkStopped(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[chatID]
	if !ok {
		return false
	}
	session.stopped = true
	return true
}

// IsStopped is the non-blocking checkpoint read used by the meeting loop
// before every round and every turn.
func (r *Registry) IsStopped(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[chatID]
	if !ok {
		return false
	}
	return session.stopped
}

// RequestSummary asks the meeting loop to close the meeting with a
// summary at its next checkpoint. Only the loop itself writes transcript
// entries, so a request raised during an in-flight turn is served after
// that turn's entry has landed. Idempotent; returns false when no meeting
// is active in the chat.
func (r *Registry) RequestSummary(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[chatID]
	if !ok {
		return false
	}
	session.summaryRequested = true
	return true
}

// SummaryRequested is the checkpoint read paired with RequestSummary.
func (r *Registry) SummaryRequested(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[chatID]
	if !ok {
		return false
	}
	return session.summaryRequested
}

// BeginSummary claims the one summary a meeting may ever produce. The
// first caller wins; any later caller (a force-summary racing the natural
// end of the last round, or the reverse) gets false and must not summarize.
func (r *Registry) BeginSummary(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[chatID]
	if !ok || session.summarized {
		return false
	}
	session.summarized = true
	return true
}

// Lookup returns a copy of the session state for a chat.
func (r *Registry) Lookup(chatID int64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// Remove drops the session entry. Only the meeting loop calls this, on
// every one of its exit paths.
func (r *Registry) Remove(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
}

// Active returns the number of chats with a running meeting.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
