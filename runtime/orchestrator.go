// Package runtime drives the board meeting: the per-chat session registry
// and the orchestrator sequencing rounds, turns and the closing summary.
// It contains no prompt content beyond assembly and no transport details.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"boardroom/contract"
	"boardroom/domain"
	"boardroom/errors"

	"github.com/google/uuid"
)

// GenerationFallback is delivered and recorded when the model binding
// still fails after its internal retries. A failed turn is a normal turn.
const GenerationFallback = "My circuits are fried... (model error)"

type Orchestrator struct {
	log       *slog.Logger
	registry  *Registry
	store     contract.MeetingStore
	transport contract.ChatTransport
	generator contract.Generator
	sanitizer contract.Sanitizer
	roster    *domain.Roster
	plan      domain.Plan
	pacing    domain.Pacing
}

func NewOrchestrator(
	log *slog.Logger,
	registry *Registry,
	store contract.MeetingStore,
	transport contract.ChatTransport,
	generator contract.Generator,
	sanitizer contract.Sanitizer,
	roster *domain.Roster,
	plan domain.Plan,
	pacing domain.Pacing,
) *Orchestrator {
	return &Orchestrator{
		log:       log,
		registry:  registry,
		store:     store,
		transport: transport,
		generator: generator,
		sanitizer: sanitizer,
		roster:    roster,
		plan:      plan,
		pacing:    pacing,
	}
}

// StartMeeting persists the meeting, registers the chat session, delivers
// the Chairman's opening line and detaches the meeting loop. It returns
// before any discussion happens; callers must never wait for completion.
func (o *Orchestrator) StartMeeting(ctx context.Context, chatID int64, topic string, requesterID int64) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.ErrEmptyTopic
	}

	meeting := domain.NewMeeting(topic)
	// Registration comes first: a rejected duplicate must not leave an
	// orphan meeting row stuck in active.
	if err := o.registry.Register(chatID, meeting.ID, topic); err != nil {
		return err
	}
	if err := o.store.CreateMeeting(meeting); err != nil {
		o.registry.Remove(chatID)
		return fmt.Errorf("creating meeting: %w", err)
	}

	o.log.Info("Meeting started", "meeting", meeting.ID, "chat", chatID, "topic", topic, "requester", requesterID)

	opening := fmt.Sprintf(
		"🔔 *The Board Meeting has begun*\n\n📋 *Agenda:* %s\n\nI declare the meeting open. First on the speaking order: our Chief Technology Officer.",
		topic,
	)
	deliveryID := o.deliver(ctx, domain.ChairmanKey, chatID, opening, nil)
	o.appendEntry(meeting.ID, domain.ChairmanKey, opening, domain.RoundOpening, deliveryID)

	go o.runLoop(ctx, chatID, meeting.ID, topic)
	return nil
}

// StopMeeting flips the stop flag and persists the stopped status. The
// loop observes the flag at its next checkpoint; the in-flight turn is
// never aborted, which bounds stop latency to roughly one turn.
func (o *Orchestrator) StopMeeting(chatID int64) bool {
	session, ok := o.registry.Lookup(chatID)
	if !ok {
		return false
	}
	o.registry.MarkStopped(chatID)
	if err := o.store.UpdateMeetingStatus(session.MeetingID.String(), domain.StatusStopped, false); err != nil {
		o.log.Error("Failed to persist stopped status", "meeting", session.MeetingID, "error", err)
	}
	return true
}

// ForceSummary requests the closing summary, skipping any remaining
// rounds. The meeting loop serves the request at its next checkpoint: the
// loop is the only transcript writer, so an in-flight turn always lands
// before the summary and the summary entry stays the final one. Exactly
// one summary is ever produced: the registry's one-shot guard decides
// between a requested and a naturally finishing summary.
func (o *Orchestrator) ForceSummary(chatID int64) bool {
	return o.registry.RequestSummary(chatID)
}

// runLoop is the detached scheduler task: one per active meeting. The
// registry entry is removed on every exit path.
func (o *Orchestrator) runLoop(ctx context.Context, chatID int64, meetingID uuid.UUID, topic string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Meeting loop panicked", "meeting", meetingID, "panic", r)
		}
		o.registry.Remove(chatID)
	}()

	o.pause(ctx, o.pacing.Start)

	for _, round := range o.plan.Rounds {
		if o.checkpoint(ctx, chatID, meetingID, topic) {
			return
		}

		o.log.Info("Round starting", "meeting", meetingID, "round", round.Number, "name", round.Name)
		announcement := fmt.Sprintf("📢 *%s* (Round %d/%d)", round.Name, round.Number, len(o.plan.Rounds))
		o.deliver(ctx, domain.ChairmanKey, chatID, announcement, nil)
		o.pause(ctx, o.pacing.Announce)

		for _, personaKey := range o.plan.TurnOrder {
			if o.checkpoint(ctx, chatID, meetingID, topic) {
				return
			}
			o.playTurn(ctx, chatID, meetingID, topic, personaKey, round)
			o.pause(ctx, o.pacing.Turn)
		}

		o.pause(ctx, o.pacing.Round)
	}

	// Natural end of the last round. A stop or summary request that
	// landed during the final turn is honored here, before the natural
	// summary is claimed.
	if o.checkpoint(ctx, chatID, meetingID, topic) {
		return
	}
	if o.registry.BeginSummary(chatID) {
		o.summarize(ctx, chatID, meetingID, topic)
	}
}

// checkpoint reports whether the loop must leave the round sequence: a
// dying process context, a pending summary request (served here, so the
// summary is always the transcript's last write), or a raised stop flag.
func (o *Orchestrator) checkpoint(ctx context.Context, chatID int64, meetingID uuid.UUID, topic string) bool {
	if ctx.Err() != nil {
		o.log.Info("Meeting loop stopping with process", "meeting", meetingID)
		return true
	}
	if o.registry.SummaryRequested(chatID) {
		if o.registry.BeginSummary(chatID) {
			o.summarize(ctx, chatID, meetingID, topic)
		}
		return true
	}
	if o.registry.IsStopped(chatID) {
		o.log.Info("Meeting was stopped", "meeting", meetingID)
		return true
	}
	return false
}

// playTurn executes a single persona contribution: context assembly,
// generation, delivery and transcript append. Nothing a turn does can
// abort the loop; failures degrade to placeholder text or a nil handle.
func (o *Orchestrator) playTurn(ctx context.Context, chatID int64, meetingID uuid.UUID, topic string, personaKey string, round domain.Round) {
	persona, ok := o.roster.Get(personaKey)
	if !ok {
		o.log.Warn("Skipping unconfigured persona", "persona", personaKey, "meeting", meetingID)
		return
	}

	history := o.history(meetingID)
	replyTo := o.replyTarget(meetingID)

	prompt := o.buildTurnPrompt(topic, round)

	o.transport.SendTyping(ctx, personaKey, chatID)
	o.pause(ctx, o.pacing.Think)

	response := o.generate(ctx, persona.SystemInstruction, history, prompt)
	response = o.sanitizer.Sanitize(response)

	deliveryID := o.deliver(ctx, personaKey, chatID, response, replyTo)
	o.appendEntry(meetingID, personaKey, response, round.Number, deliveryID)
}

// summarize closes the meeting: the Chairman reviews the full transcript,
// delivers the verdict and the meeting is persisted as completed.
func (o *Orchestrator) summarize(ctx context.Context, chatID int64, meetingID uuid.UUID, topic string) {
	history := o.history(meetingID)
	chairman := o.roster.Chairman()

	prompt := fmt.Sprintf(
		"The meeting is over. Topic: '%s'.\n"+
			"Review the whole discussion and close the meeting:\n"+
			"1. Did a consensus emerge?\n"+
			"2. What is the single biggest risk?\n"+
			"3. Verdict: go or no-go?\n"+
			"4. Voting result (invent an illustrative tally, e.g. 3 in favor, 2 against).\n\n"+
			"Speak like the board leader and formally close the meeting.",
		topic,
	)

	o.transport.SendTyping(ctx, domain.ChairmanKey, chatID)
	o.pause(ctx, o.pacing.Think)

	summary := o.generate(ctx, chairman.SystemInstruction, history, prompt)
	summary = o.sanitizer.Sanitize(summary)

	deliveryID := o.deliver(ctx, domain.ChairmanKey, chatID, summary, nil)
	o.appendEntry(meetingID, domain.ChairmanKey, summary, domain.RoundSummary, deliveryID)

	if err := o.store.UpdateMeetingStatus(meetingID.String(), domain.StatusCompleted, true); err != nil {
		o.log.Error("Failed to persist completed status", "meeting", meetingID, "error", err)
	}
	o.log.Info("Meeting completed", "meeting", meetingID, "chat", chatID)
}

// IntroduceTeam makes the Chairman and then each board member present
// themselves in speaking order. No transcript context and no persistence;
// this flow is independent from the meeting state machine.
func (o *Orchestrator) IntroduceTeam(ctx context.Context, chatID int64) {
	order := append([]string{domain.ChairmanKey}, o.plan.TurnOrder...)
	prompt := "Introduce yourself briefly. Who are you, what do you do and what is your style? One single sentence, starting with a greeting."

	for _, personaKey := range order {
		if ctx.Err() != nil {
			return
		}
		persona, ok := o.roster.Get(personaKey)
		if !ok {
			continue
		}
		o.transport.SendTyping(ctx, personaKey, chatID)
		intro := o.generate(ctx, persona.SystemInstruction, nil, prompt)
		o.deliver(ctx, personaKey, chatID, intro, nil)
		o.pause(ctx, o.pacing.Intro)
	}
}

func (o *Orchestrator) buildTurnPrompt(topic string, round domain.Round) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("MEETING TOPIC: %s\n", topic))
	sb.WriteString(fmt.Sprintf("ROUND: %d/%d\n\n", round.Number, len(o.plan.Rounds)))
	sb.WriteString(round.InstructionFor(topic))
	sb.WriteString("\n\nIMPORTANT:\n- Write 4-5 sentences at most\n- Stay in character for your role\n- No unnecessary emoji")
	return sb.String()
}

// generate converts any residual model error into the fallback text, so a
// bad turn never aborts the loop and still becomes a transcript entry.
func (o *Orchestrator) generate(ctx context.Context, systemInstruction string, history []domain.Utterance, prompt string) string {
	response, err := o.generator.Generate(ctx, systemInstruction, history, prompt)
	if err != nil {
		o.log.Error("Generation failed, using fallback", "error", err)
		return GenerationFallback
	}
	return response
}

// deliver sends under a persona identity and tolerates total failure:
// the transport already retried unthreaded, so an error here just means
// the turn is recorded without an external handle.
func (o *Orchestrator) deliver(ctx context.Context, personaKey string, chatID int64, text string, replyTo *int64) *int64 {
	deliveryID, err := o.transport.Send(ctx, personaKey, chatID, text, replyTo)
	if err != nil {
		o.log.Warn("Delivery failed", "persona", personaKey, "chat", chatID, "error", err)
		return nil
	}
	return deliveryID
}

func (o *Orchestrator) appendEntry(meetingID uuid.UUID, speaker, content string, round int, deliveryID *int64) {
	entry := domain.Entry{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Speaker:    speaker,
		Content:    content,
		Round:      round,
		DeliveryID: deliveryID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := o.store.AppendEntry(entry); err != nil {
		o.log.Error("Failed to append transcript entry", "meeting", meetingID, "speaker", speaker, "error", err)
	}
}

func (o *Orchestrator) history(meetingID uuid.UUID) []domain.Utterance {
	entries, err := o.store.ListEntries(meetingID.String())
	if err != nil {
		o.log.Error("Failed to load transcript", "meeting", meetingID, "error", err)
		return nil
	}
	return domain.ToUtterances(entries)
}

// replyTarget is the delivery handle of the most recent transcript entry,
// so the next message threads onto the last speaker. Nil when the last
// delivery failed; the send then goes out unthreaded.
func (o *Orchestrator) replyTarget(meetingID uuid.UUID) *int64 {
	last, err := o.store.LastEntry(meetingID.String())
	if err != nil || last == nil {
		return nil
	}
	return last.DeliveryID
}

// pause sleeps for the given pacing delay but wakes up early when the
// process context dies.
func (o *Orchestrator) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
