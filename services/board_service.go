// Package services wires inbound chat commands to the meeting
// orchestrator and owns every user-facing reply text.
package services

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"

	"boardroom/contract"
	"boardroom/domain"
	"boardroom/errors"
	"boardroom/runtime"
)

const infoText = `ℹ️ *AI Board of Directors*

This system lets five AI characters debate your ideas while the Chairman keeps order.

🤖 *The board:*
1. *Chairman:* runs the meeting, summarizes and calls the vote.
2. *CTO:* technical feasibility, infrastructure and security.
3. *CFO:* cost, budget and financial risk.
4. *Growth:* marketing, growth loops and viral reach.
5. *Product:* user experience and customer value.
6. *Devil's Advocate:* worst-case scenarios and hidden risks.

🛠 *Commands:*
- /meeting [topic]: start a new meeting on the topic.
- /introduce: every board member introduces themselves.
- /summary: summarize and close the current meeting now.
- /stop: stop the active meeting immediately.
- /info: show this message.
- /start: say hello.

💡 *How it works:* once a topic lands, the board speaks in turns over three rounds, members respond to each other, and the Chairman closes with a joint verdict.`

const greetText = "👋 Hello! I am the Chairman of the Board.\n\nTo put an idea up for discussion, use:\n`/meeting [your idea]`"

// BoardService consumes the transport's command stream and dispatches to
// the orchestrator. It runs as a supervised worker for the lifetime of
// the process.
type BoardService struct {
	log          *slog.Logger
	transport    contract.ChatTransport
	orchestrator *runtime.Orchestrator
	targetChat   *int64
}

// NewBoardService builds the command dispatcher. When targetChat is
// non-nil, commands from any other chat are dropped.
func NewBoardService(log *slog.Logger, transport contract.ChatTransport, orchestrator *runtime.Orchestrator, targetChat *int64) *BoardService {
	return &BoardService{
		log:          log,
		transport:    transport,
		orchestrator: orchestrator,
		targetChat:   targetChat,
	}
}

// Run dispatches commands until the context dies. Command handling is
// deliberately quick: starting a meeting only does the synchronous opening
// before the loop detaches, and introductions run in their own goroutine.
func (s *BoardService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case command, open := <-s.transport.Commands():
			if !open {
				return nil
			}
			if s.targetChat != nil && command.ChatID() != *s.targetChat {
				s.log.Debug("Dropping command from unexpected chat", "chat", command.ChatID())
				continue
			}
			s.dispatch(ctx, command)
		}
	}
}

func (s *BoardService) dispatch(ctx context.Context, command domain.Command) {
	switch c := command.(type) {
	case domain.StartMeetingCommand:
		s.handleStartMeeting(ctx, c)
	case domain.StopMeetingCommand:
		if s.orchestrator.StopMeeting(c.Chat) {
			s.reply(ctx, c.Chat, "🛑 *Meeting stopped!* The board has been silenced.")
		} else {
			s.reply(ctx, c.Chat, "ℹ️ There is no active meeting right now.")
		}
	case domain.ForceSummaryCommand:
		if !s.orchestrator.ForceSummary(c.Chat) {
			s.reply(ctx, c.Chat, "ℹ️ No active meeting to summarize.")
		}
	case domain.IntroduceTeamCommand:
		s.reply(ctx, c.Chat, "📢 *Introducing the board members...*")
		go s.orchestrator.IntroduceTeam(ctx, c.Chat)
	case domain.ShowInfoCommand:
		s.reply(ctx, c.Chat, infoText)
	case domain.GreetCommand:
		s.reply(ctx, c.Chat, greetText)
	default:
		s.log.Warn("Unknown command type", "command", fmt.Sprintf("%T", command))
	}
}

func (s *BoardService) handleStartMeeting(ctx context.Context, c domain.StartMeetingCommand) {
	if c.Topic == "" {
		s.reply(ctx, c.Chat, "❌ Please give me a topic.\nExample: `/meeting New mobile app idea`")
		return
	}

	s.reply(ctx, c.Chat, fmt.Sprintf("📁 Topic received: *%s*\nThe board is convening, please hold on...", c.Topic))

	err := s.orchestrator.StartMeeting(ctx, c.Chat, c.Topic, c.Requester)
	switch {
	case err == nil:
	case goerrors.Is(err, errors.ErrMeetingActive):
		s.reply(ctx, c.Chat, "⚠️ A meeting is already in progress in this chat. Use /summary or /stop first.")
	default:
		s.log.Error("Failed to start meeting", "chat", c.Chat, "error", err)
		s.reply(ctx, c.Chat, "💥 Something went wrong while convening the board. Please try again.")
	}
}

// reply answers under the Chairman identity; replies are informational and
// a failed one is only logged.
func (s *BoardService) reply(ctx context.Context, chatID int64, text string) {
	if _, err := s.transport.Send(ctx, domain.ChairmanKey, chatID, text, nil); err != nil {
		s.log.Warn("Failed to deliver reply", "chat", chatID, "error", err)
	}
}
