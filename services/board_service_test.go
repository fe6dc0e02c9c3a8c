package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"boardroom/domain"
	"boardroom/mocks"
	"boardroom/runtime"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type serviceHarness struct {
	transport *mocks.MockChatTransport
	store     *mocks.MockMeetingStore
	generator *mocks.MockGenerator
	registry  *runtime.Registry
	service   *BoardService
}

func newServiceHarness(t *testing.T, ctrl *gomock.Controller, targetChat *int64) *serviceHarness {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	roster, err := domain.LoadRosterFile("")
	require.NoError(t, err)

	transport := mocks.NewMockChatTransport(ctrl)
	store := mocks.NewMockMeetingStore(ctrl)
	generator := mocks.NewMockGenerator(ctrl)
	sanitizer := mocks.NewMockSanitizer(ctrl)
	sanitizer.EXPECT().Sanitize(gomock.Any()).
		DoAndReturn(func(text string) string { return text }).
		AnyTimes()

	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(
		log, registry, store, transport, generator, sanitizer,
		roster, domain.DefaultPlan(), domain.ZeroPacing(),
	)

	return &serviceHarness{
		transport: transport,
		store:     store,
		generator: generator,
		registry:  registry,
		service:   NewBoardService(log, transport, orchestrator, targetChat),
	}
}

func TestBoardService_StaticReplies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	h := newServiceHarness(t, ctrl, nil)

	t.Run("should greet on the start command", func(t *testing.T) {
		h.transport.EXPECT().
			Send(ctx, domain.ChairmanKey, int64(7), greetText, nil).
			Return(lo.ToPtr(int64(1)), nil).
			Times(1)

		h.service.dispatch(ctx, domain.GreetCommand{Chat: 7})
	})

	t.Run("should describe the board on the info command", func(t *testing.T) {
		h.transport.EXPECT().
			Send(ctx, domain.ChairmanKey, int64(7), infoText, nil).
			Return(lo.ToPtr(int64(2)), nil).
			Times(1)

		h.service.dispatch(ctx, domain.ShowInfoCommand{Chat: 7})
	})
}

func TestBoardService_StopWithoutMeeting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	h := newServiceHarness(t, ctrl, nil)

	h.transport.EXPECT().
		Send(ctx, domain.ChairmanKey, int64(10), "ℹ️ There is no active meeting right now.", nil).
		Return(lo.ToPtr(int64(1)), nil).
		Times(1)

	h.service.dispatch(ctx, domain.StopMeetingCommand{Chat: 10})
}

func TestBoardService_SummaryWithoutMeeting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	h := newServiceHarness(t, ctrl, nil)

	h.transport.EXPECT().
		Send(ctx, domain.ChairmanKey, int64(10), "ℹ️ No active meeting to summarize.", nil).
		Return(lo.ToPtr(int64(1)), nil).
		Times(1)

	h.service.dispatch(ctx, domain.ForceSummaryCommand{Chat: 10})
}

func TestBoardService_StartMeetingValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	t.Run("should ask for a topic when none is given", func(t *testing.T) {
		h := newServiceHarness(t, ctrl, nil)

		// Nothing must be persisted for a rejected command.
		h.store.EXPECT().CreateMeeting(gomock.Any()).Times(0)
		h.transport.EXPECT().
			Send(ctx, domain.ChairmanKey, int64(5), gomock.Any(), nil).
			DoAndReturn(func(_ context.Context, _ string, _ int64, text string, _ *int64) (*int64, error) {
				require.Contains(t, text, "Please give me a topic")
				return lo.ToPtr(int64(1)), nil
			}).
			Times(1)

		h.service.dispatch(ctx, domain.StartMeetingCommand{Chat: 5, Requester: 1})
	})

	t.Run("should refuse a second meeting in the same chat", func(t *testing.T) {
		h := newServiceHarness(t, ctrl, nil)
		require.NoError(t, h.registry.Register(5, uuid.New(), "first topic"))

		// The session clash is detected before anything is persisted.
		h.store.EXPECT().CreateMeeting(gomock.Any()).Times(0)

		var texts []string
		h.transport.EXPECT().
			Send(ctx, domain.ChairmanKey, int64(5), gomock.Any(), nil).
			DoAndReturn(func(_ context.Context, _ string, _ int64, text string, _ *int64) (*int64, error) {
				texts = append(texts, text)
				return lo.ToPtr(int64(1)), nil
			}).
			Times(2)

		h.service.dispatch(ctx, domain.StartMeetingCommand{Chat: 5, Requester: 1, Topic: "second topic"})

		require.Len(t, texts, 2)
		require.Contains(t, texts[0], "Topic received")
		require.Contains(t, texts[1], "already in progress")
	})
}

func TestBoardService_StartMeetingRunsToCompletion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()
	h := newServiceHarness(t, ctrl, nil)

	var (
		mu   sync.Mutex
		sent int64
	)
	h.transport.EXPECT().
		Send(ctx, gomock.Any(), int64(42), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ int64, _ string, _ *int64) (*int64, error) {
			mu.Lock()
			defer mu.Unlock()
			sent++
			return lo.ToPtr(sent), nil
		}).
		AnyTimes()
	h.transport.EXPECT().SendTyping(gomock.Any(), gomock.Any(), int64(42)).AnyTimes()

	h.store.EXPECT().CreateMeeting(gomock.Any()).Return(nil).Times(1)
	h.store.EXPECT().AppendEntry(gomock.Any()).Return(nil).AnyTimes()
	h.store.EXPECT().ListEntries(gomock.Any()).Return(nil, nil).AnyTimes()
	h.store.EXPECT().LastEntry(gomock.Any()).Return(nil, nil).AnyTimes()
	h.store.EXPECT().
		UpdateMeetingStatus(gomock.Any(), domain.StatusCompleted, true).
		Return(nil).
		Times(1)

	h.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("We should proceed carefully.", nil).
		AnyTimes()

	h.service.dispatch(ctx, domain.StartMeetingCommand{Chat: 42, Requester: 1, Topic: "office robots"})

	req.Eventually(func() bool {
		return h.registry.Active() == 0
	}, 5*time.Second, 10*time.Millisecond, "meeting loop should drain")

	// Ack + opening + 15 turns + round announcements + summary.
	mu.Lock()
	defer mu.Unlock()
	req.GreaterOrEqual(sent, int64(18))
}

func TestBoardService_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	h := newServiceHarness(t, ctrl, lo.ToPtr(int64(100)))

	commands := make(chan domain.Command)
	h.transport.EXPECT().Commands().Return((<-chan domain.Command)(commands)).AnyTimes()

	var (
		mu      sync.Mutex
		replied []int64
	)
	h.transport.EXPECT().
		Send(gomock.Any(), domain.ChairmanKey, gomock.Any(), greetText, nil).
		DoAndReturn(func(_ context.Context, _ string, chatID int64, _ string, _ *int64) (*int64, error) {
			mu.Lock()
			defer mu.Unlock()
			replied = append(replied, chatID)
			return lo.ToPtr(int64(1)), nil
		}).
		AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.service.Run(ctx) }()

	// A command from a foreign chat is dropped, the target chat is served.
	commands <- domain.GreetCommand{Chat: 999}
	commands <- domain.GreetCommand{Chat: 100}

	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(replied) == 1 && replied[0] == int64(100)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestBoardService_RunStopsOnClosedStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	h := newServiceHarness(t, ctrl, nil)

	commands := make(chan domain.Command)
	close(commands)
	h.transport.EXPECT().Commands().Return((<-chan domain.Command)(commands)).AnyTimes()

	done := make(chan error, 1)
	go func() { done <- h.service.Run(context.Background()) }()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop when the command stream closed")
	}
}
