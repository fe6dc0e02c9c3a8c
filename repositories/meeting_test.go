package repositories

import (
	"log/slog"
	"testing"
	"time"

	"boardroom/domain"
	apperrors "boardroom/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestRepository(t *testing.T) MeetingRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMeetingRepository(db, slog.Default())
}

func testEntry(meetingID uuid.UUID, speaker string, round int) domain.Entry {
	return domain.Entry{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Speaker:   speaker,
		Content:   speaker + " says something",
		Round:     round,
		CreatedAt: time.Now().UTC(),
	}
}

func Test_Create_And_Get_Meeting(t *testing.T) {
	req := require.New(t)
	repository := openTestRepository(t)

	meeting := domain.NewMeeting("Should we rewrite everything in Rust?")
	req.NoError(repository.CreateMeeting(meeting))

	fetched, err := repository.GetMeeting(meeting.ID.String())
	req.NoError(err)
	req.Equal(meeting.ID, fetched.ID)
	req.Equal(domain.StatusActive, fetched.Status)
	req.False(fetched.Processed)
}

func Test_Get_Unknown_Meeting(t *testing.T) {
	req := require.New(t)
	repository := openTestRepository(t)

	_, err := repository.GetMeeting(uuid.NewString())
	req.ErrorIs(err, apperrors.ErrMeetingNotFound)
}

func Test_Update_Meeting_Status(t *testing.T) {
	req := require.New(t)
	repository := openTestRepository(t)

	meeting := domain.NewMeeting("New mobile app idea")
	req.NoError(repository.CreateMeeting(meeting))

	req.NoError(repository.UpdateMeetingStatus(meeting.ID.String(), domain.StatusCompleted, true))

	fetched, err := repository.GetMeeting(meeting.ID.String())
	req.NoError(err)
	req.Equal(domain.StatusCompleted, fetched.Status)
	req.True(fetched.Processed)

	req.ErrorIs(
		repository.UpdateMeetingStatus(uuid.NewString(), domain.StatusStopped, false),
		apperrors.ErrMeetingNotFound,
	)
}

func Test_Append_Preserves_Insertion_Order(t *testing.T) {
	req := require.New(t)
	repository := openTestRepository(t)

	meetingID := uuid.New()
	speakers := []string{"Chairman", "CTO", "CFO", "Growth", "Product", "Devil"}
	for i, speaker := range speakers {
		req.NoError(repository.AppendEntry(testEntry(meetingID, speaker, min(i, 1))))
	}

	entries, err := repository.ListEntries(meetingID.String())
	req.NoError(err)
	req.Len(entries, len(speakers))
	req.Equal(speakers, lo.Map(entries, func(e domain.Entry, _ int) string { return e.Speaker }))
}

func Test_Last_Entry(t *testing.T) {
	req := require.New(t)
	repository := openTestRepository(t)

	meetingID := uuid.New()

	last, err := repository.LastEntry(meetingID.String())
	req.NoError(err)
	req.Nil(last)

	first := testEntry(meetingID, "Chairman", domain.RoundOpening)
	first.DeliveryID = lo.ToPtr(int64(42))
	req.NoError(repository.AppendEntry(first))

	second := testEntry(meetingID, "CTO", 1)
	second.DeliveryID = lo.ToPtr(int64(43))
	req.NoError(repository.AppendEntry(second))

	last, err = repository.LastEntry(meetingID.String())
	req.NoError(err)
	req.NotNil(last)
	req.Equal("CTO", last.Speaker)
	req.Equal(int64(43), *last.DeliveryID)
}

func Test_Transcripts_Are_Isolated_Per_Meeting(t *testing.T) {
	req := require.New(t)
	repository := openTestRepository(t)

	first := uuid.New()
	second := uuid.New()
	req.NoError(repository.AppendEntry(testEntry(first, "CTO", 1)))
	req.NoError(repository.AppendEntry(testEntry(second, "CFO", 1)))
	req.NoError(repository.AppendEntry(testEntry(first, "Growth", 1)))

	firstEntries, err := repository.ListEntries(first.String())
	req.NoError(err)
	req.Len(firstEntries, 2)

	secondEntries, err := repository.ListEntries(second.String())
	req.NoError(err)
	req.Len(secondEntries, 1)
	req.Equal("CFO", secondEntries[0].Speaker)
}
