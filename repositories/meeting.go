package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"boardroom/domain"
	apperrors "boardroom/errors"

	"github.com/dgraph-io/badger/v4"
)

const (
	meetingPrefix = "meeting:"
	entryPrefix   = "entry:"
	// seqCeiling seeks past any possible sequence number (19 digits,
	// matching the zero padding of entry keys).
	seqCeiling = "9999999999999999999"
)

// MeetingRepository persists meetings and transcript entries in BadgerDB.
//
// Entry keys are "entry:{meeting_id}:{seq_padded}:{entry_id}" so that a
// plain prefix scan returns the transcript in append order: the sequence
// number is zero padded to 19 digits, which makes lexicographical order
// equal numeric order. The sequence is assigned inside the same write
// transaction that stores the entry, so appends are strictly ordered even
// under concurrent meetings.
type MeetingRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMeetingRepository(db *badger.DB, log *slog.Logger) MeetingRepository {
	return MeetingRepository{db: db, log: log}
}

func (r MeetingRepository) CreateMeeting(meeting domain.Meeting) error {
	bytes, err := json.Marshal(meeting)
	if err != nil {
		return err
	}
	key := meetingKey(meeting.ID.String())
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
}

// UpdateMeetingStatus rewrites the status and processed flag of a meeting.
// Read and write happen in one transaction; nothing slow runs in between.
func (r MeetingRepository) UpdateMeetingStatus(id string, status domain.MeetingStatus, processed bool) error {
	key := meetingKey(id)
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", apperrors.ErrMeetingNotFound, id)
		}
		if err != nil {
			return err
		}

		var meeting domain.Meeting
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meeting)
		}); err != nil {
			return err
		}

		meeting.Status = status
		meeting.Processed = processed
		bytes, err := json.Marshal(meeting)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

func (r MeetingRepository) GetMeeting(id string) (domain.Meeting, error) {
	var meeting domain.Meeting
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(meetingKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", apperrors.ErrMeetingNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meeting)
		})
	})
	return meeting, err
}

// ListMeetings returns every stored meeting, in key order.
func (r MeetingRepository) ListMeetings() ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(meetingPrefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek([]byte(meetingPrefix)); it.ValidForPrefix([]byte(meetingPrefix)); it.Next() {
			var meeting domain.Meeting
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meeting)
			}); err != nil {
				return err
			}
			meetings = append(meetings, meeting)
		}
		return nil
	})
	return meetings, err
}

// AppendEntry stores a transcript entry under the next sequence number of
// its meeting. The transcript is append-only; entries are never rewritten.
func (r MeetingRepository) AppendEntry(entry domain.Entry) error {
	bytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSequence(txn, entry.MeetingID.String())
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%s%s:%019d:%s", entryPrefix, entry.MeetingID, seq, entry.ID)
		return txn.Set([]byte(key), bytes)
	})
}

// ListEntries returns the full transcript of a meeting, oldest first.
func (r MeetingRepository) ListEntries(meetingID string) ([]domain.Entry, error) {
	prefix := []byte(entryPrefix + meetingID + ":")
	var entries []domain.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry domain.Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// LastEntry returns the most recently appended entry of a meeting, or nil
// when the transcript is still empty.
func (r MeetingRepository) LastEntry(meetingID string) (*domain.Entry, error) {
	prefix := []byte(entryPrefix + meetingID + ":")
	var last *domain.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		it.Seek(append(prefix, []byte(seqCeiling)...))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var entry domain.Entry
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return err
		}
		last = &entry
		return nil
	})
	return last, err
}

// nextSequence reads the highest existing sequence of a meeting inside the
// caller's transaction and returns its successor.
func nextSequence(txn *badger.Txn, meetingID string) (uint64, error) {
	prefix := []byte(entryPrefix + meetingID + ":")
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	it.Seek(append(prefix, []byte(seqCeiling)...))
	if !it.ValidForPrefix(prefix) {
		return 1, nil
	}

	key := string(it.Item().Key())
	var seq uint64
	var entryID string
	rest := key[len(prefix):]
	if _, err := fmt.Sscanf(rest, "%d:%s", &seq, &entryID); err != nil {
		return 0, fmt.Errorf("malformed entry key %q: %w", key, err)
	}
	return seq + 1, nil
}

func meetingKey(id string) []byte {
	return []byte(meetingPrefix + id)
}
