//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"chatroom/domain"
	chaterrors "chatroom/errors"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

type IParticipantRepository interface {
	Join(name string, now time.Time) (domain.Participant, error)
	Heartbeat(name string, now time.Time) (domain.Participant, error)
	List() ([]domain.Participant, error)
	RemoveIfLastSeen(name string, lastSeenAt time.Time) (bool, error)
	Exists(name string) (bool, error)
}

type ParticipantRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger) *ParticipantRepository {
	return &ParticipantRepository{db: db, log: log}
}

const participantPrefix = "usr:"

// diskParticipant is the CBOR layout of a registry entry.
// LastSeenAt is stored as UnixNano so compare-and-delete works on exact values.
type diskParticipant struct {
	Name       string `cbor:"1,keyasint"`
	LastSeenAt int64  `cbor:"2,keyasint"`
}

// Join creates a participant record, failing with ErrNameTaken when a live
// record already holds the name. The read-then-set runs inside a single Badger
// transaction; when two joins for the same name race, the loser's transaction
// aborts with ErrConflict and the retry observes the winner's record.
func (r ParticipantRepository) Join(name string, now time.Time) (domain.Participant, error) {
	participant := domain.Participant{Name: name, LastSeenAt: now}
	err := r.update(func(txn *badger.Txn) error {
		key := []byte(participantPrefix + name)
		_, err := txn.Get(key)
		if err == nil {
			return chaterrors.ErrNameTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, encodeParticipant(participant))
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

// Heartbeat refreshes LastSeenAt for an active participant. The read and the
// write share one transaction so a heartbeat cannot resurrect a name the
// sweeper removed in between.
func (r ParticipantRepository) Heartbeat(name string, now time.Time) (domain.Participant, error) {
	participant := domain.Participant{Name: name, LastSeenAt: now}
	err := r.update(func(txn *badger.Txn) error {
		key := []byte(participantPrefix + name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return chaterrors.ErrParticipantNotFound
			}
			return err
		}
		return txn.Set(key, encodeParticipant(participant))
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

// List returns a snapshot of all active participants in key order.
func (r ParticipantRepository) List() ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(participantPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				participant, err := DecodeParticipant(val)
				if err != nil {
					return err
				}
				participants = append(participants, participant)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// RemoveIfLastSeen deletes the record only when its LastSeenAt still matches
// the snapshot value. A heartbeat that landed after the snapshot moves the
// timestamp, in which case nothing is removed and (false, nil) is returned.
// Used by the sweeper; never exposed to end users.
func (r ParticipantRepository) RemoveIfLastSeen(name string, lastSeenAt time.Time) (bool, error) {
	removed := false
	err := r.update(func(txn *badger.Txn) error {
		removed = false
		key := []byte(participantPrefix + name)
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		var current domain.Participant
		err = item.Value(func(val []byte) error {
			current, err = DecodeParticipant(val)
			return err
		})
		if err != nil {
			return err
		}
		if !current.LastSeenAt.Equal(lastSeenAt) {
			return nil
		}
		if err = txn.Delete(key); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r ParticipantRepository) Exists(name string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(participantPrefix + name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// update runs fn in a read-write transaction, retrying on Badger's SSI
// conflict so racing writers re-read the key and resolve deterministically.
func (r ParticipantRepository) update(fn func(txn *badger.Txn) error) error {
	for {
		err := r.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			r.log.Debug("Registry transaction conflicted, retrying")
			continue
		}
		return err
	}
}

func encodeParticipant(p domain.Participant) []byte {
	// cbor.Marshal cannot fail on this fixed shape
	data, _ := cbor.Marshal(diskParticipant{
		Name:       p.Name,
		LastSeenAt: p.LastSeenAt.UnixNano(),
	})
	return data
}

func DecodeParticipant(data []byte) (domain.Participant, error) {
	var disk diskParticipant
	if err := cbor.Unmarshal(data, &disk); err != nil {
		return domain.Participant{}, err
	}
	return domain.Participant{
		Name:       disk.Name,
		LastSeenAt: time.Unix(0, disk.LastSeenAt).UTC(),
	}, nil
}
