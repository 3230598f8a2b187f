//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chatroom/domain"
	chaterrors "chatroom/errors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, error)
	Find(id string) (domain.Message, error)
	ListVisibleTo(user string, limit int) ([]domain.Message, error)
	Update(id, editor, newTo, newText string, now time.Time) (domain.Message, error)
	Delete(id, requester string) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

const messagePrefix = "msg:"

// seekCeiling sorts after every zero-padded nanosecond timestamp,
// so a reverse iterator lands on the most recent entry first.
const seekCeiling = "9999999999999999999"

// diskMessage is the CBOR layout of a log entry. The creation instant lives in
// the key; CreatedAt here is the displayed timestamp, refreshed on edit.
type diskMessage struct {
	From      string `cbor:"1,keyasint"`
	To        string `cbor:"2,keyasint"`
	Text      string `cbor:"3,keyasint"`
	Kind      string `cbor:"4,keyasint"`
	CreatedAt int64  `cbor:"5,keyasint"`
}

// Append assigns the message its ID and persists it.
// The ID is "{nanos_padded}:{uuid}" so ids sort in creation order and two
// messages appended in the same nanosecond cannot collide. The padded
// timestamp makes the Badger key space chronological by construction.
func (m MessageRepository) Append(message domain.Message) (domain.Message, error) {
	message.ID = fmt.Sprintf("%019d:%s", message.CreatedAt.UnixNano(), uuid.New())
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(messagePrefix+message.ID), encodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return message, nil
}

func (m MessageRepository) Find(id string) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		found, err := getMessage(txn, id)
		message = found
		return err
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListVisibleTo walks the log backwards and keeps the `limit` most recent
// messages the user may read: the slice comes back most recent first, and
// limit bounds the newest window rather than sampling the whole log.
// The caller validates limit; the repository trusts it as a positive bound.
func (m MessageRepository) ListVisibleTo(user string, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte(messagePrefix), []byte(seekCeiling)...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				break
			}
			item := it.Item()
			id := string(item.Key()[len(messagePrefix):])
			err := item.Value(func(val []byte) error {
				message, err := DecodeMessage(id, val)
				if err != nil {
					return err
				}
				if message.VisibleTo(user) {
					messages = append(messages, message)
				}
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
	return messages, nil
}

// Update overwrites To and Text after checking the editor is the author.
// The key is untouched so the message keeps its place in creation order;
// only the displayed timestamp is refreshed.
func (m MessageRepository) Update(id, editor, newTo, newText string, now time.Time) (domain.Message, error) {
	var updated domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if message.From != editor {
			return chaterrors.ErrNotAuthor
		}
		message.To = newTo
		message.Text = newText
		message.CreatedAt = now
		updated = message
		return txn.Set([]byte(messagePrefix+id), encodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return updated, nil
}

// Delete removes the message permanently, author only.
func (m MessageRepository) Delete(id, requester string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if message.From != requester {
			return chaterrors.ErrNotAuthor
		}
		return txn.Delete([]byte(messagePrefix + id))
	})
}

func getMessage(txn *badger.Txn, id string) (domain.Message, error) {
	item, err := txn.Get([]byte(messagePrefix + id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Message{}, chaterrors.ErrMessageNotFound
		}
		return domain.Message{}, err
	}

	var message domain.Message
	err = item.Value(func(val []byte) error {
		message, err = DecodeMessage(id, val)
		return err
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func encodeMessage(message domain.Message) []byte {
	data, _ := cbor.Marshal(diskMessage{
		From:      message.From,
		To:        message.To,
		Text:      message.Text,
		Kind:      string(message.Kind),
		CreatedAt: message.CreatedAt.UnixNano(),
	})
	return data
}

func DecodeMessage(id string, data []byte) (domain.Message, error) {
	var disk diskMessage
	if err := cbor.Unmarshal(data, &disk); err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		From:      disk.From,
		To:        disk.To,
		Text:      disk.Text,
		Kind:      domain.Kind(disk.Kind),
		CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
	}, nil
}
