//go:generate go run go.uber.org/mock/mockgen -source=session_service.go -destination=../mocks/mock_session_service.go -package=mocks
package services

import (
	"chatroom/domain"
	chaterrors "chatroom/errors"
	"chatroom/moderation"
	"chatroom/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
)

// DefaultMessageLimit bounds a read when the caller does not ask for one.
const DefaultMessageLimit = 100

type ISessionService interface {
	Join(name string) (domain.Participant, error)
	Heartbeat(name string) (domain.Participant, error)
	ListParticipants() ([]domain.Participant, error)
	SendMessage(cmd SendMessageCommand) (domain.Message, error)
	EditMessage(cmd EditMessageCommand) (domain.Message, error)
	DeleteMessage(id, requester string) error
	ListMessages(user string, limit int) ([]domain.Message, error)
	SearchMessages(ctx context.Context, terms string, limit int) ([]domain.Message, error)
}

// SessionService composes the registry and the log with validation,
// authorization and moderation. All timestamps come from the injected clock.
type SessionService struct {
	log          *slog.Logger
	clock        domain.Clock
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	search       repositories.ISearchIndex
	moderator    *moderation.Moderator
	validate     *validator.Validate
}

func NewSessionService(
	log *slog.Logger,
	clock domain.Clock,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	search repositories.ISearchIndex,
	moderator *moderation.Moderator,
) *SessionService {
	return &SessionService{
		log:          log,
		clock:        clock,
		participants: participants,
		messages:     messages,
		search:       search,
		moderator:    moderator,
		validate:     validator.New(),
	}
}

type SendMessageCommand struct {
	From string `validate:"required"`
	To   string `validate:"required"`
	Text string `validate:"required"`
	Kind string `validate:"required,oneof=message private_message"`
}

type EditMessageCommand struct {
	ID     string `validate:"required"`
	Editor string `validate:"required"`
	To     string `validate:"required"`
	Text   string `validate:"required"`
	Kind   string `validate:"required,oneof=message private_message"`
}

// Join registers the trimmed name and announces the arrival with a broadcast
// status message. A live duplicate yields ErrNameTaken.
func (s *SessionService) Join(name string) (domain.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Participant{}, chaterrors.ErrInvalidPayload
	}

	participant, err := s.participants.Join(name, s.clock.Now())
	if err != nil {
		return domain.Participant{}, err
	}

	if _, err = s.messages.Append(s.statusMessage(name, "joined the room")); err != nil {
		return domain.Participant{}, err
	}
	s.log.Info("Participant joined", "name", name)
	return participant, nil
}

// Heartbeat refreshes the liveness timer. ErrParticipantNotFound tells the
// caller it has been evicted and must rejoin.
func (s *SessionService) Heartbeat(name string) (domain.Participant, error) {
	return s.participants.Heartbeat(name, s.clock.Now())
}

func (s *SessionService) ListParticipants() ([]domain.Participant, error) {
	return s.participants.List()
}

// SendMessage validates the payload, checks the sender is an active
// participant and appends the moderated message. Broadcast chat content also
// lands in the search index; an index fault never fails the send.
func (s *SessionService) SendMessage(cmd SendMessageCommand) (domain.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", chaterrors.ErrInvalidPayload, err)
	}

	active, err := s.participants.Exists(cmd.From)
	if err != nil {
		return domain.Message{}, err
	}
	if !active {
		return domain.Message{}, chaterrors.ErrUnknownSender
	}

	message, err := s.messages.Append(domain.Message{
		From:      cmd.From,
		To:        cmd.To,
		Text:      s.censor(cmd.From, cmd.Text),
		Kind:      domain.Kind(cmd.Kind),
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.index(message)
	return message, nil
}

// EditMessage re-validates the full payload and applies the update. Kind and
// From are immutable; the log enforces authorship.
func (s *SessionService) EditMessage(cmd EditMessageCommand) (domain.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", chaterrors.ErrInvalidPayload, err)
	}

	updated, err := s.messages.Update(cmd.ID, cmd.Editor, cmd.To, s.censor(cmd.Editor, cmd.Text), s.clock.Now())
	if err != nil {
		return domain.Message{}, err
	}

	s.index(updated)
	return updated, nil
}

func (s *SessionService) DeleteMessage(id, requester string) error {
	if err := s.messages.Delete(id, requester); err != nil {
		return err
	}
	if err := s.search.Remove(id); err != nil {
		s.log.Warn("Failed to remove message from search index", "id", id, "err", err)
	}
	return nil
}

// ListMessages returns the newest messages visible to user, most recent
// first. A non-positive limit is a validation error, never silently clamped.
func (s *SessionService) ListMessages(user string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, chaterrors.ErrInvalidLimit
	}
	return s.messages.ListVisibleTo(user, limit)
}

// SearchMessages resolves a full-text query over broadcast chat content.
// Ids pointing at since-deleted messages are dropped during hydration.
func (s *SessionService) SearchMessages(ctx context.Context, terms string, limit int) ([]domain.Message, error) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return nil, chaterrors.ErrInvalidPayload
	}
	if limit <= 0 {
		return nil, chaterrors.ErrInvalidLimit
	}

	ids, err := s.search.Search(ctx, terms, limit)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, id := range ids {
		message, err := s.messages.Find(id)
		if err != nil {
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// censor masks forbidden words. When something was masked, the log line
// carries the detected language of the original content for moderation stats.
func (s *SessionService) censor(author, text string) string {
	censored, masked := s.moderator.Censor(text)
	if masked {
		info := whatlanggo.Detect(text)
		s.log.Warn("Censored message content",
			"author", author,
			"lang", info.Lang.Iso6391())
	}
	return censored
}

// index feeds broadcast chat messages to the search index. Private and status
// messages stay out so search can never leak restricted content.
func (s *SessionService) index(message domain.Message) {
	if message.Kind != domain.KindMessage {
		return
	}
	if err := s.search.Index(message); err != nil {
		s.log.Warn("Failed to index message", "id", message.ID, "err", err)
	}
}

func (s *SessionService) statusMessage(name, text string) domain.Message {
	return domain.Message{
		From:      name,
		To:        domain.Broadcast,
		Text:      text,
		Kind:      domain.KindStatus,
		CreatedAt: s.clock.Now(),
	}
}
