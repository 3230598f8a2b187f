// Package handler exposes the session operations over HTTP. It owns request
// parsing and status-code mapping only; every rule lives in the service.
package handler

import (
	"chatroom/domain"
	chaterrors "chatroom/errors"
	"chatroom/services"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

// UserHeader carries the out-of-band identity of the requester.
const UserHeader = "User"

// Handler holds application dependencies
type Handler struct {
	log     *slog.Logger
	session services.ISessionService
}

func New(log *slog.Logger, session services.ISessionService) *Handler {
	return &Handler{log: log, session: session}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/participants", h.Join).Methods("POST")
	r.HandleFunc("/participants", h.ListParticipants).Methods("GET")
	r.HandleFunc("/messages", h.SendMessage).Methods("POST")
	r.HandleFunc("/messages", h.ListMessages).Methods("GET")
	r.HandleFunc("/messages/search", h.SearchMessages).Methods("GET")
	r.HandleFunc("/messages/{id}", h.EditMessage).Methods("PUT")
	r.HandleFunc("/messages/{id}", h.DeleteMessage).Methods("DELETE")
	r.HandleFunc("/status", h.Heartbeat).Methods("POST")

	return r
}

type participantResponse struct {
	Name       string    `json:"name"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

func toParticipantResponse(p domain.Participant) participantResponse {
	return participantResponse{Name: p.Name, LastSeenAt: p.LastSeenAt}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		From:      m.From,
		To:        m.To,
		Text:      m.Text,
		Kind:      string(m.Kind),
		CreatedAt: m.CreatedAt,
	}
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// writeError maps the service error taxonomy onto the HTTP surface.
// Anything outside the taxonomy is a storage fault: logged, surfaced as 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chaterrors.ErrInvalidPayload),
		errors.Is(err, chaterrors.ErrInvalidLimit),
		errors.Is(err, chaterrors.ErrUnknownSender):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, chaterrors.ErrNameTaken):
		status = http.StatusConflict
	case errors.Is(err, chaterrors.ErrParticipantNotFound),
		errors.Is(err, chaterrors.ErrMessageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chaterrors.ErrNotAuthor):
		status = http.StatusUnauthorized
	default:
		h.log.Error("Storage fault", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
