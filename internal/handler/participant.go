package handler

import (
	"chatroom/domain"
	chaterrors "chatroom/errors"
	"encoding/json"
	"net/http"

	"github.com/samber/lo"
)

type joinRequest struct {
	Name string `json:"name"`
}

// Join handles POST /participants
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, chaterrors.ErrInvalidPayload)
		return
	}

	participant, err := h.session.Join(req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toParticipantResponse(participant))
}

// ListParticipants handles GET /participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.session.ListParticipants()
	if err != nil {
		h.writeError(w, err)
		return
	}

	responses := lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return toParticipantResponse(p)
	})
	if responses == nil {
		responses = []participantResponse{}
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// Heartbeat handles POST /status. A 404 tells the caller to rejoin.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get(UserHeader)
	if user == "" {
		h.writeError(w, chaterrors.ErrParticipantNotFound)
		return
	}

	participant, err := h.session.Heartbeat(user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toParticipantResponse(participant))
}
