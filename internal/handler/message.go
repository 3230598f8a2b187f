package handler

import (
	chaterrors "chatroom/errors"
	"chatroom/services"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

type messageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// SendMessage handles POST /messages. The sender comes from the identity
// header, never from the body.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, chaterrors.ErrInvalidPayload)
		return
	}

	message, err := h.session.SendMessage(services.SendMessageCommand{
		From: r.Header.Get(UserHeader),
		To:   req.To,
		Text: req.Text,
		Kind: req.Kind,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMessageResponse(message))
}

// ListMessages handles GET /messages?limit=N. Absent limit means the default
// window; a present but non-numeric or non-positive limit is rejected.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, chaterrors.ErrInvalidLimit)
			return
		}
		limit = parsed
	}

	messages, err := h.session.ListMessages(r.Header.Get(UserHeader), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	responses := toMessageResponses(messages)
	if responses == nil {
		responses = []messageResponse{}
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// SearchMessages handles GET /messages/search?q=terms. Only broadcast chat
// content is indexed, so no identity is required.
func (h *Handler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, chaterrors.ErrInvalidLimit)
			return
		}
		limit = parsed
	}

	messages, err := h.session.SearchMessages(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	responses := toMessageResponses(messages)
	if responses == nil {
		responses = []messageResponse{}
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// EditMessage handles PUT /messages/{id}
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, chaterrors.ErrInvalidPayload)
		return
	}

	message, err := h.session.EditMessage(services.EditMessageCommand{
		ID:     mux.Vars(r)["id"],
		Editor: r.Header.Get(UserHeader),
		To:     req.To,
		Text:   req.Text,
		Kind:   req.Kind,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMessageResponse(message))
}

// DeleteMessage handles DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteMessage(mux.Vars(r)["id"], r.Header.Get(UserHeader)); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
