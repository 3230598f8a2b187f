package handler

import (
	"bytes"
	"chatroom/domain"
	chaterrors "chatroom/errors"
	"chatroom/mocks"
	"chatroom/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type handlerFixture struct {
	router  http.Handler
	session *mocks.MockISessionService
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	session := mocks.NewMockISessionService(ctrl)
	h := New(logs.GetLoggerFromLevel(slog.LevelDebug), session)
	return handlerFixture{router: h.SetupRouter(), session: session}
}

func (f handlerFixture) do(method, target, user string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Join(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.session.EXPECT().Join("Alice").
		Return(domain.Participant{Name: "Alice", LastSeenAt: now}, nil)

	rec := f.do("POST", "/participants", "", map[string]string{"name": "Alice"})
	req.Equal(http.StatusCreated, rec.Code)

	var resp participantResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("Alice", resp.Name)
	req.True(now.Equal(resp.LastSeenAt))
}

func TestHandler_Join_Duplicate_Is_A_Conflict(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().Join("Alice").
		Return(domain.Participant{}, chaterrors.ErrNameTaken)

	rec := f.do("POST", "/participants", "", map[string]string{"name": "Alice"})
	req.Equal(http.StatusConflict, rec.Code)
}

func TestHandler_Join_Malformed_Body(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	httpReq := httptest.NewRequest("POST", "/participants", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httpReq)
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_ListParticipants_Empty_Is_An_Array(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().ListParticipants().Return(nil, nil)

	rec := f.do("GET", "/participants", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq("[]", rec.Body.String())
}

func TestHandler_Heartbeat(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().Heartbeat("Alice").
		Return(domain.Participant{Name: "Alice"}, nil)

	rec := f.do("POST", "/status", "Alice", nil)
	req.Equal(http.StatusOK, rec.Code)
}

func TestHandler_Heartbeat_Missing_Identity(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	rec := f.do("POST", "/status", "", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestHandler_Heartbeat_Evicted_Participant(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().Heartbeat("Ghost").
		Return(domain.Participant{}, chaterrors.ErrParticipantNotFound)

	rec := f.do("POST", "/status", "Ghost", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestHandler_SendMessage(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().SendMessage(services.SendMessageCommand{
		From: "Alice", To: domain.Broadcast, Text: "hi", Kind: "message",
	}).Return(domain.Message{ID: "1", From: "Alice", To: domain.Broadcast, Text: "hi", Kind: domain.KindMessage}, nil)

	rec := f.do("POST", "/messages", "Alice", map[string]string{
		"to": domain.Broadcast, "text": "hi", "kind": "message",
	})
	req.Equal(http.StatusCreated, rec.Code)

	var resp messageResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("1", resp.ID)
	req.Equal("message", resp.Kind)
}

func TestHandler_SendMessage_Error_Mapping(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	tests := []struct {
		description string
		err         error
		status      int
	}{
		{"Unknown sender is unprocessable", chaterrors.ErrUnknownSender, http.StatusUnprocessableEntity},
		{"Invalid payload is unprocessable", chaterrors.ErrInvalidPayload, http.StatusUnprocessableEntity},
		{"Anything else is a storage fault", chaterrors.ErrWorkerPanic, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			f.session.EXPECT().SendMessage(gomock.Any()).Return(domain.Message{}, tt.err)

			rec := f.do("POST", "/messages", "Alice", map[string]string{
				"to": domain.Broadcast, "text": "hi", "kind": "message",
			})
			req.Equal(tt.status, rec.Code, tt.description)
		})
	}
}

func TestHandler_ListMessages_Limit_Parsing(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	// Absent limit falls back to the default window.
	f.session.EXPECT().ListMessages("Alice", services.DefaultMessageLimit).Return(nil, nil)
	rec := f.do("GET", "/messages", "Alice", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq("[]", rec.Body.String())

	// Explicit limit is forwarded untouched, including invalid values.
	f.session.EXPECT().ListMessages("Alice", 5).Return([]domain.Message{{ID: "1"}}, nil)
	rec = f.do("GET", "/messages?limit=5", "Alice", nil)
	req.Equal(http.StatusOK, rec.Code)

	f.session.EXPECT().ListMessages("Alice", 0).Return(nil, chaterrors.ErrInvalidLimit)
	rec = f.do("GET", "/messages?limit=0", "Alice", nil)
	req.Equal(http.StatusUnprocessableEntity, rec.Code)

	// Non-numeric limit never reaches the service.
	rec = f.do("GET", "/messages?limit=ten", "Alice", nil)
	req.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_SearchMessages(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().
		SearchMessages(gomock.Any(), "badger", services.DefaultMessageLimit).
		Return([]domain.Message{{ID: "1", Text: "a badger appears"}}, nil)

	rec := f.do("GET", "/messages/search?q=badger", "", nil)
	req.Equal(http.StatusOK, rec.Code)

	var resp []messageResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Len(resp, 1)
	req.Equal("a badger appears", resp[0].Text)
}

func TestHandler_EditMessage(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().EditMessage(services.EditMessageCommand{
		ID: "id-1", Editor: "Alice", To: domain.Broadcast, Text: "fixed", Kind: "message",
	}).Return(domain.Message{ID: "id-1", Text: "fixed"}, nil)

	rec := f.do("PUT", "/messages/id-1", "Alice", map[string]string{
		"to": domain.Broadcast, "text": "fixed", "kind": "message",
	})
	req.Equal(http.StatusOK, rec.Code)
}

func TestHandler_EditMessage_By_Non_Author(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().EditMessage(gomock.Any()).
		Return(domain.Message{}, chaterrors.ErrNotAuthor)

	rec := f.do("PUT", "/messages/id-1", "Bob", map[string]string{
		"to": domain.Broadcast, "text": "hijack", "kind": "message",
	})
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func TestHandler_DeleteMessage(t *testing.T) {
	req := require.New(t)
	f := newHandlerFixture(t)

	f.session.EXPECT().DeleteMessage("id-1", "Alice").Return(nil)
	rec := f.do("DELETE", "/messages/id-1", "Alice", nil)
	req.Equal(http.StatusOK, rec.Code)

	f.session.EXPECT().DeleteMessage("id-9", "Alice").Return(chaterrors.ErrMessageNotFound)
	rec = f.do("DELETE", "/messages/id-9", "Alice", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}
