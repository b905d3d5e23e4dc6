package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/middleware"
	"github.com/GregMSThompson/adwise-backend/internal/models"
)

type stubChatService struct {
	turnResp  dto.ChatTurnResponse
	turnErr   error
	turnCalls int
	lastReq   dto.ChatMessageRequest
	lastWC    dto.WorkspaceContext

	streamChunks []string
	streamErr    error
}

func (s *stubChatService) CreateSession(ctx context.Context, wc dto.WorkspaceContext, req dto.CreateSessionRequest) (*models.ChatSession, error) {
	return &models.ChatSession{SessionID: "s-1", UserID: wc.UserID, Title: req.Title}, nil
}

func (s *stubChatService) ListSessions(ctx context.Context, wc dto.WorkspaceContext) ([]dto.SessionSummary, error) {
	return []dto.SessionSummary{}, nil
}

func (s *stubChatService) GetSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) (*models.ChatSession, []models.ChatMessage, error) {
	return &models.ChatSession{SessionID: sessionID}, nil, nil
}

func (s *stubChatService) DeleteSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) error {
	return nil
}

func (s *stubChatService) ProcessTurn(ctx context.Context, wc dto.WorkspaceContext, req dto.ChatMessageRequest) (dto.ChatTurnResponse, error) {
	s.turnCalls++
	s.lastReq = req
	s.lastWC = wc
	return s.turnResp, s.turnErr
}

func (s *stubChatService) StreamTurn(ctx context.Context, wc dto.WorkspaceContext, req dto.ChatMessageRequest, send func(chunk string) error) (string, error) {
	for _, c := range s.streamChunks {
		if err := send(c); err != nil {
			return "s-1", err
		}
	}
	return "s-1", s.streamErr
}

type stubResponseHandler struct {
	successCalled bool
	successStatus int
	successData   any

	handledErr error
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, status int, data any) {
	s.successCalled = true
	s.successStatus = status
	s.successData = data
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	s.handledErr = err
	w.WriteHeader(http.StatusInternalServerError)
}

func scopedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), middleware.UIDKey, "user-1")
	ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, "ws-1")
	return r.WithContext(ctx)
}

func TestMessageHandler(t *testing.T) {
	svc := &stubChatService{turnResp: dto.ChatTurnResponse{SessionID: "s-1", Answer: "done"}}
	rh := &stubResponseHandler{}
	h := NewChatHandlers(&Deps{ResponseHandler: rh, ChatSvc: svc})

	w := httptest.NewRecorder()
	h.Message(w, scopedRequest(http.MethodPost, "/chat/message", `{"message":"how is spend?"}`))

	if !rh.successCalled {
		t.Fatalf("expected success, got error: %v", rh.handledErr)
	}
	if svc.lastWC.WorkspaceID != "ws-1" || svc.lastWC.UserID != "user-1" {
		t.Fatalf("workspace context mismatch: %+v", svc.lastWC)
	}
	if svc.lastReq.Message != "how is spend?" {
		t.Fatalf("message mismatch: %q", svc.lastReq.Message)
	}
}

func TestMessageHandlerEmptyMessage(t *testing.T) {
	svc := &stubChatService{}
	rh := &stubResponseHandler{}
	h := NewChatHandlers(&Deps{ResponseHandler: rh, ChatSvc: svc})

	w := httptest.NewRecorder()
	h.Message(w, scopedRequest(http.MethodPost, "/chat/message", `{"message":""}`))

	var validation *errs.ValidationError
	if !errors.As(rh.handledErr, &validation) {
		t.Fatalf("expected validation error, got %v", rh.handledErr)
	}
	if svc.turnCalls != 0 {
		t.Fatalf("service should not be called, got %d calls", svc.turnCalls)
	}
}

func TestMessageHandlerBadBody(t *testing.T) {
	rh := &stubResponseHandler{}
	h := NewChatHandlers(&Deps{ResponseHandler: rh, ChatSvc: &stubChatService{}})

	w := httptest.NewRecorder()
	h.Message(w, scopedRequest(http.MethodPost, "/chat/message", `{not json`))

	var validation *errs.ValidationError
	if !errors.As(rh.handledErr, &validation) {
		t.Fatalf("expected validation error, got %v", rh.handledErr)
	}
}

func TestMessageStreamHandler(t *testing.T) {
	svc := &stubChatService{streamChunks: []string{"Spend is ", "up."}}
	rh := &stubResponseHandler{}
	h := NewChatHandlers(&Deps{ResponseHandler: rh, ChatSvc: svc})

	w := httptest.NewRecorder()
	h.MessageStream(w, scopedRequest(http.MethodPost, "/chat/message/stream", `{"message":"status?"}`))

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type mismatch: %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data: {"content":"Spend is "}`) {
		t.Fatalf("missing first chunk: %q", body)
	}
	if !strings.Contains(body, `data: {"content":"up."}`) {
		t.Fatalf("missing second chunk: %q", body)
	}
	if !strings.Contains(body, `data: {"done":true}`) {
		t.Fatalf("missing done event: %q", body)
	}
}

func TestMessageStreamHandlerErrorBeforeStart(t *testing.T) {
	svc := &stubChatService{streamErr: errs.NewNotFoundError("session not found")}
	rh := &stubResponseHandler{}
	h := NewChatHandlers(&Deps{ResponseHandler: rh, ChatSvc: svc})

	w := httptest.NewRecorder()
	h.MessageStream(w, scopedRequest(http.MethodPost, "/chat/message/stream", `{"message":"status?"}`))

	var notFound *errs.NotFoundError
	if !errors.As(rh.handledErr, &notFound) {
		t.Fatalf("expected the error to reach the response handler, got %v", rh.handledErr)
	}
}

func TestCreateSessionHandlerNoBody(t *testing.T) {
	rh := &stubResponseHandler{}
	h := NewChatHandlers(&Deps{ResponseHandler: rh, ChatSvc: &stubChatService{}})

	w := httptest.NewRecorder()
	h.CreateSession(w, scopedRequest(http.MethodPost, "/chat/sessions", ""))

	if !rh.successCalled {
		t.Fatalf("expected success, got error: %v", rh.handledErr)
	}
	if rh.successStatus != http.StatusCreated {
		t.Fatalf("status mismatch: %d", rh.successStatus)
	}
}
