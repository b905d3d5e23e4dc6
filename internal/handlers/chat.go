package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/internal/response"
)

type ChatService interface {
	CreateSession(ctx context.Context, wc dto.WorkspaceContext, req dto.CreateSessionRequest) (*models.ChatSession, error)
	ListSessions(ctx context.Context, wc dto.WorkspaceContext) ([]dto.SessionSummary, error)
	GetSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) (*models.ChatSession, []models.ChatMessage, error)
	DeleteSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) error
	ProcessTurn(ctx context.Context, wc dto.WorkspaceContext, req dto.ChatMessageRequest) (dto.ChatTurnResponse, error)
	StreamTurn(ctx context.Context, wc dto.WorkspaceContext, req dto.ChatMessageRequest, send func(chunk string) error) (string, error)
}

type chatHandlers struct {
	ResponseHandler response.ResponseHandler
	ChatSvc         ChatService
}

func NewChatHandlers(deps *Deps) *chatHandlers {
	return &chatHandlers{
		ResponseHandler: deps.ResponseHandler,
		ChatSvc:         deps.ChatSvc,
	}
}

func (h *chatHandlers) ChatRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions", h.ListSessions)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Delete("/sessions/{sessionID}", h.DeleteSession)
	r.Post("/message", h.Message)
	r.Post("/message/stream", h.MessageStream)
	return r
}

func (h *chatHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
			return
		}
	}

	session, err := h.ChatSvc.CreateSession(r.Context(), workspaceContext(r), body)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusCreated, session)
}

func (h *chatHandlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.ChatSvc.ListSessions(r.Context(), workspaceContext(r))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, sessions)
}

func (h *chatHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, messages, err := h.ChatSvc.GetSession(r.Context(), workspaceContext(r), sessionID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, map[string]any{
		"session":  session,
		"messages": messages,
	})
}

func (h *chatHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.ChatSvc.DeleteSession(r.Context(), workspaceContext(r), sessionID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, nil)
}

func (h *chatHandlers) Message(w http.ResponseWriter, r *http.Request) {
	var body dto.ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	if body.Message == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("message is required"))
		return
	}

	resp, err := h.ChatSvc.ProcessTurn(r.Context(), workspaceContext(r), body)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, http.StatusOK, resp)
}
