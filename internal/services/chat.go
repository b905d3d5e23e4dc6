package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/pkg/helpers"
	"github.com/GregMSThompson/adwise-backend/pkg/logger"
)

const (
	// historyLimit is the number of most-recent messages replayed to the
	// model on each turn.
	historyLimit = 20

	titleMaxLen    = 50
	titlePrefixLen = 47
	defaultTitle   = "New Chat"
)

type chatSessionStore interface {
	CreateSession(ctx context.Context, workspaceID string, session *models.ChatSession) error
	GetSession(ctx context.Context, workspaceID, sessionID string) (*models.ChatSession, error)
	ListSessions(ctx context.Context, workspaceID, userID string) ([]*models.ChatSession, error)
	UpdateSession(ctx context.Context, workspaceID string, session *models.ChatSession) error
	DeleteSession(ctx context.Context, workspaceID, sessionID string) error
	AppendMessage(ctx context.Context, workspaceID, sessionID string, msg models.ChatMessage) error
	ListMessages(ctx context.Context, workspaceID, sessionID string, limit int) ([]models.ChatMessage, error)
	CountMessages(ctx context.Context, workspaceID, sessionID string) (int, error)
}

type turnRunner interface {
	RunTurn(ctx context.Context, wc dto.WorkspaceContext, history []models.ChatMessage, message string) (dto.TurnResult, error)
}

type chatModelStreamer interface {
	StreamContent(ctx context.Context, req dto.VertexGenerateRequest) (<-chan string, <-chan error)
}

// chatService owns session lifecycle and message persistence around the agent.
type chatService struct {
	store    chatSessionStore
	agent    turnRunner
	model    chatModelStreamer
	clockNow func() time.Time
}

func NewChatService(store chatSessionStore, agent turnRunner, model chatModelStreamer) *chatService {
	return &chatService{
		store:    store,
		agent:    agent,
		model:    model,
		clockNow: time.Now,
	}
}

func (s *chatService) CreateSession(ctx context.Context, wc dto.WorkspaceContext, req dto.CreateSessionRequest) (*models.ChatSession, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}
	session := &models.ChatSession{
		SessionID: uuid.NewString(),
		UserID:    wc.UserID,
		Title:     title,
		CreatedAt: s.clockNow(),
	}
	if err := s.store.CreateSession(ctx, wc.WorkspaceID, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *chatService) ListSessions(ctx context.Context, wc dto.WorkspaceContext) ([]dto.SessionSummary, error) {
	sessions, err := s.store.ListSessions(ctx, wc.WorkspaceID, wc.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		count, err := s.store.CountMessages(ctx, wc.WorkspaceID, session.SessionID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.SessionSummary{
			SessionID:    session.SessionID,
			Title:        session.Title,
			MessageCount: count,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
		})
	}
	return out, nil
}

func (s *chatService) GetSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) (*models.ChatSession, []models.ChatMessage, error) {
	session, err := s.ownedSession(ctx, wc, sessionID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.ListMessages(ctx, wc.WorkspaceID, sessionID, 0)
	if err != nil {
		return nil, nil, err
	}
	return session, messages, nil
}

func (s *chatService) DeleteSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) error {
	if _, err := s.ownedSession(ctx, wc, sessionID); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, wc.WorkspaceID, sessionID)
}

// ProcessTurn runs one full agent turn: the user message is persisted before
// the model is invoked, so a model failure still leaves the user's words in
// the transcript.
func (s *chatService) ProcessTurn(ctx context.Context, wc dto.WorkspaceContext, req dto.ChatMessageRequest) (dto.ChatTurnResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return dto.ChatTurnResponse{}, errs.NewValidationError("message must not be empty")
	}

	session, history, err := s.prepareSession(ctx, wc, req.SessionID, message)
	if err != nil {
		return dto.ChatTurnResponse{}, err
	}

	if err := s.store.AppendMessage(ctx, wc.WorkspaceID, session.SessionID, models.ChatMessage{
		MessageID: uuid.NewString(),
		Role:      models.RoleUser,
		Content:   message,
		CreatedAt: s.clockNow(),
	}); err != nil {
		return dto.ChatTurnResponse{}, err
	}

	result, err := s.agent.RunTurn(ctx, wc, history, message)
	if err != nil {
		return dto.ChatTurnResponse{}, err
	}

	if err := s.store.AppendMessage(ctx, wc.WorkspaceID, session.SessionID, models.ChatMessage{
		MessageID: uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   result.Answer,
		ToolsUsed: result.ToolsUsed,
		CreatedAt: s.clockNow(),
	}); err != nil {
		return dto.ChatTurnResponse{}, err
	}

	if err := s.store.UpdateSession(ctx, wc.WorkspaceID, session); err != nil {
		logger.FromContext(ctx).Warn("session touch failed", "sessionId", session.SessionID, "error", err)
	}

	return dto.ChatTurnResponse{
		SessionID: session.SessionID,
		Answer:    result.Answer,
		ToolsUsed: result.ToolsUsed,
	}, nil
}

// StreamTurn pipes the model's token stream through send. The assistant
// message is persisted once, after the stream completes; an aborted stream
// persists only the user message.
func (s *chatService) StreamTurn(ctx context.Context, wc dto.WorkspaceContext, req dto.ChatMessageRequest, send func(chunk string) error) (string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", errs.NewValidationError("message must not be empty")
	}

	session, history, err := s.prepareSession(ctx, wc, req.SessionID, message)
	if err != nil {
		return "", err
	}

	if err := s.store.AppendMessage(ctx, wc.WorkspaceID, session.SessionID, models.ChatMessage{
		MessageID: uuid.NewString(),
		Role:      models.RoleUser,
		Content:   message,
		CreatedAt: s.clockNow(),
	}); err != nil {
		return "", err
	}

	chunkCh, errCh := s.model.StreamContent(ctx, dto.VertexGenerateRequest{
		System:  systemPrompt(s.clockNow()),
		History: historyContents(history),
		Parts:   []dto.VertexPart{{Text: helpers.Ptr(message)}},
	})

	var assembled strings.Builder
	for chunk := range chunkCh {
		if err := send(chunk); err != nil {
			return session.SessionID, err
		}
		assembled.WriteString(chunk)
	}
	if err := <-errCh; err != nil {
		return session.SessionID, err
	}

	if err := s.store.AppendMessage(ctx, wc.WorkspaceID, session.SessionID, models.ChatMessage{
		MessageID: uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   assembled.String(),
		CreatedAt: s.clockNow(),
	}); err != nil {
		return session.SessionID, err
	}

	if err := s.store.UpdateSession(ctx, wc.WorkspaceID, session); err != nil {
		logger.FromContext(ctx).Warn("session touch failed", "sessionId", session.SessionID, "error", err)
	}
	return session.SessionID, nil
}

// prepareSession resolves or creates the turn's session and loads the replay
// history. A brand-new or empty session gets its title derived from the first
// message.
func (s *chatService) prepareSession(ctx context.Context, wc dto.WorkspaceContext, sessionID, message string) (*models.ChatSession, []models.ChatMessage, error) {
	if sessionID == "" {
		session := &models.ChatSession{
			SessionID: uuid.NewString(),
			UserID:    wc.UserID,
			Title:     deriveTitle(message),
			CreatedAt: s.clockNow(),
		}
		if err := s.store.CreateSession(ctx, wc.WorkspaceID, session); err != nil {
			return nil, nil, err
		}
		return session, nil, nil
	}

	session, err := s.ownedSession(ctx, wc, sessionID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.store.ListMessages(ctx, wc.WorkspaceID, sessionID, historyLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(history) == 0 && session.Title == defaultTitle {
		session.Title = deriveTitle(message)
	}
	return session, history, nil
}

func (s *chatService) ownedSession(ctx context.Context, wc dto.WorkspaceContext, sessionID string) (*models.ChatSession, error) {
	session, err := s.store.GetSession(ctx, wc.WorkspaceID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != wc.UserID {
		return nil, errs.NewForbiddenError("session belongs to another user")
	}
	return session, nil
}

// deriveTitle truncates on runes so multibyte input cannot be split.
func deriveTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) == 0 {
		return defaultTitle
	}
	if len(runes) <= titleMaxLen {
		return string(runes)
	}
	return string(runes[:titlePrefixLen]) + "..."
}
