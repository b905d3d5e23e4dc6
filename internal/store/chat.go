package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
)

type chatStore struct {
	client *firestore.Client
}

func NewChatStore(client *firestore.Client) *chatStore {
	return &chatStore{client: client}
}

func (s *chatStore) sessionsCollection(workspaceID string) *firestore.CollectionRef {
	return s.client.Collection("workspaces").Doc(workspaceID).Collection("chat_sessions")
}

func (s *chatStore) messagesCollection(workspaceID, sessionID string) *firestore.CollectionRef {
	return s.sessionsCollection(workspaceID).Doc(sessionID).Collection("messages")
}

func (s *chatStore) CreateSession(ctx context.Context, workspaceID string, session *models.ChatSession) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	_, err := s.sessionsCollection(workspaceID).Doc(session.SessionID).Set(ctx, session)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create chat session", err)
	}
	return nil
}

func (s *chatStore) GetSession(ctx context.Context, workspaceID, sessionID string) (*models.ChatSession, error) {
	doc, err := s.sessionsCollection(workspaceID).Doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("session not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get chat session", err)
	}
	var session models.ChatSession
	if err := doc.DataTo(&session); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse chat session data", err)
	}
	return &session, nil
}

// ListSessions filters by owner at the query, so a foreign session is
// indistinguishable from an absent one.
func (s *chatStore) ListSessions(ctx context.Context, workspaceID, userID string) ([]*models.ChatSession, error) {
	docs, err := s.sessionsCollection(workspaceID).
		Where("userId", "==", userID).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list chat sessions", err)
	}
	sessions := make([]*models.ChatSession, 0, len(docs))
	for _, d := range docs {
		var session models.ChatSession
		if err := d.DataTo(&session); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse chat session data", err)
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

func (s *chatStore) UpdateSession(ctx context.Context, workspaceID string, session *models.ChatSession) error {
	session.UpdatedAt = time.Now()
	_, err := s.sessionsCollection(workspaceID).Doc(session.SessionID).Set(ctx, session)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update chat session", err)
	}
	return nil
}

// DeleteSession removes the session's messages first, then the session doc.
func (s *chatStore) DeleteSession(ctx context.Context, workspaceID, sessionID string) error {
	refs, err := s.messagesCollection(workspaceID, sessionID).DocumentRefs(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to list session messages", err)
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("delete", "failed to schedule message delete", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errs.NewDatabaseError("delete", "failed to delete session messages", err)
		}
	}

	if _, err := s.sessionsCollection(workspaceID).Doc(sessionID).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete chat session", err)
	}
	return nil
}

func (s *chatStore) AppendMessage(ctx context.Context, workspaceID, sessionID string, msg models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, _, err := s.messagesCollection(workspaceID, sessionID).Add(ctx, msg)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to append chat message", err)
	}
	return nil
}

// ListMessages returns up to limit most-recent messages, oldest first.
func (s *chatStore) ListMessages(ctx context.Context, workspaceID, sessionID string, limit int) ([]models.ChatMessage, error) {
	query := s.messagesCollection(workspaceID, sessionID).Query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []models.ChatMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list chat messages", err)
		}
		var msg models.ChatMessage
		if err := doc.DataTo(&msg); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse chat message data", err)
		}
		out = append(out, msg)
	}

	reverseMessages(out)
	return out, nil
}

func (s *chatStore) CountMessages(ctx context.Context, workspaceID, sessionID string) (int, error) {
	refs, err := s.messagesCollection(workspaceID, sessionID).DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to count chat messages", err)
	}
	return len(refs), nil
}

func reverseMessages(msgs []models.ChatMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
