package store

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/adwise-backend/internal/models"
)

func TestReverseMessages(t *testing.T) {
	msgs := []models.ChatMessage{
		{Content: "third"},
		{Content: "second"},
		{Content: "first"},
	}
	reverseMessages(msgs)
	if msgs[0].Content != "first" || msgs[2].Content != "third" {
		t.Fatalf("reverse mismatch: %+v", msgs)
	}

	var empty []models.ChatMessage
	reverseMessages(empty) // must not panic
}

func TestChatStoreWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	store := NewChatStore(client)
	wid := "ws-test"

	session := &models.ChatSession{
		SessionID: "s1",
		UserID:    "user",
		Title:     "Budget questions",
	}
	if err := store.CreateSession(ctx, wid, session); err != nil {
		t.Fatalf("create session error: %v", err)
	}

	base := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "three"} {
		msg := models.ChatMessage{
			MessageID: content,
			Role:      models.RoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendMessage(ctx, wid, "s1", msg); err != nil {
			t.Fatalf("append message error: %v", err)
		}
	}

	// Limited listing keeps the most recent messages, oldest first.
	msgs, err := store.ListMessages(ctx, wid, "s1", 2)
	if err != nil {
		t.Fatalf("list messages error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "two" || msgs[1].Content != "three" {
		t.Fatalf("order mismatch: %s / %s", msgs[0].Content, msgs[1].Content)
	}

	count, err := store.CountMessages(ctx, wid, "s1")
	if err != nil {
		t.Fatalf("count messages error: %v", err)
	}
	if count != 3 {
		t.Fatalf("count mismatch: %d", count)
	}

	if err := store.DeleteSession(ctx, wid, "s1"); err != nil {
		t.Fatalf("delete session error: %v", err)
	}
	if _, err := store.GetSession(ctx, wid, "s1"); err == nil {
		t.Fatal("expected not found after delete")
	}
}
