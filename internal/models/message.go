package models

import "time"

const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
	RoleSystem    = "SYSTEM"
)

// ChatMessage is append-only; ordering is creation order within a session.
type ChatMessage struct {
	MessageID string    `firestore:"messageId" json:"messageId"`
	Role      string    `firestore:"role" json:"role"`
	Content   string    `firestore:"content" json:"content"`
	ToolsUsed []string  `firestore:"toolsUsed,omitempty" json:"toolsUsed,omitempty"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}
