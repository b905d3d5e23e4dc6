package dto

import "time"

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type SessionSummary struct {
	SessionID    string    `json:"sessionId"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ChatMessageRequest struct {
	SessionID string `json:"sessionId"` // empty starts a new session
	Message   string `json:"message"`
}

type ChatTurnResponse struct {
	SessionID string   `json:"sessionId"`
	Answer    string   `json:"answer"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
}

// TurnResult is what the orchestrator hands back for one user turn.
type TurnResult struct {
	Answer    string
	ToolsUsed []string
}

// StreamChunkEvent is the SSE payload for one incremental chunk; the stream
// is terminated by an event with Done set.
type StreamChunkEvent struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
}
