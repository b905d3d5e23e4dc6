package models

import "time"

type ChatSession struct {
	SessionID string    `firestore:"sessionId" json:"sessionId"`
	UserID    string    `firestore:"userId" json:"userId"`
	Title     string    `firestore:"title" json:"title"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}
