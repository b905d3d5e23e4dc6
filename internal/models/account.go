package models

import "time"

type Account struct {
	AccountID  string `firestore:"accountId" json:"accountId"`
	Platform   string `firestore:"platform" json:"platform"`
	ExternalID string `firestore:"externalId" json:"externalId"`
	Name       string `firestore:"name" json:"name"`
	Status     string `firestore:"status" json:"status"` // "active", "disconnected"
	// DeveloperToken is KMS-encrypted at rest; the store decrypts on read.
	DeveloperToken string    `firestore:"developerToken,omitempty" json:"-"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt" json:"updatedAt"`
}
