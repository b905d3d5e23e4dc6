package models

import "time"

const (
	CampaignStatusActive = "ACTIVE"
	CampaignStatusPaused = "PAUSED"
	CampaignStatusEnded  = "ENDED"
)

type Campaign struct {
	CampaignID string    `firestore:"campaignId" json:"campaignId"`
	AccountID  string    `firestore:"accountId" json:"accountId"`
	Name       string    `firestore:"name" json:"name"`
	Status     string    `firestore:"status" json:"status"`
	Platform   string    `firestore:"platform" json:"platform"` // e.g. "google", "meta", "tiktok"
	Budget     float64   `firestore:"budget" json:"budget"`     // daily budget; 0 means unset
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt" json:"updatedAt"`
}
