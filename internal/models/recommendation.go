package models

import "time"

const (
	RecommendationStatusPending   = "PENDING"
	RecommendationStatusApplied   = "APPLIED"
	RecommendationStatusDismissed = "DISMISSED"

	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

type Recommendation struct {
	RecommendationID string    `firestore:"recommendationId" json:"recommendationId"`
	CampaignID       string    `firestore:"campaignId,omitempty" json:"campaignId,omitempty"`
	Type             string    `firestore:"type" json:"type"` // e.g. "budget", "creative", "bidding"
	Priority         string    `firestore:"priority" json:"priority"`
	Status           string    `firestore:"status" json:"status"`
	Title            string    `firestore:"title" json:"title"`
	Description      string    `firestore:"description,omitempty" json:"description,omitempty"`
	ImpactValue      float64   `firestore:"impactValue" json:"impactValue"` // estimated monthly impact
	CreatedAt        time.Time `firestore:"createdAt" json:"createdAt"`
}
