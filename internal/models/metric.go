package models

import "time"

// MetricRow is one day of raw counters for one campaign, as ingested from the
// ad platforms. Derived ratios are never stored here.
type MetricRow struct {
	AccountID   string    `firestore:"accountId" json:"accountId"`
	CampaignID  string    `firestore:"campaignId" json:"campaignId"`
	Date        string    `firestore:"date" json:"date"` // YYYY-MM-DD
	Impressions int64     `firestore:"impressions" json:"impressions"`
	Clicks      int64     `firestore:"clicks" json:"clicks"`
	Spend       float64   `firestore:"spend" json:"spend"`
	Conversions int64     `firestore:"conversions" json:"conversions"`
	Revenue     float64   `firestore:"revenue" json:"revenue"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}
