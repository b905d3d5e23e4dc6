package dto

import "github.com/GregMSThompson/adwise-backend/internal/models"

// WorkspaceContext is the immutable per-request scope every tool executes
// under. It is never persisted.
type WorkspaceContext struct {
	WorkspaceID string
	UserID      string
}

type MetricsArgs struct {
	DateRange  string   `json:"dateRange"` // 7d|30d|90d|custom
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	AccountIDs []string `json:"accountIds,omitempty"`
	GroupBy    string   `json:"groupBy,omitempty"` // day|week|month|campaign|platform
}

type MetricsResult struct {
	// NoAccounts is set instead of zeroed metrics when the workspace has no
	// connected accounts, so the model can suggest connecting one rather than
	// reporting 0% metrics as real performance.
	NoAccounts bool   `json:"noAccounts,omitempty"`
	Message    string `json:"message,omitempty"`

	DateRange string          `json:"dateRange,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Metrics   *MetricSummary  `json:"metrics,omitempty"`
	GroupBy   string          `json:"groupBy,omitempty"`
	Breakdown []BreakdownItem `json:"breakdown,omitempty"`
}

// BreakdownItem is one bucket of a grouped metrics response. Key is a date
// for time groupings, or a campaign/platform name otherwise.
type BreakdownItem struct {
	Key     string        `json:"key"`
	Metrics MetricSummary `json:"metrics"`
}

type CampaignsArgs struct {
	Status   string `json:"status,omitempty"` // all|ACTIVE|PAUSED|ENDED
	Platform string `json:"platform,omitempty"`
	SortBy   string `json:"sortBy,omitempty"` // spend|conversions|roas|cpa|impressions
	Limit    int    `json:"limit,omitempty"`
}

type CampaignMetrics struct {
	CampaignID string        `json:"campaignId"`
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	Platform   string        `json:"platform"`
	Budget     float64       `json:"budget"`
	Metrics    MetricSummary `json:"metrics"`
}

type CampaignsResult struct {
	Campaigns []CampaignMetrics `json:"campaigns"`
	Total     int               `json:"total"`
	Truncated bool              `json:"truncated"`
}

type RecommendationsArgs struct {
	Status   string `json:"status,omitempty"` // defaults to PENDING
	Priority string `json:"priority,omitempty"`
	Type     string `json:"type,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type RecommendationsResult struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Summary         RecommendationSummary   `json:"summary"`
	// TotalEstimatedImpact sums impactValue over the returned
	// (post-filter, post-limit) set only.
	TotalEstimatedImpact float64 `json:"totalEstimatedImpact"`
}

type RecommendationSummary struct {
	ByPriority map[string]int `json:"byPriority"`
	ByStatus   map[string]int `json:"byStatus"`
}

type AnalysisArgs struct {
	AnalysisType string `json:"analysisType"` // top_performers|underperformers|budget_efficiency|trends|anomalies
	Metric       string `json:"metric,omitempty"`
	LookbackDays int    `json:"lookbackDays,omitempty"`
}
