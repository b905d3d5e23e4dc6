package services

import (
	"context"
	"testing"
	"time"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/internal/store"
	"github.com/GregMSThompson/adwise-backend/pkg/helpers"
)

type fakeMetricStore struct {
	rows      []*models.MetricRow
	err       error
	lastQuery store.MetricQuery
}

func (f *fakeMetricStore) Query(ctx context.Context, workspaceID string, q store.MetricQuery) (<-chan *models.MetricRow, <-chan error) {
	f.lastQuery = q
	rowCh := make(chan *models.MetricRow, len(f.rows)+1)
	errCh := make(chan error, 1)
	for _, row := range f.rows {
		if q.DateFrom != "" && row.Date < q.DateFrom {
			continue
		}
		if q.DateTo != "" && row.Date > q.DateTo {
			continue
		}
		rowCh <- row
	}
	close(rowCh)
	if f.err != nil {
		errCh <- f.err
	}
	close(errCh)
	return rowCh, errCh
}

type fakeCampaignStore struct {
	campaigns []*models.Campaign
	lastQuery store.CampaignQuery
}

func (f *fakeCampaignStore) List(ctx context.Context, workspaceID string, q store.CampaignQuery) ([]*models.Campaign, error) {
	f.lastQuery = q
	var out []*models.Campaign
	for _, c := range f.campaigns {
		if q.Status != "" && q.Status != "all" && c.Status != q.Status {
			continue
		}
		if q.Platform != "" && c.Platform != q.Platform {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeAccountStore struct {
	accounts []*models.Account
}

func (f *fakeAccountStore) List(ctx context.Context, workspaceID string) ([]*models.Account, error) {
	return f.accounts, nil
}

type fakeRecommendationStore struct {
	recs      []models.Recommendation
	lastQuery store.RecommendationQuery
}

func (f *fakeRecommendationStore) List(ctx context.Context, workspaceID string, q store.RecommendationQuery) ([]models.Recommendation, error) {
	f.lastQuery = q
	var out []models.Recommendation
	for _, r := range f.recs {
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if q.Priority != "" && r.Priority != q.Priority {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	}
}

func metricRow(date, accountID, campaignID string, spend, revenue float64) *models.MetricRow {
	return &models.MetricRow{
		AccountID:   accountID,
		CampaignID:  campaignID,
		Date:        date,
		Impressions: 1000,
		Clicks:      50,
		Spend:       spend,
		Conversions: 5,
		Revenue:     revenue,
	}
}

func newTestInsights(rows *fakeMetricStore, campaigns *fakeCampaignStore, accounts *fakeAccountStore, recs *fakeRecommendationStore) *insightsService {
	svc := NewInsightsService(rows, campaigns, accounts, recs)
	svc.clockNow = fixedClock()
	return svc
}

func TestGetMetricsNoAccounts(t *testing.T) {
	svc := newTestInsights(&fakeMetricStore{}, &fakeCampaignStore{}, &fakeAccountStore{}, &fakeRecommendationStore{})

	result, err := svc.GetMetrics(helpers.TestCtx(), testWorkspace(), dto.MetricsArgs{DateRange: "30d"})
	if err != nil {
		t.Fatalf("GetMetrics error: %v", err)
	}
	if !result.NoAccounts {
		t.Fatal("expected noAccounts flag")
	}
	if result.Metrics != nil {
		t.Fatalf("metrics should be absent, got %+v", result.Metrics)
	}
}

func TestGetMetricsAggregation(t *testing.T) {
	rows := &fakeMetricStore{rows: []*models.MetricRow{
		metricRow("2026-08-30", "acc-1", "c-1", 100, 300),
		metricRow("2026-08-31", "acc-1", "c-1", 100, 300),
		metricRow("2026-07-01", "acc-1", "c-1", 999, 999), // outside window
	}}
	accounts := &fakeAccountStore{accounts: []*models.Account{{AccountID: "acc-1"}}}
	svc := newTestInsights(rows, &fakeCampaignStore{}, accounts, &fakeRecommendationStore{})

	result, err := svc.GetMetrics(helpers.TestCtx(), testWorkspace(), dto.MetricsArgs{DateRange: "7d"})
	if err != nil {
		t.Fatalf("GetMetrics error: %v", err)
	}
	if result.From != "2026-08-26" || result.To != "2026-09-01" {
		t.Fatalf("window mismatch: %s .. %s", result.From, result.To)
	}
	if result.Metrics.Spend != 200 {
		t.Fatalf("spend mismatch: %v", result.Metrics.Spend)
	}
	if result.Metrics.Revenue != 600 {
		t.Fatalf("revenue mismatch: %v", result.Metrics.Revenue)
	}
	if result.Metrics.ROAS != 3 {
		t.Fatalf("roas mismatch: %v", result.Metrics.ROAS)
	}
}

func TestGetMetricsGroupedByDay(t *testing.T) {
	rows := &fakeMetricStore{rows: []*models.MetricRow{
		metricRow("2026-08-30", "acc-1", "c-1", 100, 300),
		metricRow("2026-08-30", "acc-1", "c-2", 50, 100),
		metricRow("2026-08-31", "acc-1", "c-1", 100, 300),
	}}
	accounts := &fakeAccountStore{accounts: []*models.Account{{AccountID: "acc-1"}}}
	svc := newTestInsights(rows, &fakeCampaignStore{}, accounts, &fakeRecommendationStore{})

	result, err := svc.GetMetrics(helpers.TestCtx(), testWorkspace(), dto.MetricsArgs{DateRange: "7d", GroupBy: "day"})
	if err != nil {
		t.Fatalf("GetMetrics error: %v", err)
	}
	if len(result.Breakdown) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(result.Breakdown))
	}
	if result.Breakdown[0].Key != "2026-08-30" || result.Breakdown[0].Metrics.Spend != 150 {
		t.Fatalf("bucket mismatch: %+v", result.Breakdown[0])
	}
}

func TestGetMetricsGroupedByPlatform(t *testing.T) {
	rows := &fakeMetricStore{rows: []*models.MetricRow{
		metricRow("2026-08-30", "acc-1", "c-1", 100, 300),
		metricRow("2026-08-30", "acc-1", "c-2", 50, 100),
	}}
	accounts := &fakeAccountStore{accounts: []*models.Account{{AccountID: "acc-1"}}}
	campaigns := &fakeCampaignStore{campaigns: []*models.Campaign{
		{CampaignID: "c-1", Name: "Search", Platform: "google"},
		{CampaignID: "c-2", Name: "Social", Platform: "meta"},
	}}
	svc := newTestInsights(rows, campaigns, accounts, &fakeRecommendationStore{})

	result, err := svc.GetMetrics(helpers.TestCtx(), testWorkspace(), dto.MetricsArgs{DateRange: "7d", GroupBy: "platform"})
	if err != nil {
		t.Fatalf("GetMetrics error: %v", err)
	}
	if len(result.Breakdown) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(result.Breakdown))
	}
	if result.Breakdown[0].Key != "google" || result.Breakdown[1].Key != "meta" {
		t.Fatalf("bucket keys mismatch: %s / %s", result.Breakdown[0].Key, result.Breakdown[1].Key)
	}
}

func TestGetMetricsCustomRangeValidation(t *testing.T) {
	accounts := &fakeAccountStore{accounts: []*models.Account{{AccountID: "acc-1"}}}
	svc := newTestInsights(&fakeMetricStore{}, &fakeCampaignStore{}, accounts, &fakeRecommendationStore{})

	_, err := svc.GetMetrics(helpers.TestCtx(), testWorkspace(), dto.MetricsArgs{
		DateRange: "custom",
		StartDate: "2026-08-10",
		EndDate:   "2026-08-01",
	})
	if err == nil {
		t.Fatal("expected error for inverted custom range")
	}
}

func TestGetCampaignsSortAndTruncate(t *testing.T) {
	campaigns := &fakeCampaignStore{campaigns: []*models.Campaign{
		{CampaignID: "c-1", Name: "Low", Status: models.CampaignStatusActive, Platform: "google"},
		{CampaignID: "c-2", Name: "High", Status: models.CampaignStatusActive, Platform: "google"},
		{CampaignID: "c-3", Name: "Mid", Status: models.CampaignStatusActive, Platform: "google"},
	}}
	rows := &fakeMetricStore{rows: []*models.MetricRow{
		metricRow("2026-08-30", "acc-1", "c-1", 10, 20),
		metricRow("2026-08-30", "acc-1", "c-2", 300, 900),
		metricRow("2026-08-30", "acc-1", "c-3", 100, 200),
	}}
	svc := newTestInsights(rows, campaigns, &fakeAccountStore{}, &fakeRecommendationStore{})

	result, err := svc.GetCampaigns(helpers.TestCtx(), testWorkspace(), dto.CampaignsArgs{Limit: 2})
	if err != nil {
		t.Fatalf("GetCampaigns error: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("total mismatch: %d", result.Total)
	}
	if !result.Truncated {
		t.Fatal("expected truncated flag")
	}
	if len(result.Campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(result.Campaigns))
	}
	// Default sort is spend descending.
	if result.Campaigns[0].Name != "High" || result.Campaigns[1].Name != "Mid" {
		t.Fatalf("sort mismatch: %s / %s", result.Campaigns[0].Name, result.Campaigns[1].Name)
	}
}

func TestGetCampaignsUnknownSort(t *testing.T) {
	svc := newTestInsights(&fakeMetricStore{}, &fakeCampaignStore{campaigns: []*models.Campaign{{CampaignID: "c-1"}}}, &fakeAccountStore{}, &fakeRecommendationStore{})

	_, err := svc.GetCampaigns(helpers.TestCtx(), testWorkspace(), dto.CampaignsArgs{SortBy: "vibes"})
	if err == nil {
		t.Fatal("expected error for unknown sort metric")
	}
}

func TestGetRecommendationsOrderingAndSummary(t *testing.T) {
	now := fixedClock()()
	recs := &fakeRecommendationStore{recs: []models.Recommendation{
		{RecommendationID: "r-1", Priority: models.PriorityLow, Status: models.RecommendationStatusPending, ImpactValue: 10, CreatedAt: now},
		{RecommendationID: "r-2", Priority: models.PriorityCritical, Status: models.RecommendationStatusPending, ImpactValue: 500, CreatedAt: now.Add(-time.Hour)},
		{RecommendationID: "r-3", Priority: models.PriorityCritical, Status: models.RecommendationStatusPending, ImpactValue: 200, CreatedAt: now},
		{RecommendationID: "r-4", Priority: models.PriorityHigh, Status: models.RecommendationStatusApplied, ImpactValue: 50, CreatedAt: now},
	}}
	svc := newTestInsights(&fakeMetricStore{}, &fakeCampaignStore{}, &fakeAccountStore{}, recs)

	result, err := svc.GetRecommendations(helpers.TestCtx(), testWorkspace(), dto.RecommendationsArgs{})
	if err != nil {
		t.Fatalf("GetRecommendations error: %v", err)
	}

	// Status defaults to PENDING, so the applied one is filtered out.
	if recs.lastQuery.Status != models.RecommendationStatusPending {
		t.Fatalf("status filter mismatch: %q", recs.lastQuery.Status)
	}
	if len(result.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(result.Recommendations))
	}
	// Critical first, newest critical before older critical.
	if result.Recommendations[0].RecommendationID != "r-3" || result.Recommendations[1].RecommendationID != "r-2" {
		t.Fatalf("ordering mismatch: %s / %s", result.Recommendations[0].RecommendationID, result.Recommendations[1].RecommendationID)
	}
	if result.Summary.ByPriority[models.PriorityCritical] != 2 {
		t.Fatalf("priority summary mismatch: %+v", result.Summary.ByPriority)
	}
	if result.TotalEstimatedImpact != 710 {
		t.Fatalf("impact mismatch: %v", result.TotalEstimatedImpact)
	}
}

func TestGetRecommendationsLimitAppliesToImpact(t *testing.T) {
	now := fixedClock()()
	recs := &fakeRecommendationStore{recs: []models.Recommendation{
		{RecommendationID: "r-1", Priority: models.PriorityCritical, Status: models.RecommendationStatusPending, ImpactValue: 100, CreatedAt: now},
		{RecommendationID: "r-2", Priority: models.PriorityHigh, Status: models.RecommendationStatusPending, ImpactValue: 50, CreatedAt: now},
		{RecommendationID: "r-3", Priority: models.PriorityLow, Status: models.RecommendationStatusPending, ImpactValue: 25, CreatedAt: now},
	}}
	svc := newTestInsights(&fakeMetricStore{}, &fakeCampaignStore{}, &fakeAccountStore{}, recs)

	result, err := svc.GetRecommendations(helpers.TestCtx(), testWorkspace(), dto.RecommendationsArgs{Limit: 2})
	if err != nil {
		t.Fatalf("GetRecommendations error: %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
	}
	// The summary still spans the filtered set; impact only the returned one.
	if result.Summary.ByPriority[models.PriorityLow] != 1 {
		t.Fatalf("summary should span pre-limit set: %+v", result.Summary.ByPriority)
	}
	if result.TotalEstimatedImpact != 150 {
		t.Fatalf("impact mismatch: %v", result.TotalEstimatedImpact)
	}
}

func TestAnalyzeTrendsUsesDailyWindow(t *testing.T) {
	rows := &fakeMetricStore{rows: []*models.MetricRow{
		metricRow("2026-08-29", "acc-1", "c-1", 100, 100),
		metricRow("2026-08-30", "acc-1", "c-1", 100, 100),
		metricRow("2026-08-31", "acc-1", "c-1", 200, 400),
		metricRow("2026-09-01", "acc-1", "c-1", 200, 400),
	}}
	svc := newTestInsights(rows, &fakeCampaignStore{}, &fakeAccountStore{}, &fakeRecommendationStore{})

	result, err := svc.Analyze(helpers.TestCtx(), testWorkspace(), dto.AnalysisArgs{AnalysisType: "trends", LookbackDays: 7})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if result.Trends == nil {
		t.Fatal("expected trends result")
	}
	if result.Trends.Days != 4 {
		t.Fatalf("days mismatch: %d", result.Trends.Days)
	}
	if result.Trends.SpendChange != 100 {
		t.Fatalf("spend change mismatch: %v", result.Trends.SpendChange)
	}
}

func TestAnalyzeTopPerformersJoinsCampaigns(t *testing.T) {
	campaigns := &fakeCampaignStore{campaigns: []*models.Campaign{
		{CampaignID: "c-1", Name: "Search", Platform: "google"},
		{CampaignID: "c-2", Name: "Social", Platform: "meta"},
	}}
	rows := &fakeMetricStore{rows: []*models.MetricRow{
		metricRow("2026-08-30", "acc-1", "c-1", 100, 500),
		metricRow("2026-08-30", "acc-1", "c-2", 100, 200),
	}}
	svc := newTestInsights(rows, campaigns, &fakeAccountStore{}, &fakeRecommendationStore{})

	result, err := svc.Analyze(helpers.TestCtx(), testWorkspace(), dto.AnalysisArgs{AnalysisType: "top_performers"})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if result.TopPerformers == nil {
		t.Fatal("expected top performers result")
	}
	if result.TopPerformers.Campaigns[0].Name != "Search" {
		t.Fatalf("ranking mismatch: %s", result.TopPerformers.Campaigns[0].Name)
	}
}
