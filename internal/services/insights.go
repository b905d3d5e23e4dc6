package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/internal/store"
)

const (
	dateLayout          = "2006-01-02"
	defaultLookbackDays = 30
	campaignListLimit   = 10
	recommendationLimit = 10
)

type metricRowStore interface {
	Query(ctx context.Context, workspaceID string, q store.MetricQuery) (<-chan *models.MetricRow, <-chan error)
}

type campaignReadStore interface {
	List(ctx context.Context, workspaceID string, q store.CampaignQuery) ([]*models.Campaign, error)
}

type accountReadStore interface {
	List(ctx context.Context, workspaceID string) ([]*models.Account, error)
}

type recommendationReadStore interface {
	List(ctx context.Context, workspaceID string, q store.RecommendationQuery) ([]models.Recommendation, error)
}

// insightsService is the read-only analytics capability behind the agent's
// tools and the campaign/recommendation endpoints. It never mutates business
// entities.
type insightsService struct {
	rows      metricRowStore
	campaigns campaignReadStore
	accounts  accountReadStore
	recs      recommendationReadStore
	clockNow  func() time.Time
}

func NewInsightsService(rows metricRowStore, campaigns campaignReadStore, accounts accountReadStore, recs recommendationReadStore) *insightsService {
	return &insightsService{
		rows:      rows,
		campaigns: campaigns,
		accounts:  accounts,
		recs:      recs,
		clockNow:  time.Now,
	}
}

func (s *insightsService) GetMetrics(ctx context.Context, wc dto.WorkspaceContext, args dto.MetricsArgs) (dto.MetricsResult, error) {
	accounts, err := s.accounts.List(ctx, wc.WorkspaceID)
	if err != nil {
		return dto.MetricsResult{}, err
	}
	if len(accounts) == 0 {
		return dto.MetricsResult{
			NoAccounts: true,
			Message:    "No ad accounts are connected to this workspace yet. Connect an account to see performance data.",
		}, nil
	}

	from, to, err := s.resolveDateRange(args.DateRange, args.StartDate, args.EndDate)
	if err != nil {
		return dto.MetricsResult{}, err
	}

	accountIDs := args.AccountIDs
	if len(accountIDs) == 0 {
		for _, a := range accounts {
			accountIDs = append(accountIDs, a.AccountID)
		}
	}

	var campaignKeys map[string]string
	switch args.GroupBy {
	case "", "day", "week", "month":
	case "campaign", "platform":
		campaignKeys, err = s.campaignKeyMap(ctx, wc.WorkspaceID, args.GroupBy)
		if err != nil {
			return dto.MetricsResult{}, err
		}
	default:
		return dto.MetricsResult{}, errs.NewValidationError(fmt.Sprintf("unsupported groupBy: %s", args.GroupBy))
	}

	rowCh, errCh := s.rows.Query(ctx, wc.WorkspaceID, store.MetricQuery{
		DateFrom:   from.Format(dateLayout),
		DateTo:     to.Format(dateLayout),
		AccountIDs: accountIDs,
	})

	var total dto.MetricAggregate
	buckets := map[string]*dto.MetricAggregate{}
	if err := streamMetricRows(rowCh, errCh, func(row *models.MetricRow) error {
		agg := rowAggregate(row)
		total = total.Add(agg)
		if args.GroupBy == "" {
			return nil
		}
		key := breakdownKey(row, args.GroupBy, campaignKeys)
		if key == "" {
			return nil
		}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &dto.MetricAggregate{}
			buckets[key] = bucket
		}
		*bucket = bucket.Add(agg)
		return nil
	}); err != nil {
		return dto.MetricsResult{}, err
	}

	summary := total.Summary()
	result := dto.MetricsResult{
		DateRange: args.DateRange,
		From:      from.Format(dateLayout),
		To:        to.Format(dateLayout),
		Metrics:   &summary,
		GroupBy:   args.GroupBy,
	}
	if args.GroupBy != "" {
		result.Breakdown = sortedBreakdown(buckets)
	}
	return result, nil
}

func (s *insightsService) GetCampaigns(ctx context.Context, wc dto.WorkspaceContext, args dto.CampaignsArgs) (dto.CampaignsResult, error) {
	performance, err := s.campaignPerformance(ctx, wc.WorkspaceID, store.CampaignQuery{
		Status:   args.Status,
		Platform: args.Platform,
	}, defaultLookbackDays)
	if err != nil {
		return dto.CampaignsResult{}, err
	}

	sortBy := args.SortBy
	if sortBy == "" {
		sortBy = "spend"
	}
	switch sortBy {
	case "spend", "conversions", "roas", "cpa", "impressions":
	default:
		return dto.CampaignsResult{}, errs.NewValidationError(fmt.Sprintf("unsupported sortBy: %s", sortBy))
	}
	sort.SliceStable(performance, func(i, j int) bool {
		return campaignMetricValue(performance[i], sortBy) > campaignMetricValue(performance[j], sortBy)
	})

	limit := args.Limit
	if limit <= 0 {
		limit = campaignListLimit
	}
	total := len(performance)
	truncated := total > limit
	if truncated {
		performance = performance[:limit]
	}

	out := dto.CampaignsResult{
		Campaigns: make([]dto.CampaignMetrics, 0, len(performance)),
		Total:     total,
		Truncated: truncated,
	}
	for _, p := range performance {
		out.Campaigns = append(out.Campaigns, dto.CampaignMetrics{
			CampaignID: p.CampaignID,
			Name:       p.Name,
			Status:     p.Status,
			Platform:   p.Platform,
			Budget:     p.Budget,
			Metrics:    p.Metrics.Summary(),
		})
	}
	return out, nil
}

func (s *insightsService) GetRecommendations(ctx context.Context, wc dto.WorkspaceContext, args dto.RecommendationsArgs) (dto.RecommendationsResult, error) {
	status := args.Status
	if status == "" {
		status = models.RecommendationStatusPending
	}
	if status == "all" {
		status = ""
	}

	recs, err := s.recs.List(ctx, wc.WorkspaceID, store.RecommendationQuery{
		Status:   status,
		Priority: args.Priority,
		Type:     args.Type,
	})
	if err != nil {
		return dto.RecommendationsResult{}, err
	}

	// CRITICAL first, then most recent.
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := priorityRank(recs[i].Priority), priorityRank(recs[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	summary := dto.RecommendationSummary{
		ByPriority: map[string]int{},
		ByStatus:   map[string]int{},
	}
	for _, r := range recs {
		summary.ByPriority[r.Priority]++
		summary.ByStatus[r.Status]++
	}

	limit := args.Limit
	if limit <= 0 {
		limit = recommendationLimit
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}

	// Impact is summed over the returned set only, after filter and limit.
	var impact float64
	for _, r := range recs {
		impact += r.ImpactValue
	}

	return dto.RecommendationsResult{
		Recommendations:      recs,
		Summary:              summary,
		TotalEstimatedImpact: dto.Round2(impact),
	}, nil
}

func (s *insightsService) Analyze(ctx context.Context, wc dto.WorkspaceContext, args dto.AnalysisArgs) (dto.AnalysisResult, error) {
	lookback := args.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}

	var (
		campaigns []dto.CampaignPerformance
		daily     []dto.DailyMetrics
		err       error
	)
	if args.AnalysisType == "trends" {
		daily, err = s.dailyBreakdown(ctx, wc.WorkspaceID, lookback)
	} else {
		campaigns, err = s.campaignPerformance(ctx, wc.WorkspaceID, store.CampaignQuery{}, lookback)
	}
	if err != nil {
		return dto.AnalysisResult{}, err
	}

	return runAnalysis(args.AnalysisType, args.Metric, campaigns, daily)
}

// campaignPerformance joins the campaign catalog with aggregated metric rows
// over the trailing lookback window.
func (s *insightsService) campaignPerformance(ctx context.Context, workspaceID string, q store.CampaignQuery, lookbackDays int) ([]dto.CampaignPerformance, error) {
	campaigns, err := s.campaigns.List(ctx, workspaceID, q)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	from, to := s.trailingWindow(lookbackDays)
	rowCh, errCh := s.rows.Query(ctx, workspaceID, store.MetricQuery{
		DateFrom: from.Format(dateLayout),
		DateTo:   to.Format(dateLayout),
	})

	byCampaign := map[string]dto.MetricAggregate{}
	if err := streamMetricRows(rowCh, errCh, func(row *models.MetricRow) error {
		byCampaign[row.CampaignID] = byCampaign[row.CampaignID].Add(rowAggregate(row))
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]dto.CampaignPerformance, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, dto.CampaignPerformance{
			CampaignID: c.CampaignID,
			Name:       c.Name,
			Status:     c.Status,
			Platform:   c.Platform,
			Budget:     c.Budget,
			Metrics:    byCampaign[c.CampaignID],
		})
	}
	return out, nil
}

func (s *insightsService) dailyBreakdown(ctx context.Context, workspaceID string, lookbackDays int) ([]dto.DailyMetrics, error) {
	from, to := s.trailingWindow(lookbackDays)
	rowCh, errCh := s.rows.Query(ctx, workspaceID, store.MetricQuery{
		DateFrom: from.Format(dateLayout),
		DateTo:   to.Format(dateLayout),
	})

	byDate := map[string]dto.MetricAggregate{}
	if err := streamMetricRows(rowCh, errCh, func(row *models.MetricRow) error {
		byDate[row.Date] = byDate[row.Date].Add(rowAggregate(row))
		return nil
	}); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]dto.DailyMetrics, 0, len(dates))
	for _, d := range dates {
		out = append(out, dto.DailyMetrics{Date: d, Metrics: byDate[d]})
	}
	return out, nil
}

func (s *insightsService) resolveDateRange(dateRange, startDate, endDate string) (time.Time, time.Time, error) {
	now := s.clockNow()
	switch dateRange {
	case "7d":
		return now.AddDate(0, 0, -6), now, nil
	case "", "30d":
		return now.AddDate(0, 0, -29), now, nil
	case "90d":
		return now.AddDate(0, 0, -89), now, nil
	case "custom":
		if startDate == "" || endDate == "" {
			// Custom without explicit dates falls back to the last 30 days.
			return now.AddDate(0, 0, -29), now, nil
		}
		from, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, errs.NewValidationError(fmt.Sprintf("invalid startDate: %s", startDate))
		}
		to, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, errs.NewValidationError(fmt.Sprintf("invalid endDate: %s", endDate))
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, errs.NewValidationError("endDate is before startDate")
		}
		return from, to, nil
	default:
		return time.Time{}, time.Time{}, errs.NewValidationError(fmt.Sprintf("unsupported dateRange: %s", dateRange))
	}
}

func (s *insightsService) trailingWindow(days int) (time.Time, time.Time) {
	now := s.clockNow()
	return now.AddDate(0, 0, -(days - 1)), now
}

func (s *insightsService) campaignKeyMap(ctx context.Context, workspaceID, groupBy string) (map[string]string, error) {
	campaigns, err := s.campaigns.List(ctx, workspaceID, store.CampaignQuery{})
	if err != nil {
		return nil, err
	}
	keys := make(map[string]string, len(campaigns))
	for _, c := range campaigns {
		if groupBy == "platform" {
			keys[c.CampaignID] = c.Platform
		} else {
			keys[c.CampaignID] = c.Name
		}
	}
	return keys, nil
}

func rowAggregate(row *models.MetricRow) dto.MetricAggregate {
	return dto.MetricAggregate{
		Impressions: row.Impressions,
		Clicks:      row.Clicks,
		Spend:       row.Spend,
		Conversions: row.Conversions,
		Revenue:     row.Revenue,
	}
}

func breakdownKey(row *models.MetricRow, groupBy string, campaignKeys map[string]string) string {
	switch groupBy {
	case "day":
		return row.Date
	case "week":
		return weekKey(row.Date)
	case "month":
		if len(row.Date) >= 7 {
			return row.Date[:7]
		}
		return row.Date
	case "campaign", "platform":
		return campaignKeys[row.CampaignID]
	default:
		return ""
	}
}

// weekKey buckets a date by the Monday of its week.
func weekKey(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(dateLayout)
}

func sortedBreakdown(buckets map[string]*dto.MetricAggregate) []dto.BreakdownItem {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]dto.BreakdownItem, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.BreakdownItem{Key: k, Metrics: buckets[k].Summary()})
	}
	return out
}

func priorityRank(priority string) int {
	switch priority {
	case models.PriorityCritical:
		return 0
	case models.PriorityHigh:
		return 1
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 3
	default:
		return 4
	}
}

func streamMetricRows(rowCh <-chan *models.MetricRow, errCh <-chan error, handle func(*models.MetricRow) error) error {
	for rowCh != nil || errCh != nil {
		select {
		case row, ok := <-rowCh:
			if !ok {
				rowCh = nil
				continue
			}
			if err := handle(row); err != nil {
				return err
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
