package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
)

// Analysis thresholds. "Active" means spend > 0 over the lookback window;
// zero-spend campaigns are excluded from every analysis.
const (
	topPerformerLimit      = 5
	underperformerFactor   = 0.5 // roas below half the average
	underperformerMinSpend = 100.0
	savingsFactor          = 0.5
	underutilizedBelow     = 0.7
	overutilizedAbove      = 1.2
	utilizationListLimit   = 3
	anomalyStdDevs         = 2.0
)

func activeCampaigns(campaigns []dto.CampaignPerformance) []dto.CampaignPerformance {
	active := make([]dto.CampaignPerformance, 0, len(campaigns))
	for _, c := range campaigns {
		if c.Metrics.Spend > 0 {
			active = append(active, c)
		}
	}
	return active
}

func campaignMetricValue(c dto.CampaignPerformance, metric string) float64 {
	switch metric {
	case "roas":
		return c.Metrics.ROAS()
	case "ctr":
		return c.Metrics.CTR()
	case "cpc":
		return c.Metrics.CPC()
	case "cpa":
		return c.Metrics.CPA()
	case "spend":
		return c.Metrics.Spend
	case "revenue":
		return c.Metrics.Revenue
	case "conversions":
		return float64(c.Metrics.Conversions)
	case "impressions":
		return float64(c.Metrics.Impressions)
	case "clicks":
		return float64(c.Metrics.Clicks)
	default:
		return c.Metrics.ROAS()
	}
}

func analyzeTopPerformers(campaigns []dto.CampaignPerformance, metric string) *dto.TopPerformersResult {
	if metric == "" {
		metric = "roas"
	}
	active := activeCampaigns(campaigns)
	sort.SliceStable(active, func(i, j int) bool {
		return campaignMetricValue(active[i], metric) > campaignMetricValue(active[j], metric)
	})
	if len(active) > topPerformerLimit {
		active = active[:topPerformerLimit]
	}

	out := &dto.TopPerformersResult{Metric: metric, Campaigns: make([]dto.TopPerformer, 0, len(active))}
	for _, c := range active {
		out.Campaigns = append(out.Campaigns, dto.TopPerformer{
			Name:        c.Name,
			Platform:    c.Platform,
			Value:       dto.Round2(campaignMetricValue(c, metric)),
			Spend:       dto.Round2(c.Metrics.Spend),
			Conversions: c.Metrics.Conversions,
		})
	}
	return out
}

func analyzeUnderperformers(campaigns []dto.CampaignPerformance) *dto.UnderperformersResult {
	active := activeCampaigns(campaigns)

	var roasSum float64
	for _, c := range active {
		roasSum += c.Metrics.ROAS()
	}
	avgROAS := dto.SafeDiv(roasSum, float64(len(active)))

	var flagged []dto.CampaignPerformance
	for _, c := range active {
		if c.Metrics.ROAS() < avgROAS*underperformerFactor && c.Metrics.Spend > underperformerMinSpend {
			flagged = append(flagged, c)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].Metrics.ROAS() < flagged[j].Metrics.ROAS()
	})

	out := &dto.UnderperformersResult{
		Count:       len(flagged),
		AverageROAS: dto.Round2(avgROAS),
		Campaigns:   make([]dto.Underperformer, 0, len(flagged)),
	}
	var wasted float64
	for _, c := range flagged {
		savings := c.Metrics.Spend * savingsFactor
		wasted += savings
		out.Campaigns = append(out.Campaigns, dto.Underperformer{
			Name:             c.Name,
			Platform:         c.Platform,
			ROAS:             dto.Round2(c.Metrics.ROAS()),
			Spend:            dto.Round2(c.Metrics.Spend),
			PotentialSavings: dto.Round2(savings),
		})
	}
	out.TotalWastedSpend = dto.Round2(wasted)
	return out
}

func analyzeBudgetEfficiency(campaigns []dto.CampaignPerformance) *dto.BudgetEfficiencyResult {
	out := &dto.BudgetEfficiencyResult{
		Underutilized: []dto.BudgetUtilization{},
		Overutilized:  []dto.BudgetUtilization{},
	}
	for _, c := range activeCampaigns(campaigns) {
		if c.Budget <= 0 {
			continue
		}
		efficiency := c.Metrics.Spend / c.Budget
		entry := dto.BudgetUtilization{
			Name:           c.Name,
			Budget:         dto.Round2(c.Budget),
			Spend:          dto.Round2(c.Metrics.Spend),
			UtilizationPct: int(math.Round(efficiency * 100)),
		}
		switch {
		case efficiency < underutilizedBelow && len(out.Underutilized) < utilizationListLimit:
			out.Underutilized = append(out.Underutilized, entry)
		case efficiency > overutilizedAbove && len(out.Overutilized) < utilizationListLimit:
			out.Overutilized = append(out.Overutilized, entry)
		}
	}
	return out
}

// analyzeTrends splits the daily window chronologically into equal halves
// (integer floor; an odd window's middle day belongs to neither half) and
// compares totals between them.
func analyzeTrends(daily []dto.DailyMetrics) *dto.TrendsResult {
	half := len(daily) / 2
	first := daily[:half]
	second := daily[len(daily)-half:]

	var firstSpend, secondSpend, firstRevenue, secondRevenue float64
	for _, d := range first {
		firstSpend += d.Metrics.Spend
		firstRevenue += d.Metrics.Revenue
	}
	for _, d := range second {
		secondSpend += d.Metrics.Spend
		secondRevenue += d.Metrics.Revenue
	}

	spendChange := dto.Round1(percentChange(firstSpend, secondSpend))
	revenueChange := dto.Round1(percentChange(firstRevenue, secondRevenue))

	insight := "Spend is outpacing revenue growth - review campaign efficiency."
	if revenueChange > spendChange {
		insight = "Revenue is growing faster than spend - efficiency is improving."
	}

	return &dto.TrendsResult{
		Days:             len(daily),
		SpendChange:      spendChange,
		RevenueChange:    revenueChange,
		SpendDirection:   direction(spendChange),
		RevenueDirection: direction(revenueChange),
		Insight:          insight,
	}
}

func analyzeAnomalies(campaigns []dto.CampaignPerformance) *dto.AnomaliesResult {
	active := activeCampaigns(campaigns)

	var sum float64
	for _, c := range active {
		sum += c.Metrics.ROAS()
	}
	mean := dto.SafeDiv(sum, float64(len(active)))

	var variance float64
	for _, c := range active {
		d := c.Metrics.ROAS() - mean
		variance += d * d
	}
	stddev := math.Sqrt(dto.SafeDiv(variance, float64(len(active))))

	out := &dto.AnomaliesResult{
		MeanROAS:  dto.Round2(mean),
		StdDev:    dto.Round2(stddev),
		Anomalies: []dto.Anomaly{},
	}
	// All-equal roas means stddev 0; nothing is anomalous then.
	if stddev == 0 {
		return out
	}
	for _, c := range active {
		roas := c.Metrics.ROAS()
		if math.Abs(roas-mean) <= anomalyStdDevs*stddev {
			continue
		}
		kind := "underperformer"
		if roas > mean {
			kind = "outperformer"
		}
		out.Anomalies = append(out.Anomalies, dto.Anomaly{
			Name:      c.Name,
			Platform:  c.Platform,
			ROAS:      dto.Round2(roas),
			Deviation: dto.Round1(math.Abs(roas-mean) / stddev),
			Type:      kind,
		})
	}
	return out
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}

func direction(change float64) string {
	if change > 0 {
		return "increasing"
	}
	return "decreasing"
}

func runAnalysis(kind, metric string, campaigns []dto.CampaignPerformance, daily []dto.DailyMetrics) (dto.AnalysisResult, error) {
	result := dto.AnalysisResult{AnalysisType: kind}
	switch kind {
	case "top_performers":
		result.TopPerformers = analyzeTopPerformers(campaigns, metric)
	case "underperformers":
		result.Underperformers = analyzeUnderperformers(campaigns)
	case "budget_efficiency":
		result.BudgetEfficiency = analyzeBudgetEfficiency(campaigns)
	case "trends":
		result.Trends = analyzeTrends(daily)
	case "anomalies":
		result.Anomalies = analyzeAnomalies(campaigns)
	default:
		return result, errs.NewValidationError(fmt.Sprintf("unknown analysis type: %s", kind))
	}
	return result, nil
}
