package dto

import "math"

// MetricAggregate holds raw summed counters for a scope and date range.
// Ratios (ROAS, CTR, CPC, CPA) are never stored; they are recomputed from the
// raw sums on every read so the two can never drift apart.
type MetricAggregate struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

func (a MetricAggregate) Add(b MetricAggregate) MetricAggregate {
	return MetricAggregate{
		Impressions: a.Impressions + b.Impressions,
		Clicks:      a.Clicks + b.Clicks,
		Spend:       a.Spend + b.Spend,
		Conversions: a.Conversions + b.Conversions,
		Revenue:     a.Revenue + b.Revenue,
	}
}

// ROAS is revenue per unit of spend. Zero spend yields 0, never NaN.
func (a MetricAggregate) ROAS() float64 {
	return SafeDiv(a.Revenue, a.Spend)
}

// CTR is the click-through rate as a percentage of impressions.
func (a MetricAggregate) CTR() float64 {
	return SafeDiv(float64(a.Clicks), float64(a.Impressions)) * 100
}

// CPC is cost per click.
func (a MetricAggregate) CPC() float64 {
	return SafeDiv(a.Spend, float64(a.Clicks))
}

// CPA is cost per conversion.
func (a MetricAggregate) CPA() float64 {
	return SafeDiv(a.Spend, float64(a.Conversions))
}

// Summary returns the wire shape: raw counters plus derived ratios rounded
// to two decimals.
func (a MetricAggregate) Summary() MetricSummary {
	return MetricSummary{
		Impressions: a.Impressions,
		Clicks:      a.Clicks,
		Spend:       Round2(a.Spend),
		Conversions: a.Conversions,
		Revenue:     Round2(a.Revenue),
		ROAS:        Round2(a.ROAS()),
		CTR:         Round2(a.CTR()),
		CPC:         Round2(a.CPC()),
		CPA:         Round2(a.CPA()),
	}
}

// MetricSummary is an aggregate with its derived ratios attached, as returned
// to the model and to API callers.
type MetricSummary struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	ROAS        float64 `json:"roas"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	CPA         float64 `json:"cpa"`
}

// DailyMetrics is one day of aggregates within a breakdown.
type DailyMetrics struct {
	Date    string          `json:"date"` // YYYY-MM-DD
	Metrics MetricAggregate `json:"metrics"`
}

// CampaignPerformance is the pre-fetched per-campaign input to the analysis
// engine: identity plus the aggregate over the lookback window.
type CampaignPerformance struct {
	CampaignID string          `json:"campaignId"`
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Platform   string          `json:"platform"`
	Budget     float64         `json:"budget"`
	Metrics    MetricAggregate `json:"metrics"`
}

// SafeDiv divides a by b, defining division by zero as 0 so every downstream
// computation stays total.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
