package dto

// AnalysisResult is a tagged variant keyed by AnalysisType; exactly one of
// the kind-specific fields is populated. It is returned to the model and
// never persisted.
type AnalysisResult struct {
	AnalysisType     string                  `json:"analysisType"`
	TopPerformers    *TopPerformersResult    `json:"topPerformers,omitempty"`
	Underperformers  *UnderperformersResult  `json:"underperformers,omitempty"`
	BudgetEfficiency *BudgetEfficiencyResult `json:"budgetEfficiency,omitempty"`
	Trends           *TrendsResult           `json:"trends,omitempty"`
	Anomalies        *AnomaliesResult        `json:"anomalies,omitempty"`
}

type TopPerformersResult struct {
	Metric    string         `json:"metric"`
	Campaigns []TopPerformer `json:"campaigns"`
}

type TopPerformer struct {
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	Value       float64 `json:"value"` // the requested metric, rounded to 2 decimals
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
}

type UnderperformersResult struct {
	Count            int              `json:"count"`
	AverageROAS      float64          `json:"averageRoas"`
	Campaigns        []Underperformer `json:"campaigns"`
	TotalWastedSpend float64          `json:"totalWastedSpend"`
}

type Underperformer struct {
	Name             string  `json:"name"`
	Platform         string  `json:"platform"`
	ROAS             float64 `json:"roas"`
	Spend            float64 `json:"spend"`
	PotentialSavings float64 `json:"potentialSavings"`
}

type BudgetEfficiencyResult struct {
	Underutilized []BudgetUtilization `json:"underutilized"`
	Overutilized  []BudgetUtilization `json:"overutilized"`
}

type BudgetUtilization struct {
	Name           string  `json:"name"`
	Budget         float64 `json:"budget"`
	Spend          float64 `json:"spend"`
	UtilizationPct int     `json:"utilizationPct"`
}

type TrendsResult struct {
	Days             int     `json:"days"`
	SpendChange      float64 `json:"spendChange"`   // percent, 1 decimal
	RevenueChange    float64 `json:"revenueChange"` // percent, 1 decimal
	SpendDirection   string  `json:"spendDirection"`
	RevenueDirection string  `json:"revenueDirection"`
	Insight          string  `json:"insight"`
}

type AnomaliesResult struct {
	MeanROAS  float64   `json:"meanRoas"`
	StdDev    float64   `json:"stdDev"`
	Anomalies []Anomaly `json:"anomalies"`
}

type Anomaly struct {
	Name      string  `json:"name"`
	Platform  string  `json:"platform"`
	ROAS      float64 `json:"roas"`
	Deviation float64 `json:"deviation"` // in stddev units, 1 decimal
	Type      string  `json:"type"`      // outperformer|underperformer
}
