package models

import "time"

// QualityScore is the headline score panel record. Streamed
// quality:update events carry this shape verbatim; REST snapshots are
// mapped into it by the projector.
type QualityScore struct {
	Current         float64            `json:"current"`
	Previous        float64            `json:"previous"`
	Trend           Trend              `json:"trend"`
	Change          float64            `json:"change"`
	ChangePercent   float64            `json:"changePercent"`
	LastUpdated     time.Time          `json:"lastUpdated"`
	Status          ScoreStatus        `json:"status"`
	Benchmarks      Benchmarks         `json:"benchmarks"`
	DimensionScores map[string]float64 `json:"dimensionScores"`
}

type Benchmarks struct {
	Industry float64 `json:"industry"`
	YourAvg  float64 `json:"yourAvg"`
}

// QuickStats feeds the small counter tiles. All counts are non-negative.
type QuickStats struct {
	Monitoring  MonitoringStats `json:"monitoring"`
	Activity    ActivityStats   `json:"activity"`
	Rules       RuleStats       `json:"rules"`
	Health      HealthStats     `json:"health"`
	LiveMetrics LiveMetrics     `json:"liveMetrics"`
}

type MonitoringStats struct {
	DataSources     int `json:"dataSources"`
	TablesMonitored int `json:"tablesMonitored"`
	ColumnsProfiled int `json:"columnsProfiled"`
}

type ActivityStats struct {
	ScansToday     int `json:"scansToday"`
	IssuesDetected int `json:"issuesDetected"`
	IssuesResolved int `json:"issuesResolved"`
}

type RuleStats struct {
	Active   int `json:"active"`
	Failing  int `json:"failing"`
	PIIRules int `json:"piiRules"`
}

type HealthStats struct {
	UptimePercent  float64 `json:"uptimePercent"`
	AvgScanSeconds float64 `json:"avgScanSeconds"`
}

type LiveMetrics struct {
	EventsPerMinute float64 `json:"eventsPerMinute"`
	OpenAlerts      int     `json:"openAlerts"`
}

// SummarySnapshot is the flatter REST shape from
// GET /api/quality/summary. The projector maps it into
// QualityScore/QuickStats deterministically.
type SummarySnapshot struct {
	Totals        SummaryTotals      `json:"totals"`
	Dimensions    map[string]float64 `json:"dimensions"`
	AssetCoverage AssetCoverage      `json:"assetCoverage"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}

type SummaryTotals struct {
	Score          float64 `json:"score"`
	PreviousScore  float64 `json:"previousScore"`
	IndustryScore  float64 `json:"industryScore"`
	AverageScore   float64 `json:"averageScore"`
	OpenAlerts     int     `json:"openAlerts"`
	ScansToday     int     `json:"scansToday"`
	IssuesDetected int     `json:"issuesDetected"`
	IssuesResolved int     `json:"issuesResolved"`
	RulesActive    int     `json:"rulesActive"`
	RulesFailing   int     `json:"rulesFailing"`
	PIIRules       int     `json:"piiRules"`
}

type AssetCoverage struct {
	DataSources     int     `json:"dataSources"`
	TablesMonitored int     `json:"tablesMonitored"`
	ColumnsProfiled int     `json:"columnsProfiled"`
	UptimePercent   float64 `json:"uptimePercent"`
	AvgScanSeconds  float64 `json:"avgScanSeconds"`
	EventsPerMinute float64 `json:"eventsPerMinute"`
}

// ConnectionState drives which data path is authoritative for the view.
type ConnectionState struct {
	Mode        ConnectionMode `json:"mode"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// BusinessMetrics backs the business-impact cards.
type BusinessMetrics struct {
	RevenueAtRisk   float64  `json:"revenueAtRisk"`
	AffectedUsers   int      `json:"affectedUsers"`
	SLAViolations   []string `json:"slaViolations"`
	QualityDebtDays float64  `json:"qualityDebtDays"`
	Trend           Trend    `json:"trend"`
}
