package models

// Closed enum types for the string unions the backend sends. Every enum
// carries an explicit Unknown variant so a server-sent value this client
// does not know yet degrades gracefully instead of breaking rendering.

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	}
	return SeverityUnknown
}

// Rank orders severities for sorting, lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

type ScoreStatus string

const (
	ScoreExcellent     ScoreStatus = "excellent"
	ScoreGood          ScoreStatus = "good"
	ScoreWarning       ScoreStatus = "warning"
	ScoreCritical      ScoreStatus = "critical"
	ScoreStatusUnknown ScoreStatus = "unknown"
)

func ParseScoreStatus(s string) ScoreStatus {
	switch ScoreStatus(s) {
	case ScoreExcellent, ScoreGood, ScoreWarning, ScoreCritical:
		return ScoreStatus(s)
	}
	return ScoreStatusUnknown
}

// StatusForScore buckets a 0..100 quality score. This is the single
// bucketing function for both the streamed and the polled data paths;
// the two must never diverge on thresholds.
func StatusForScore(score float64) ScoreStatus {
	switch {
	case score >= 90:
		return ScoreExcellent
	case score >= 70:
		return ScoreGood
	case score >= 50:
		return ScoreWarning
	default:
		return ScoreCritical
	}
}

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendStable  Trend = "stable"
	TrendUnknown Trend = "unknown"
)

func ParseTrend(s string) Trend {
	switch Trend(s) {
	case TrendUp, TrendDown, TrendStable:
		return Trend(s)
	}
	return TrendUnknown
}

// AlertTrend describes whether an active alert is getting worse.
type AlertTrend string

const (
	AlertWorsening    AlertTrend = "worsening"
	AlertImproving    AlertTrend = "improving"
	AlertStable       AlertTrend = "stable"
	AlertTrendUnknown AlertTrend = "unknown"
)

func ParseAlertTrend(s string) AlertTrend {
	switch AlertTrend(s) {
	case AlertWorsening, AlertImproving, AlertStable:
		return AlertTrend(s)
	}
	return AlertTrendUnknown
}

type IssueType string

const (
	IssueNullValues     IssueType = "null_values"
	IssueDuplicates     IssueType = "duplicate_values"
	IssueInvalidFormat  IssueType = "invalid_format"
	IssuePIIUnencrypted IssueType = "pii_unencrypted"
	IssueOutliers       IssueType = "outlier_values"
	IssueUnknown        IssueType = "unknown"
)

func ParseIssueType(s string) IssueType {
	switch IssueType(s) {
	case IssueNullValues, IssueDuplicates, IssueInvalidFormat, IssuePIIUnencrypted, IssueOutliers:
		return IssueType(s)
	}
	return IssueUnknown
}

// ConnectionMode is which transport currently feeds the view model.
type ConnectionMode string

const (
	ModeStreaming    ConnectionMode = "streaming"
	ModePolling      ConnectionMode = "polling"
	ModeDisconnected ConnectionMode = "disconnected"
)

// CriticalityBand groups alerts/issues by numeric criticality score for
// display only.
type CriticalityBand string

const (
	BandHighest       CriticalityBand = "highest"
	BandCritical      CriticalityBand = "critical"
	BandMedium        CriticalityBand = "medium"
	BandLow           CriticalityBand = "low"
	BandInformational CriticalityBand = "informational"
)

func BandForCriticality(score float64) CriticalityBand {
	switch {
	case score >= 80:
		return BandHighest
	case score >= 60:
		return BandCritical
	case score >= 40:
		return BandMedium
	case score >= 25:
		return BandLow
	default:
		return BandInformational
	}
}
