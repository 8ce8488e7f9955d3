package projector

import (
	"time"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

// MapSnapshot deterministically maps the flat REST summary shape into the
// canonical QualityScore and QuickStats. Pure function; given the same
// numbers it yields the same status as the streaming path, because both
// go through models.StatusForScore.
func MapSnapshot(snap *models.SummarySnapshot, now time.Time) (models.QualityScore, models.QuickStats) {
	t := snap.Totals
	change := t.Score - t.PreviousScore
	var changePct float64
	if t.PreviousScore != 0 {
		changePct = change / t.PreviousScore * 100
	}

	updated := snap.GeneratedAt
	if updated.IsZero() {
		updated = now
	}

	score := models.QualityScore{
		Current:       t.Score,
		Previous:      t.PreviousScore,
		Trend:         trendForChange(change),
		Change:        change,
		ChangePercent: changePct,
		LastUpdated:   updated,
		Status:        models.StatusForScore(t.Score),
		Benchmarks: models.Benchmarks{
			Industry: t.IndustryScore,
			YourAvg:  t.AverageScore,
		},
		DimensionScores: snap.Dimensions,
	}

	cov := snap.AssetCoverage
	stats := models.QuickStats{
		Monitoring: models.MonitoringStats{
			DataSources:     cov.DataSources,
			TablesMonitored: cov.TablesMonitored,
			ColumnsProfiled: cov.ColumnsProfiled,
		},
		Activity: models.ActivityStats{
			ScansToday:     t.ScansToday,
			IssuesDetected: t.IssuesDetected,
			IssuesResolved: t.IssuesResolved,
		},
		Rules: models.RuleStats{
			Active:   t.RulesActive,
			Failing:  t.RulesFailing,
			PIIRules: t.PIIRules,
		},
		Health: models.HealthStats{
			UptimePercent:  cov.UptimePercent,
			AvgScanSeconds: cov.AvgScanSeconds,
		},
		LiveMetrics: models.LiveMetrics{
			EventsPerMinute: cov.EventsPerMinute,
			OpenAlerts:      t.OpenAlerts,
		},
	}
	clampStats(&stats)

	return score, stats
}

func trendForChange(change float64) models.Trend {
	switch {
	case change > 0:
		return models.TrendUp
	case change < 0:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}
