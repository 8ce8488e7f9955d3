package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dataplane-labs/quality-sync/internal/insights"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/internal/projector"
)

// Rendering below is pure: it reads a projector.View copy and never
// mutates anything.

func severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityCritical:
		return dangerStyle
	case models.SeverityHigh:
		return warnStyle
	case models.SeverityMedium:
		return infoStyle
	case models.SeverityLow:
		return goodStyle
	case models.SeverityUnknown:
		return faintStyle
	}
	return faintStyle
}

func statusStyle(s models.ScoreStatus) lipgloss.Style {
	switch s {
	case models.ScoreExcellent:
		return goodStyle
	case models.ScoreGood:
		return infoStyle
	case models.ScoreWarning:
		return warnStyle
	case models.ScoreCritical:
		return dangerStyle
	case models.ScoreStatusUnknown:
		return faintStyle
	}
	return faintStyle
}

func trendArrow(t models.Trend) string {
	switch t {
	case models.TrendUp:
		return "▲"
	case models.TrendDown:
		return "▼"
	case models.TrendStable:
		return "─"
	case models.TrendUnknown:
		return "?"
	}
	return "?"
}

func connectionBadge(mode models.ConnectionMode) string {
	switch mode {
	case models.ModeStreaming:
		return goodStyle.Render("● live")
	case models.ModePolling:
		return warnStyle.Render("◌ polling")
	case models.ModeDisconnected:
		return dangerStyle.Render("○ disconnected")
	}
	return faintStyle.Render("○ unknown")
}

func renderScoreCard(score models.QualityScore) string {
	var b strings.Builder

	status := statusStyle(score.Status)
	fmt.Fprintf(&b, "%s %s\n",
		titleStyle.Render(fmt.Sprintf("Quality score %.1f", score.Current)),
		status.Render(string(score.Status)))
	fmt.Fprintf(&b, "%s %+.1f (%+.1f%%) vs previous %.1f\n",
		trendArrow(score.Trend), score.Change, score.ChangePercent, score.Previous)
	fmt.Fprintf(&b, "industry %.1f · your avg %.1f\n",
		score.Benchmarks.Industry, score.Benchmarks.YourAvg)

	if len(score.DimensionScores) > 0 {
		names := make([]string, 0, len(score.DimensionScores))
		for name := range score.DimensionScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %-14s %s %5.1f\n", name,
				dimensionBar(score.DimensionScores[name]), score.DimensionScores[name])
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// dimensionBar renders a 0..100 value as a ten-cell bar.
func dimensionBar(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	filled := int(v / 10)
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func renderQuickStats(stats models.QuickStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render("Quick stats"))
	fmt.Fprintf(&b, "sources %d · tables %d · columns %d\n",
		stats.Monitoring.DataSources, stats.Monitoring.TablesMonitored, stats.Monitoring.ColumnsProfiled)
	fmt.Fprintf(&b, "scans today %d · issues %d found / %d resolved\n",
		stats.Activity.ScansToday, stats.Activity.IssuesDetected, stats.Activity.IssuesResolved)
	fmt.Fprintf(&b, "rules %d active, %d failing · pii rules %d\n",
		stats.Rules.Active, stats.Rules.Failing, stats.Rules.PIIRules)
	fmt.Fprintf(&b, "uptime %.2f%% · avg scan %.1fs · %.0f ev/min · %d open alerts",
		stats.Health.UptimePercent, stats.Health.AvgScanSeconds,
		stats.LiveMetrics.EventsPerMinute, stats.LiveMetrics.OpenAlerts)
	return boxStyle.Render(b.String())
}

func renderAlerts(alerts []models.ActiveAlert, cursor int, filter string) string {
	var b strings.Builder
	title := "Active alerts"
	if filter != "" {
		title += " · filter: " + filter
	}
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(title))

	if len(alerts) == 0 {
		b.WriteString(faintStyle.Render("no active alerts"))
		return boxStyle.Render(b.String())
	}

	for i, a := range alerts {
		line := fmt.Sprintf("%s %-8s %s (%s)",
			severityStyle(a.Severity).Render("●"), a.Severity, a.Title, a.Table)
		if i == cursor {
			line = selectedStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < len(alerts)-1 {
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(b.String())
}

func renderPredictions(preds []models.MLPrediction) string {
	if len(preds) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render("Forecasts"))
	for i, p := range preds {
		last := "n/a"
		if n := len(p.Points); n > 0 {
			pt := p.Points[n-1]
			last = fmt.Sprintf("%.1f [%.1f..%.1f]", pt.Value, pt.Lower, pt.Upper)
		}
		fmt.Fprintf(&b, "%s/%s → %s (%s)", p.Table, p.Metric, last, p.Model)
		if i < len(preds)-1 {
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(b.String())
}

func renderError(msg string) string {
	if msg == "" {
		return ""
	}
	return errorStyle.Render("✗ "+msg) + faintStyle.Render("  (x dismiss, refresh retries on next poll)")
}

func renderHeader(scope string, view projector.View) string {
	return fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("quality-sync"),
		headerStyle.Render(scope),
		connectionBadge(view.Connection.Mode))
}

func renderFooter(detail bool) string {
	if detail {
		return footerStyle.Render("s save csv · esc back · q quit")
	}
	return footerStyle.Render("↑/↓ select · enter detail · / filter · a apply fix · p forecast · x dismiss · q quit")
}

func priorityStyle(p insights.Priority) lipgloss.Style {
	switch p {
	case insights.PriorityHigh:
		return dangerStyle
	case insights.PriorityMedium:
		return warnStyle
	case insights.PriorityLow:
		return infoStyle
	default:
		return faintStyle
	}
}

func columnFlags(c models.Column) string {
	var flags []string
	if c.IsPrimaryKey {
		flags = append(flags, "pk")
	}
	if c.IsForeignKey {
		flags = append(flags, "fk")
	}
	if c.IsPII {
		if c.IsEncrypted {
			flags = append(flags, "pii+enc")
		} else {
			flags = append(flags, "pii")
		}
	}
	return strings.Join(flags, ",")
}

func renderDetail(d *assetDetail) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.asset.QualifiedName) + faintStyle.Render("  "+d.asset.AssetType) + "\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s %-14s %7s %8s  %s", "column", "type", "null%", "unique%", "flags")) + "\n")
	for _, c := range d.asset.Columns {
		line := fmt.Sprintf("%-24s %-14s %7.1f %8.1f  %s",
			c.Name, c.DataType, c.NullPercentage, c.UniquePercentage, columnFlags(c))
		if len(c.QualityIssues) > 0 {
			line = warnStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if len(d.insights) > 0 {
		b.WriteString("\n" + headerStyle.Render("insights") + "\n")
		for _, in := range d.insights {
			b.WriteString(priorityStyle(in.Priority).Render("▪ "+in.Title) + "  " + faintStyle.Render(in.Description) + "\n")
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
