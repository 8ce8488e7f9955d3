package insights

import (
	"sort"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

// InsightType classifies what kind of action an insight suggests.
type InsightType string

const (
	TypeWarning        InsightType = "warning"
	TypeOpportunity    InsightType = "opportunity"
	TypeRecommendation InsightType = "recommendation"
)

// Priority orders insights in the panel.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Insight is one derived finding about an asset's column profiles.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	Column      string      `json:"column,omitempty"`
}

// Generate derives prioritized insights from an asset's column
// profiles. Pure: same asset in, same insights out. The result is
// sorted high before medium before low, stable within a priority.
func Generate(asset models.Asset) []Insight {
	var out []Insight

	hasPrimaryKey := false
	hasForeignKey := false

	for _, col := range asset.Columns {
		if col.IsPrimaryKey {
			hasPrimaryKey = true
		}
		if col.IsForeignKey {
			hasForeignKey = true
		}

		if col.NullPercentage > 30 {
			out = append(out, Insight{
				Type:        TypeWarning,
				Title:       "High null rate in " + col.Name,
				Description: "Column " + col.Name + " is null in more than 30% of rows. Consider a default value or a NOT NULL constraint after backfill.",
				Priority:    PriorityMedium,
				Column:      col.Name,
			})
		}

		if col.UniquePercentage > 90 && !col.IsPrimaryKey {
			out = append(out, Insight{
				Type:        TypeOpportunity,
				Title:       "Near-unique column " + col.Name,
				Description: "Column " + col.Name + " is over 90% unique but not a primary key. It may be a natural key candidate.",
				Priority:    PriorityLow,
				Column:      col.Name,
			})
		}

		if col.IsPII && !col.IsEncrypted {
			out = append(out, Insight{
				Type:        TypeWarning,
				Title:       "Unencrypted PII in " + col.Name,
				Description: "Column " + col.Name + " holds PII but is stored unencrypted.",
				Priority:    PriorityHigh,
				Column:      col.Name,
			})
		}

		for _, issue := range col.QualityIssues {
			if issue.Severity == models.SeverityCritical {
				out = append(out, Insight{
					Type:        TypeWarning,
					Title:       "Critical quality issue in " + col.Name,
					Description: issue.Description,
					Priority:    PriorityHigh,
					Column:      col.Name,
				})
			}
		}
	}

	if !hasPrimaryKey && asset.AssetType == "table" {
		out = append(out, Insight{
			Type:        TypeRecommendation,
			Title:       "No primary key on " + asset.QualifiedName,
			Description: "Table " + asset.QualifiedName + " has no primary key, which blocks reliable deduplication and change tracking.",
			Priority:    PriorityMedium,
		})
	}

	if hasForeignKey {
		out = append(out, Insight{
			Type:        TypeOpportunity,
			Title:       "Referential checks available",
			Description: "Foreign keys on " + asset.QualifiedName + " allow cross-table consistency rules.",
			Priority:    PriorityLow,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.rank() < out[j].Priority.rank()
	})
	return out
}

// GroupAlertsByBand buckets active alerts by their numeric criticality
// score, for grouping and coloring only.
func GroupAlertsByBand(alerts []models.ActiveAlert) map[models.CriticalityBand][]models.ActiveAlert {
	out := make(map[models.CriticalityBand][]models.ActiveAlert)
	for _, a := range alerts {
		band := models.BandForCriticality(a.CriticalityScore)
		out[band] = append(out[band], a)
	}
	return out
}
