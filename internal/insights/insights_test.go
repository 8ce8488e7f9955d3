package insights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

func tableAsset(cols ...models.Column) models.Asset {
	return models.Asset{
		ID:            "asset-1",
		QualifiedName: "public.users",
		AssetType:     "table",
		Columns:       cols,
	}
}

func insightsOfType(in []Insight, t InsightType) []Insight {
	var out []Insight
	for _, i := range in {
		if i.Type == t {
			out = append(out, i)
		}
	}
	return out
}

func TestHighNullRateProducesOneWarning(t *testing.T) {
	got := Generate(tableAsset(
		models.Column{Name: "id", IsPrimaryKey: true},
		models.Column{Name: "email", NullPercentage: 35},
	))

	warnings := insightsOfType(got, TypeWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Title, "email")
	assert.Equal(t, "email", warnings[0].Column)
}

func TestNearUniqueNonPKProducesOneOpportunity(t *testing.T) {
	got := Generate(tableAsset(
		models.Column{Name: "id", IsPrimaryKey: true},
		models.Column{Name: "email", UniquePercentage: 95},
	))

	opps := insightsOfType(got, TypeOpportunity)
	require.Len(t, opps, 1)
	assert.Contains(t, opps[0].Title, "email")

	// a primary key at 95% unique is not an opportunity
	got = Generate(tableAsset(models.Column{Name: "id", IsPrimaryKey: true, UniquePercentage: 95}))
	assert.Empty(t, insightsOfType(got, TypeOpportunity))
}

func TestBothThresholdsOnOneColumnSortBehindHighPriority(t *testing.T) {
	got := Generate(tableAsset(
		models.Column{Name: "id", IsPrimaryKey: true},
		models.Column{Name: "email", NullPercentage: 35, UniquePercentage: 95},
		models.Column{Name: "ssn", IsPII: true, IsEncrypted: false},
	))

	require.Len(t, got, 3)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "ssn", got[0].Column)
	assert.Equal(t, PriorityMedium, got[1].Priority)
	assert.Equal(t, PriorityLow, got[2].Priority)
}

func TestCriticalIssueAndMissingPrimaryKey(t *testing.T) {
	got := Generate(models.Asset{
		QualifiedName: "public.orders",
		AssetType:     "table",
		Columns: []models.Column{
			{Name: "amount", QualityIssues: []models.QualityIssue{
				{Type: models.IssueOutliers, Severity: models.SeverityCritical, Description: "amounts above 1e9"},
			}},
			{Name: "ref", IsForeignKey: true},
		},
	})

	require.Len(t, got, 3)
	assert.Equal(t, TypeWarning, got[0].Type)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "amounts above 1e9", got[0].Description)
	assert.Equal(t, TypeRecommendation, got[1].Type)
	assert.Contains(t, got[1].Title, "public.orders")
	assert.Equal(t, TypeOpportunity, got[2].Type)
	assert.Equal(t, PriorityLow, got[2].Priority)
}

func TestViewsDoNotGetMissingPrimaryKeyRecommendation(t *testing.T) {
	got := Generate(models.Asset{
		QualifiedName: "public.v_orders",
		AssetType:     "view",
		Columns:       []models.Column{{Name: "amount"}},
	})
	assert.Empty(t, got)
}

func TestGenerateIsStableWithinPriority(t *testing.T) {
	asset := tableAsset(
		models.Column{Name: "id", IsPrimaryKey: true},
		models.Column{Name: "a", NullPercentage: 40},
		models.Column{Name: "b", NullPercentage: 50},
	)
	got := Generate(asset)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Column)
	assert.Equal(t, "b", got[1].Column)
}

func TestFixScriptNullValuesOrdering(t *testing.T) {
	script := FixScript("public.users", "email", models.IssueNullValues)

	update := strings.Index(script, "UPDATE public.users")
	alter := strings.Index(script, "ALTER TABLE public.users\nALTER COLUMN email SET NOT NULL")
	require.GreaterOrEqual(t, update, 0)
	require.GreaterOrEqual(t, alter, 0)
	assert.Less(t, update, alter)
}

func TestFixScriptCoversEveryIssueType(t *testing.T) {
	for _, issue := range []models.IssueType{
		models.IssueNullValues,
		models.IssueDuplicates,
		models.IssueInvalidFormat,
		models.IssuePIIUnencrypted,
		models.IssueOutliers,
		models.IssueUnknown,
	} {
		script := FixScript("public.users", "email", issue)
		assert.Contains(t, script, "public.users", "issue %s", issue)
		assert.Contains(t, script, "email", "issue %s", issue)
	}
}

func TestGroupAlertsByBand(t *testing.T) {
	grouped := GroupAlertsByBand([]models.ActiveAlert{
		{ID: "a", CriticalityScore: 85},
		{ID: "b", CriticalityScore: 61},
		{ID: "c", CriticalityScore: 40},
		{ID: "d", CriticalityScore: 30},
		{ID: "e", CriticalityScore: 10},
	})

	assert.Equal(t, "a", grouped[models.BandHighest][0].ID)
	assert.Equal(t, "b", grouped[models.BandCritical][0].ID)
	assert.Equal(t, "c", grouped[models.BandMedium][0].ID)
	assert.Equal(t, "d", grouped[models.BandLow][0].ID)
	assert.Equal(t, "e", grouped[models.BandInformational][0].ID)
}
