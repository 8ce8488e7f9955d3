package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusForScore_Buckets(t *testing.T) {
	cases := []struct {
		score float64
		want  ScoreStatus
	}{
		{100, ScoreExcellent},
		{90, ScoreExcellent},
		{89.9, ScoreGood},
		{70, ScoreGood},
		{69.9, ScoreWarning},
		{50, ScoreWarning},
		{49.9, ScoreCritical},
		{0, ScoreCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusForScore(c.score), "score %v", c.score)
	}
}

func TestParseSeverity_UnknownFallback(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity("critical"))
	assert.Equal(t, SeverityUnknown, ParseSeverity("catastrophic"))
	assert.Equal(t, SeverityUnknown, ParseSeverity(""))
}

func TestSeverityRank_Order(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Less(t, SeverityLow.Rank(), SeverityUnknown.Rank())
}

func TestParseTrend_UnknownFallback(t *testing.T) {
	assert.Equal(t, TrendUp, ParseTrend("up"))
	assert.Equal(t, TrendUnknown, ParseTrend("sideways"))
}

func TestBandForCriticality(t *testing.T) {
	assert.Equal(t, BandHighest, BandForCriticality(95))
	assert.Equal(t, BandHighest, BandForCriticality(80))
	assert.Equal(t, BandCritical, BandForCriticality(79.9))
	assert.Equal(t, BandCritical, BandForCriticality(60))
	assert.Equal(t, BandMedium, BandForCriticality(40))
	assert.Equal(t, BandLow, BandForCriticality(25))
	assert.Equal(t, BandInformational, BandForCriticality(24.9))
}

func TestParseIssueType(t *testing.T) {
	assert.Equal(t, IssueNullValues, ParseIssueType("null_values"))
	assert.Equal(t, IssueUnknown, ParseIssueType("weird_new_issue"))
}
