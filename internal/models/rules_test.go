package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRules_TemplateDetection(t *testing.T) {
	rules := []QualityRule{
		{ID: "1", Name: "not null email", Expression: "null_pct(email) == 0"},
		{ID: "2", Name: "column not null", Expression: "null_pct(${column}) == 0"},
		{ID: "3", Name: "row count floor", Expression: "row_count() > ${min_rows}"},
	}

	templates, executable := SplitRules(rules)
	require.Len(t, templates, 2)
	require.Len(t, executable, 1)
	assert.Equal(t, "1", executable[0].ID)
	assert.True(t, templates[0].IsTemplate())
}

func TestPIIRuleForm_Validate(t *testing.T) {
	valid := PIIRuleForm{Name: "ssn", PIIType: "national_id", Pattern: `\d{3}-\d{2}-\d{4}`}
	assert.NoError(t, valid.Validate())

	missing := PIIRuleForm{PIIType: "email", Pattern: ".*"}
	assert.Error(t, missing.Validate())

	badRegex := PIIRuleForm{Name: "broken", PIIType: "email", Pattern: "("}
	assert.Error(t, badRegex.Validate())

	badColMatch := PIIRuleForm{Name: "x", PIIType: "email", Pattern: ".*", ColumnMatch: "["}
	assert.Error(t, badColMatch.Validate())
}
