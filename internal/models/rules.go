package models

import (
	"strings"
	"time"
)

// QualityRule is one rule from the rules hub
// (GET /api/quality/rules). Template rules carry ${...} placeholders in
// the expression and are not directly executable.
type QualityRule struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Severity   Severity  `json:"severity"`
	Enabled    bool      `json:"enabled"`
	Dimension  string    `json:"dimension,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r QualityRule) IsTemplate() bool {
	return strings.Contains(r.Expression, "${")
}

type RulesPage struct {
	Rules      []QualityRule `json:"rules"`
	Pagination Pagination    `json:"pagination"`
}

type Pagination struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// SplitRules partitions a rule list into template and executable rules.
func SplitRules(rules []QualityRule) (templates, executable []QualityRule) {
	for _, r := range rules {
		if r.IsTemplate() {
			templates = append(templates, r)
		} else {
			executable = append(executable, r)
		}
	}
	return templates, executable
}
