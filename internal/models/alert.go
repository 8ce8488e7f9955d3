package models

import "time"

// ActiveAlert is owned exclusively by the projector; presentation reads
// copies and never mutates it.
type ActiveAlert struct {
	ID               string           `json:"id"`
	Severity         Severity         `json:"severity"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Table            string           `json:"table"`
	BusinessImpact   BusinessImpact   `json:"businessImpact"`
	Recommendations  []Recommendation `json:"recommendations"`
	Trending         AlertTrend       `json:"trending"`
	Priority         int              `json:"priority"`
	CriticalityScore float64          `json:"criticalityScore"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type BusinessImpact struct {
	RevenueAtRisk float64  `json:"revenueAtRisk"`
	AffectedUsers int      `json:"affectedUsers"`
	SLAViolations []string `json:"slaViolations"`
}

// Recommendation is one AI-suggested remediation on an alert.
// Confidence is in [0,1].
type Recommendation struct {
	Action          string  `json:"action"`
	Confidence      float64 `json:"confidence"`
	EstimatedImpact string  `json:"estimatedImpact"`
	AutoApplicable  bool    `json:"autoApplicable"`
}

// AlertResolved is the payload of an alert:resolved stream event.
type AlertResolved struct {
	AlertID string `json:"alertId"`
}
