package models

import "time"

// MLPrediction is one forecast series for a (table, metric) pair,
// delivered by prediction:ready events. The projector keeps at most one
// prediction per key; a newer forecast replaces the previous one.
type MLPrediction struct {
	Table       string          `json:"table"`
	Metric      string          `json:"metric"`
	Model       string          `json:"model"`
	Points      []ForecastPoint `json:"points"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Key identifies the forecast slot this prediction occupies.
func (p MLPrediction) Key() string {
	return p.Table + "\x00" + p.Metric
}
