package models

import (
	"encoding/json"
	"time"
)

// StreamEvent is the JSON envelope on the streaming channel, both
// directions.
type StreamEvent struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Server → client events.
const (
	EventQualityUpdate   = "quality:update"
	EventStatsUpdate     = "stats:update"
	EventAlertsInitial   = "alerts:initial"
	EventAlertCreated    = "alert:created"
	EventAlertResolved   = "alert:resolved"
	EventPredictionReady = "prediction:ready"
)

// Client → server commands.
const (
	CmdSubscribeOverview   = "subscribe:overview"
	CmdUnsubscribeOverview = "unsubscribe:overview"
	CmdRequestPrediction   = "request:prediction"
	CmdApplyRecommendation = "apply:recommendation"
)

// SubscribeOverview scopes a stream subscription to one data source.
type SubscribeOverview struct {
	DataSourceID string `json:"dataSourceId"`
}

// PredictionRequest asks the backend to compute a forecast; the only
// acknowledgment is an eventual prediction:ready event.
type PredictionRequest struct {
	Table  string `json:"table"`
	Metric string `json:"metric"`
}

// RecommendationRequest applies one recommendation of one alert. The
// backend resolves or mutates the alert, observed via the next
// alert:resolved or snapshot.
type RecommendationRequest struct {
	AlertID     string `json:"alertId"`
	ActionIndex int    `json:"actionIndex"`
}
