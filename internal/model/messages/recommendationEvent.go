package messages

import "time"

// DashboardEvent records a user action on the dashboard (validation, generation, sync).
type DashboardEvent struct {
	Kind      string            `json:"kind"` // config.validated | recommendation.generated | sensors.synced | irrigation.command | crop.action
	SessionID string            `json:"session_id"`
	Plot      string            `json:"plot,omitempty"`
	Fields    map[string]any    `json:"fields,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
