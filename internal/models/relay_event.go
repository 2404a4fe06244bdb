package models

import "time"

// Event types recorded in the relay event log.
const (
	EventModeChange   = "MODE_CHANGE"
	EventConnectivity = "CONNECTIVITY"
	EventThresholds   = "THRESHOLDS"
)

// RelayEvent is a single log entry.
type RelayEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // MODE_CHANGE | CONNECTIVITY | THRESHOLDS
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Connectivity is the derived liveness of the device.
type Connectivity struct {
	Online     bool
	LastSeenAt time.Time
}

// Thresholds are operator-set values the device fetches for its own control logic.
type Thresholds map[string]string
