package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the last reconciled telemetry and relay-state record.
// It is replaced on every reconciliation, never mutated in place.
type Snapshot struct {
	Temperature float64
	Humidity    float64
	Soil        float64
	ObservedAt  time.Time
	Relays      map[RelayID]RelayState
}

// Wire and document keys for the flat snapshot shape.
const (
	keyTemperature = "temperature"
	keyHumidity    = "humidity"
	keySoil        = "soil"
	keyTime        = "time"
)

// ValidateRelayIDs rejects relay sets that cannot share the flat snapshot
// document: empty or duplicate ids and ids equal to a telemetry key.
func ValidateRelayIDs(ids []RelayID) error {
	seen := make(map[RelayID]struct{}, len(ids))
	for _, id := range ids {
		switch string(id) {
		case "":
			return errors.New("empty relay id")
		case keyTemperature, keyHumidity, keySoil, keyTime:
			return fmt.Errorf("relay id %q is a reserved snapshot key", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate relay id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// DefaultSnapshot returns the all-off snapshot used when nothing is persisted.
func DefaultSnapshot(ids []RelayID) Snapshot {
	s := Snapshot{Relays: make(map[RelayID]RelayState, len(ids))}
	for _, id := range ids {
		s.Relays[id] = StateOff
	}
	return s
}

// Clone returns a copy of s with its own relay map.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Relays = make(map[RelayID]RelayState, len(s.Relays))
	for k, v := range s.Relays {
		out.Relays[k] = v
	}
	return out
}

// MarshalJSON writes the flat shape: telemetry fields, "time" and one key per relay.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.Relays)+4)
	doc[keyTemperature] = s.Temperature
	doc[keyHumidity] = s.Humidity
	doc[keySoil] = s.Soil
	if s.ObservedAt.IsZero() {
		doc[keyTime] = nil
	} else {
		doc[keyTime] = s.ObservedAt.UTC().Format(time.RFC3339)
	}
	for id, st := range s.Relays {
		doc[string(id)] = st
	}
	return json.Marshal(doc)
}

var errSnapshotNotObject = errors.New("snapshot document is not a JSON object")

// UnmarshalJSON reads the flat shape. Keys holding "on"/"off" become relay
// states; an unparseable "time" leaves ObservedAt zero.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if doc == nil {
		return errSnapshotNotObject
	}

	out := Snapshot{Relays: make(map[RelayID]RelayState)}
	for key, raw := range doc {
		switch key {
		case keyTemperature:
			out.Temperature, _ = decodeNumber(raw)
		case keyHumidity:
			out.Humidity, _ = decodeNumber(raw)
		case keySoil:
			out.Soil, _ = decodeNumber(raw)
		case keyTime:
			var ts string
			if json.Unmarshal(raw, &ts) == nil {
				out.ObservedAt = ParseObservedAt(ts)
			}
		default:
			var token string
			if json.Unmarshal(raw, &token) != nil {
				continue
			}
			if st, ok := ParseRelayState(token); ok {
				out.Relays[RelayID(key)] = st
			}
		}
	}
	*s = out
	return nil
}

// decodeNumber accepts a JSON number or a finite numeric string.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Layouts accepted for a device-supplied observation time.
var observedAtLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// ParseObservedAt parses a device timestamp in UTC; unknown formats yield zero time.
func ParseObservedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range observedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
