package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Report is one telemetry push from the device. Nil telemetry fields and
// missing relay keys mean "no information".
type Report struct {
	Temperature *float64
	Humidity    *float64
	Soil        *float64
	ObservedAt  time.Time
	// Relays holds the raw reported token per relay; validation happens in reconciliation.
	Relays map[RelayID]string
}

// ErrReportNotObject is returned when a report payload is not a JSON object.
var ErrReportNotObject = errors.New("report is not a JSON object")

// DecodeReport parses a device payload. Only a payload that is not a JSON
// object fails; individual fields of the wrong type are dropped.
func DecodeReport(data []byte) (Report, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Report{}, err
	}
	if doc == nil {
		return Report{}, ErrReportNotObject
	}

	r := Report{Relays: make(map[RelayID]string)}
	for key, raw := range doc {
		switch key {
		case keyTemperature:
			r.Temperature = numberPtr(raw)
		case keyHumidity:
			r.Humidity = numberPtr(raw)
		case keySoil:
			r.Soil = numberPtr(raw)
		case keyTime:
			var ts string
			if json.Unmarshal(raw, &ts) == nil {
				r.ObservedAt = ParseObservedAt(ts)
			}
		default:
			var token string
			if json.Unmarshal(raw, &token) == nil {
				r.Relays[RelayID(key)] = token
			}
		}
	}
	return r, nil
}

func numberPtr(raw json.RawMessage) *float64 {
	f, ok := decodeNumber(raw)
	if !ok {
		return nil
	}
	return &f
}
