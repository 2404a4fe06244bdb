package service

import "relay_hub/internal/models"

// Reconcile folds a device report into the previous snapshot under the
// current mode map. It has no side effects and never fails.
//
// Per relay in modes: a forced mode wins over anything reported; in auto a
// valid reported on/off is trusted; otherwise the previous state carries over.
// Telemetry is taken from the report, falling back to prev for fields the
// report does not carry.
func Reconcile(modes models.ModeMap, report models.Report, prev models.Snapshot) models.Snapshot {
	next := models.Snapshot{
		Temperature: valueOr(report.Temperature, prev.Temperature),
		Humidity:    valueOr(report.Humidity, prev.Humidity),
		Soil:        valueOr(report.Soil, prev.Soil),
		ObservedAt:  report.ObservedAt,
		Relays:      make(map[models.RelayID]models.RelayState, len(modes)),
	}

	for id, mode := range modes {
		next.Relays[id] = resolveRelay(mode, report.Relays[id], prev.Relays[id])
	}
	return next
}

func resolveRelay(mode models.RelayMode, reported string, prev models.RelayState) models.RelayState {
	if st, ok := mode.Forced(); ok {
		return st
	}
	if st, ok := models.ParseRelayState(reported); ok {
		return st
	}
	if prev == models.StateOn {
		return models.StateOn
	}
	return models.StateOff
}

// Project overlays forced modes onto a copy of snap. Auto relays pass through.
// Every dashboard read goes through here.
func Project(modes models.ModeMap, snap models.Snapshot) models.Snapshot {
	out := snap.Clone()
	for id, mode := range modes {
		if st, ok := mode.Forced(); ok {
			out.Relays[id] = st
		}
	}
	return out
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
