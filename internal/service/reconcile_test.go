package service

import (
	"testing"
	"time"

	"relay_hub/internal/models"
)

func f64(v float64) *float64 { return &v }

func snapshotWith(states map[models.RelayID]models.RelayState) models.Snapshot {
	return models.Snapshot{Temperature: 20, Humidity: 50, Soil: 300, Relays: states}
}

func TestReconcile_ForcedModesIgnoreReport(t *testing.T) {
	t.Parallel()

	reports := map[string]map[models.RelayID]string{
		"absent":        {},
		"malformed":     {"relay1": "maybe", "relay2": "1"},
		"contradictory": {"relay1": "off", "relay2": "on"},
		"agreeing":      {"relay1": "ON", "relay2": "Off"},
	}
	modes := models.ModeMap{"relay1": models.ModeForcedOn, "relay2": models.ModeForcedOff}
	prev := snapshotWith(map[models.RelayID]models.RelayState{"relay1": models.StateOff, "relay2": models.StateOn})

	for name, relays := range reports {
		relays := relays
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := Reconcile(modes, models.Report{Relays: relays}, prev)
			if got.Relays["relay1"] != models.StateOn {
				t.Errorf("relay1 = %q, want on", got.Relays["relay1"])
			}
			if got.Relays["relay2"] != models.StateOff {
				t.Errorf("relay2 = %q, want off", got.Relays["relay2"])
			}
		})
	}
}

func TestReconcile_AutoTrustsValidReport(t *testing.T) {
	t.Parallel()

	modes := models.ModeMap{"relay1": models.ModeAuto, "relay2": models.ModeAuto}
	prev := snapshotWith(map[models.RelayID]models.RelayState{"relay1": models.StateOff, "relay2": models.StateOn})

	got := Reconcile(modes, models.Report{Relays: map[models.RelayID]string{"relay1": " On ", "relay2": "OFF"}}, prev)
	if got.Relays["relay1"] != models.StateOn || got.Relays["relay2"] != models.StateOff {
		t.Fatalf("relays = %v", got.Relays)
	}
}

func TestReconcile_AutoCarriesForwardWithoutInformation(t *testing.T) {
	t.Parallel()

	modes := models.ModeMap{"relay1": models.ModeAuto, "relay2": models.ModeAuto, "relay3": models.ModeAuto}
	prev := snapshotWith(map[models.RelayID]models.RelayState{
		"relay1": models.StateOn,
		"relay2": models.StateOn,
		// relay3 missing from prev
	})
	report := models.Report{Relays: map[models.RelayID]string{"relay2": "auto", "relay3": ""}}

	got := Reconcile(modes, report, prev)
	want := map[models.RelayID]models.RelayState{"relay1": models.StateOn, "relay2": models.StateOn, "relay3": models.StateOff}
	for id, st := range want {
		if got.Relays[id] != st {
			t.Errorf("%s = %q, want %q", id, got.Relays[id], st)
		}
	}
}

func TestReconcile_MixedScenario(t *testing.T) {
	t.Parallel()

	modes := models.ModeMap{"relay1": models.ModeAuto, "relay2": models.ModeForcedOn, "relay3": models.ModeForcedOff}
	prev := snapshotWith(map[models.RelayID]models.RelayState{"relay1": models.StateOff, "relay2": models.StateOn, "relay3": models.StateOff})

	t.Run("full report", func(t *testing.T) {
		got := Reconcile(modes, models.Report{Relays: map[models.RelayID]string{"relay1": "on", "relay2": "off", "relay3": "on"}}, prev)
		want := map[models.RelayID]models.RelayState{"relay1": models.StateOn, "relay2": models.StateOn, "relay3": models.StateOff}
		for id, st := range want {
			if got.Relays[id] != st {
				t.Errorf("%s = %q, want %q", id, got.Relays[id], st)
			}
		}
	})

	t.Run("relay1 omitted", func(t *testing.T) {
		got := Reconcile(modes, models.Report{Relays: map[models.RelayID]string{"relay2": "off", "relay3": "on"}}, prev)
		if got.Relays["relay1"] != models.StateOff {
			t.Errorf("relay1 = %q, want previous value off", got.Relays["relay1"])
		}
	})
}

func TestReconcile_TelemetryAndCoverage(t *testing.T) {
	t.Parallel()

	observed := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	modes := models.ModeMap{"relay1": models.ModeAuto, "relay2": models.ModeAuto, "relay9": models.ModeAuto}
	prev := snapshotWith(map[models.RelayID]models.RelayState{"relay1": models.StateOn})

	got := Reconcile(modes, models.Report{
		Temperature: f64(31.5),
		Soil:        f64(512),
		ObservedAt:  observed,
		Relays:      map[models.RelayID]string{"relayX": "on"},
	}, prev)

	if got.Temperature != 31.5 || got.Soil != 512 {
		t.Errorf("telemetry not taken from report: %+v", got)
	}
	if got.Humidity != prev.Humidity {
		t.Errorf("humidity = %v, want carried %v", got.Humidity, prev.Humidity)
	}
	if !got.ObservedAt.Equal(observed) {
		t.Errorf("observedAt = %v", got.ObservedAt)
	}
	if len(got.Relays) != len(modes) {
		t.Errorf("relays = %v, want one entry per mode map key", got.Relays)
	}
	if _, ok := got.Relays["relayX"]; ok {
		t.Errorf("unknown reported relay leaked into snapshot")
	}
}

func TestProject_OverlaysForcedWithoutMutating(t *testing.T) {
	t.Parallel()

	stored := snapshotWith(map[models.RelayID]models.RelayState{
		"relay1": models.StateOff,
		"relay2": models.StateOff,
		"relay3": models.StateOn,
	})
	modes := models.ModeMap{"relay1": models.ModeAuto, "relay2": models.ModeForcedOn, "relay3": models.ModeForcedOff}

	got := Project(modes, stored)
	if got.Relays["relay1"] != models.StateOff || got.Relays["relay2"] != models.StateOn || got.Relays["relay3"] != models.StateOff {
		t.Fatalf("projected relays = %v", got.Relays)
	}
	if stored.Relays["relay2"] != models.StateOff || stored.Relays["relay3"] != models.StateOn {
		t.Fatalf("stored snapshot mutated: %v", stored.Relays)
	}
}
