package models

import (
	"sort"
	"strings"
)

// RelayID names a relay channel on the field device, e.g. "relay1".
type RelayID string

// DefaultRelayIDs is the relay set used when configuration does not name one.
var DefaultRelayIDs = []RelayID{"relay1", "relay2", "relay3"}

// RelayMode is the operator's intent for a relay.
type RelayMode string

const (
	ModeAuto      RelayMode = "auto" // device decides
	ModeForcedOn  RelayMode = "on"
	ModeForcedOff RelayMode = "off"
)

// RelayState is the applied electrical state of a relay. It is never "auto".
type RelayState string

const (
	StateOn  RelayState = "on"
	StateOff RelayState = "off"
)

// ParseRelayMode maps a case-insensitive auto|on|off token to a RelayMode.
func ParseRelayMode(token string) (RelayMode, bool) {
	switch RelayMode(strings.ToLower(strings.TrimSpace(token))) {
	case ModeAuto:
		return ModeAuto, true
	case ModeForcedOn:
		return ModeForcedOn, true
	case ModeForcedOff:
		return ModeForcedOff, true
	}
	return "", false
}

// ParseRelayState maps a case-insensitive on|off token to a RelayState.
func ParseRelayState(token string) (RelayState, bool) {
	switch RelayState(strings.ToLower(strings.TrimSpace(token))) {
	case StateOn:
		return StateOn, true
	case StateOff:
		return StateOff, true
	}
	return "", false
}

// Forced returns the state pinned by a forced mode; ok is false for auto.
func (m RelayMode) Forced() (RelayState, bool) {
	switch m {
	case ModeForcedOn:
		return StateOn, true
	case ModeForcedOff:
		return StateOff, true
	}
	return "", false
}

// ModeMap is the durable record of operator intent, one entry per known relay.
type ModeMap map[RelayID]RelayMode

// Clone returns an independent copy of m.
func (m ModeMap) Clone() ModeMap {
	out := make(ModeMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IDs returns the relay ids of m in sorted order.
func (m ModeMap) IDs() []RelayID {
	ids := make([]RelayID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewModeMap returns a map with every id set to auto.
func NewModeMap(ids []RelayID) ModeMap {
	m := make(ModeMap, len(ids))
	for _, id := range ids {
		m[id] = ModeAuto
	}
	return m
}
