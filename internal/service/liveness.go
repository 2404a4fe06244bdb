package service

import (
	"time"

	"relay_hub/internal/models"
)

// DefaultOnlineTimeout is how long after the last contact the device counts as online.
const DefaultOnlineTimeout = 30 * time.Second

// liveness tracks the last device contact. Not persisted: a restart starts offline.
// Callers hold the hub lock.
type liveness struct {
	lastSeen time.Time
	timeout  time.Duration
}

func (l *liveness) touch(now time.Time) {
	l.lastSeen = now
}

func (l *liveness) online(now time.Time) bool {
	return !l.lastSeen.IsZero() && now.Sub(l.lastSeen) < l.timeout
}

func (l *liveness) status(now time.Time) models.Connectivity {
	return models.Connectivity{Online: l.online(now), LastSeenAt: l.lastSeen}
}
