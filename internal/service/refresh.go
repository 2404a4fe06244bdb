package service

import "time"

// refreshToken is the level-triggered change signal the device polls.
// Callers hold the hub lock.
type refreshToken struct {
	issuedAt time.Time
}

// tokenResolution matches the wire and document encoding (unix milliseconds).
const tokenResolution = time.Millisecond

// bump moves the token to now, or one tick past the current token when the
// clock has not advanced, so consecutive bumps always compare greater.
func (r *refreshToken) bump(now time.Time) time.Time {
	next := now.UTC().Truncate(tokenResolution)
	if !next.After(r.issuedAt) {
		next = r.issuedAt.Add(tokenResolution)
	}
	r.issuedAt = next
	return next
}

func (r *refreshToken) current() time.Time {
	return r.issuedAt
}
