package auth

import "time"

// expirySafetyMarginSeconds is shaved off every provider-reported lifetime
const expirySafetyMarginSeconds = 10

// ComputeExpiry returns the absolute expiry, in epoch milliseconds, of a token issued
// at nowMs with a lifetime of expiresInSeconds.
func ComputeExpiry(nowMs, expiresInSeconds int64) int64 {
	return nowMs + (expiresInSeconds-expirySafetyMarginSeconds)*1000
}

// RefreshPath is what a federated account needs before it can be used
type RefreshPath int

const (
	// RefreshNone means the game token is still valid
	RefreshNone RefreshPath = iota
	// RefreshGame re-runs the chain from the stored MS access token
	RefreshGame
	// RefreshFull redeems the stored refresh token and re-runs the whole chain
	RefreshFull
)

func (p RefreshPath) String() string {
	switch p {
	case RefreshNone:
		return "none"
	case RefreshGame:
		return "game"
	case RefreshFull:
		return "full"
	default:
		return "invalid"
	}
}

// DecideRefresh picks the cheapest refresh that makes a federated account usable at now.
// A timestamp equal to now counts as expired.
func DecideRefresh(now, gameExpiresAt, msExpiresAt int64) RefreshPath {
	if gameExpiresAt > now {
		return RefreshNone
	}
	if msExpiresAt > now {
		return RefreshGame
	}
	return RefreshFull
}

func nowMillis(now func() time.Time) int64 {
	return now().UnixMilli()
}
