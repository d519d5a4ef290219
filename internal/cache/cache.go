// README: Fast-path lock store; a TTL cache for exclusivity locks and pointers.
package cache

import (
	"context"
	"time"
)

// LockStore is the optional low-latency cache in front of the durable store.
// It holds the per-scooter reservation lock and the cross-request pointers
// (user→reservation, user→ride, scooter→ride). It is never authoritative:
// every caller must treat a miss, an error, or a disabled store the same way
// and fall back to the durable store.
type LockStore interface {
	// Enabled reports whether the fast path is available. The value is fixed
	// at construction; callers branch on it deterministically.
	Enabled() bool

	// SetIfAbsent is the atomic test-and-set used for lock acquisition.
	// Returns false when the key is already held. A disabled store reports
	// acquisition success so callers proceed on the durable checks alone.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Get returns "" on miss, error, or when disabled.
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Key layout is part of the wire contract; the expiry sweep depends on
// the reservation keys carrying a TTL while ride pointers are cleared
// explicitly on ride end.
const (
	scooterLockPrefix     = "reservation:scooter:"
	userReservationPrefix = "reservation:user:"
	userRidePrefix        = "ride:user:"
	scooterRidePrefix     = "ride:scooter:"

	PricingKey = "pricing:config"
)

func ScooterLockKey(scooterID string) string  { return scooterLockPrefix + scooterID }
func UserReservationKey(userID string) string { return userReservationPrefix + userID }
func UserRideKey(userID string) string        { return userRidePrefix + userID }
func ScooterRideKey(scooterID string) string  { return scooterRidePrefix + scooterID }
