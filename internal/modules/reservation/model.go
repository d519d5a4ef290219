// README: Reservation aggregate and status definitions.
package reservation

import (
	"time"

	"ecoscoot/internal/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Reservation is a time-boxed hold on one scooter for one user. At most one
// active reservation may exist per scooter and per user; the per-scooter
// exclusivity is enforced by the fast-path lock, the per-user one by the
// active-by-user check against the durable store.
type Reservation struct {
	ID          types.ID
	UserID      types.ID
	ScooterID   types.ID
	Status      Status
	CreatedAt   time.Time
	ExpiresAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

func (r *Reservation) ExpiredAt(now time.Time) bool {
	return r.Status == StatusActive && now.After(r.ExpiresAt)
}
