// README: Ride aggregate; a metered usage session converted from a reservation.
package ride

import (
	"time"

	"ecoscoot/internal/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Ride bills once per started minute. LastBilledMinute and TotalCharged are
// monotonic non-decreasing; TotalCharged always equals the activation fee
// plus the sum of per-minute charges applied so far.
type Ride struct {
	ID               types.ID
	UserID           types.ID
	ScooterID        types.ID
	ReservationID    types.ID
	Status           Status
	StartedAt        time.Time
	EndedAt          *time.Time
	DurationMinutes  int
	ActivationFee    types.Money
	LastBilledMinute int
	TotalCharged     types.Money
	LastChargedAt    *time.Time
}

// ElapsedMinutes is the billable whole minutes since the ride started; any
// started minute counts in full.
func (r *Ride) ElapsedMinutes(now time.Time) int {
	d := now.Sub(r.StartedAt)
	if d <= 0 {
		return 0
	}
	minutes := int(d / time.Minute)
	if d%time.Minute > 0 {
		minutes++
	}
	return minutes
}
