// README: Lifecycle event publisher; best-effort, never on the request's critical path.
package events

import (
	"context"
	"time"
)

type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationCancelled Type = "reservation.cancelled"
	ReservationExpired   Type = "reservation.expired"
	RideStarted          Type = "ride.started"
	RideCharged          Type = "ride.charged"
	RideEnded            Type = "ride.ended"
)

type Event struct {
	Type      Type      `json:"type"`
	UserID    string    `json:"userId"`
	ScooterID string    `json:"scooterId,omitempty"`
	EntityID  string    `json:"entityId"`
	Amount    int64     `json:"amount,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
