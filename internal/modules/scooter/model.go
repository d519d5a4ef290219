// README: Scooter entity and status definitions.
package scooter

import (
	"time"

	"ecoscoot/internal/types"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusReserved    Status = "reserved"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusInUse, StatusMaintenance:
		return true
	}
	return false
}

type Scooter struct {
	ID        types.ID
	Code      string
	Status    Status
	Battery   int
	Lat       float64
	Lng       float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
