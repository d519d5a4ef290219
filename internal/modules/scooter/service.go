// README: Scooter inventory service consumed by the reservation and ride managers.
package scooter

import (
	"context"
	"errors"

	"ecoscoot/internal/types"
)

var (
	ErrNotFound       = errors.New("scooter not found")
	ErrInvalidStatus  = errors.New("invalid scooter status")
	ErrInvalidBattery = errors.New("battery must be between 0 and 100")
)

// Directory is the interface the lifecycle managers consume. Inventory CRUD
// beyond this boundary (geo search, fleet admin) lives elsewhere.
type Directory interface {
	Get(ctx context.Context, id types.ID) (*Scooter, error)
	SetStatus(ctx context.Context, id types.ID, status Status) error
}

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Scooter, error)
	List(ctx context.Context, limit int) ([]Scooter, error)
	SetStatus(ctx context.Context, id types.ID, status Status) error
	SetBattery(ctx context.Context, id types.ID, battery int) error
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Scooter, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]Scooter, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.List(ctx, limit)
}

func (s *Service) SetStatus(ctx context.Context, id types.ID, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	return s.store.SetStatus(ctx, id, status)
}

func (s *Service) SetBattery(ctx context.Context, id types.ID, battery int) error {
	if battery < 0 || battery > 100 {
		return ErrInvalidBattery
	}
	return s.store.SetBattery(ctx, id, battery)
}
