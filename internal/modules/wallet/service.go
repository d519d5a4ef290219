// README: Wallet service; balance mutations go through atomic conditional updates.
package wallet

import (
	"context"
	"errors"

	"ecoscoot/internal/types"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Ledger is the balance contract consumed by the ride manager and the
// metering scheduler. Deduct must be atomic with a non-negative floor: the
// storage layer applies "subtract N if balance >= N" in one statement, never
// read-then-write.
type Ledger interface {
	Deduct(ctx context.Context, userID types.ID, amount types.Money) (types.Money, error)
	TopUp(ctx context.Context, userID types.ID, amount types.Money) (types.Money, error)
	Balance(ctx context.Context, userID types.ID) (types.Money, error)
}

type Repository interface {
	DeductBalance(ctx context.Context, userID types.ID, amount int64) (int64, error)
	AddBalance(ctx context.Context, userID types.ID, amount int64) (int64, error)
	GetBalance(ctx context.Context, userID types.ID) (int64, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

func (s *Service) Deduct(ctx context.Context, userID types.ID, amount types.Money) (types.Money, error) {
	if amount.Amount <= 0 {
		return types.Money{}, ErrInvalidAmount
	}
	balance, err := s.store.DeductBalance(ctx, userID, amount.Amount)
	if err != nil {
		return types.Money{}, err
	}
	return types.PLN(balance), nil
}

func (s *Service) TopUp(ctx context.Context, userID types.ID, amount types.Money) (types.Money, error) {
	if amount.Amount <= 0 {
		return types.Money{}, ErrInvalidAmount
	}
	balance, err := s.store.AddBalance(ctx, userID, amount.Amount)
	if err != nil {
		return types.Money{}, err
	}
	return types.PLN(balance), nil
}

func (s *Service) Balance(ctx context.Context, userID types.ID) (types.Money, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return types.Money{}, err
	}
	return types.PLN(balance), nil
}
