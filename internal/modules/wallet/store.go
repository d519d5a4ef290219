// README: Wallet store backed by PostgreSQL; single-statement conditional decrement.
package wallet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecoscoot/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// DeductBalance subtracts amount only when the balance covers it. The WHERE
// clause is the floor guard; a zero row count means either insufficient funds
// or a missing user, disambiguated by a follow-up read.
func (s *Store) DeductBalance(ctx context.Context, userID types.ID, amount int64) (int64, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE users
        SET wallet_balance = wallet_balance - $1, updated_at = NOW()
        WHERE user_id = $2 AND wallet_balance >= $1
        RETURNING wallet_balance`,
		amount, string(userID),
	)
	var balance int64
	err := row.Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := s.GetBalance(ctx, userID); gerr != nil {
			return 0, gerr
		}
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Store) AddBalance(ctx context.Context, userID types.ID, amount int64) (int64, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE users
        SET wallet_balance = wallet_balance + $1, updated_at = NOW()
        WHERE user_id = $2
        RETURNING wallet_balance`,
		amount, string(userID),
	)
	var balance int64
	err := row.Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Store) GetBalance(ctx context.Context, userID types.ID) (int64, error) {
	row := s.db.QueryRow(ctx, `
        SELECT wallet_balance FROM users WHERE user_id = $1`, string(userID),
	)
	var balance int64
	err := row.Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}
