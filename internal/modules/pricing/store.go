// README: Pricing store backed by PostgreSQL; single-row table.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecoscoot/internal/types"
)

var ErrNotConfigured = errors.New("pricing not configured")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context) (Pricing, error) {
	row := s.db.QueryRow(ctx, `
        SELECT activation_fee, per_minute_rate, minimum_ride_price, updated_at
        FROM pricing_config
        WHERE id = 1`,
	)
	var p Pricing
	var fee, rate, minimum int64
	var updatedAt time.Time
	err := row.Scan(&fee, &rate, &minimum, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pricing{}, ErrNotConfigured
	}
	if err != nil {
		return Pricing{}, err
	}
	p.ActivationFee = types.PLN(fee)
	p.PerMinuteRate = types.PLN(rate)
	p.MinimumRidePrice = types.PLN(minimum)
	p.UpdatedAt = updatedAt
	return p, nil
}

func (s *Store) Put(ctx context.Context, p Pricing) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pricing_config (id, activation_fee, per_minute_rate, minimum_ride_price, updated_at)
        VALUES (1, $1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET activation_fee = $1, per_minute_rate = $2, minimum_ride_price = $3, updated_at = $4`,
		p.ActivationFee.Amount, p.PerMinuteRate.Amount, p.MinimumRidePrice.Amount, p.UpdatedAt,
	)
	return err
}
