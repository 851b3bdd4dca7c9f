package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads item data from the PostgreSQL replica.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ItemType returns the item type text for itemID.
func (r *Repository) ItemType(ctx context.Context, itemID string) (ItemType, error) {
	if r == nil {
		return "", errors.New("inventory repository not initialised")
	}
	var typ string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(item_type, '') FROM items WHERE id=$1`, itemID).Scan(&typ)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrItemNotFound
		}
		return "", err
	}
	return ItemType(typ), nil
}

// LocationAvailable returns the available quantity of itemID at locationID. A
// missing row counts as zero.
func (r *Repository) LocationAvailable(ctx context.Context, itemID, locationID string) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, errors.New("inventory repository not initialised")
	}
	var raw string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(quantity_available, 0)::text
FROM item_locations
WHERE item_id=$1 AND location_id=$2
LIMIT 1`, itemID, locationID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("inventory: parse available %q: %w", raw, err)
	}
	return qty, nil
}
