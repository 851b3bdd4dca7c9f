package workorders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nabeeghrb/netsuite-rb/internal/binrank"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// binScanLimit caps the candidate bins read per item.
const binScanLimit = 1000

// ErrWorkOrderNotFound is returned when the update matches no work order.
var ErrWorkOrderNotFound = errors.New("workorders: work order not found")

// Repository reads bin balances and writes work order bin fields.
type Repository struct {
	db dbtx
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// PickingBins lists picking bins holding stock of the item. An empty
// locationID searches every location.
func (r *Repository) PickingBins(ctx context.Context, itemID, locationID string) ([]binrank.Bin, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, COALESCE(NULLIF(b.label, ''), b.id),
	COALESCE(ib.on_hand, 0)::text, COALESCE(ib.available, 0)::text, COALESCE(b.pick_sequence::text, '')
FROM inventory_balances ib
JOIN bins b ON b.id = ib.bin_id
WHERE ib.item_id=$1
  AND ib.bin_id IS NOT NULL
  AND (ib.on_hand > 0 OR ib.available > 0)
  AND b.bin_type = 'PICKING'
  AND ($2 = '' OR ib.location_id = $2)
LIMIT $3`, itemID, locationID, binScanLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bins []binrank.Bin
	for rows.Next() {
		var (
			bin                   binrank.Bin
			onHand, available, sq string
		)
		if err := rows.Scan(&bin.BinID, &bin.Label, &onHand, &available, &sq); err != nil {
			return nil, err
		}
		if bin.OnHand, err = decimal.NewFromString(onHand); err != nil {
			return nil, err
		}
		if bin.Available, err = decimal.NewFromString(available); err != nil {
			return nil, err
		}
		bin.PickSequence = binrank.ParseSequence(sq)
		bins = append(bins, bin)
	}
	return bins, rows.Err()
}

// UpdateBin writes the chosen bin onto the work order. A bin without a pick
// sequence stores NULL.
func (r *Repository) UpdateBin(ctx context.Context, workOrderID string, bin binrank.Bin) error {
	var seq *float64
	if bin.HasSequence() {
		v := bin.PickSequence
		seq = &v
	}
	tag, err := r.db.Exec(ctx, `UPDATE work_orders SET bin_sequence=$2, bin_label=$3, updated_at=NOW() WHERE id=$1`,
		workOrderID, seq, bin.Label)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkOrderNotFound
	}
	return nil
}
