package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// poScanLimit caps the candidate scan of a customer's orders.
const poScanLimit = 5000

// Repository reads sales order data from the PostgreSQL replica.
type Repository struct {
	db dbtx
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// FindShipAddress returns the delivery flags of the customer's address matched
// by address id, then internal id, then id.
func (r *Repository) FindShipAddress(ctx context.Context, customerID, addressRef string) (DeliveryFlags, error) {
	var flags DeliveryFlags
	err := r.db.QueryRow(ctx, `SELECT COALESCE(liftgate, false), COALESCE(residential, false), COALESCE(inside_delivery, false),
	COALESCE(limited_access, false), COALESCE(appointment_delivery, false)
FROM customer_addresses
WHERE customer_id=$1 AND (address_id=$2 OR internal_id=$2 OR id=$2)
ORDER BY CASE WHEN address_id=$2 THEN 0 WHEN internal_id=$2 THEN 1 ELSE 2 END
LIMIT 1`, customerID, addressRef).Scan(
		&flags.Liftgate, &flags.Residential, &flags.InsideDelivery, &flags.LimitedAccess, &flags.AppointmentDelivery,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeliveryFlags{}, ErrAddressNotFound
		}
		return DeliveryFlags{}, err
	}
	return flags, nil
}

// CustomerOrdersWithPO lists the customer's sales orders that carry a PO number.
func (r *Repository) CustomerOrdersWithPO(ctx context.Context, customerID string) ([]PORecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, COALESCE(tran_id, ''), other_ref_num
FROM sales_orders
WHERE customer_id=$1 AND COALESCE(other_ref_num, '') <> ''
ORDER BY id
LIMIT $2`, customerID, poScanLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []PORecord{}
	for rows.Next() {
		var rec PORecord
		if err := rows.Scan(&rec.ID, &rec.TranID, &rec.PONumber); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// FindOrderByPO returns any sales order other than excludeID with exactly this
// PO number.
func (r *Repository) FindOrderByPO(ctx context.Context, poNumber, excludeID string) (PORecord, bool, error) {
	var rec PORecord
	err := r.db.QueryRow(ctx, `SELECT id, COALESCE(tran_id, ''), other_ref_num
FROM sales_orders
WHERE other_ref_num=$1 AND ($2 = '' OR id <> $2)
LIMIT 1`, poNumber, excludeID).Scan(&rec.ID, &rec.TranID, &rec.PONumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PORecord{}, false, nil
		}
		return PORecord{}, false, err
	}
	return rec, true, nil
}
