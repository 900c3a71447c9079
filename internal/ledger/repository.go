package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger/internal/platform/db"
)

// Repository persists statement rows in PostgreSQL.
type Repository interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]Entry, error)
	Replace(ctx context.Context, customerID int64, entries []Entry) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, entry_date, description, items, quantity, amount, created_at
		FROM ledger_entries
		WHERE customer_id = $1
		ORDER BY entry_date, id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var date pgtype.Date
		var amount pgtype.Numeric
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&e.ID, &e.CustomerID, &date, &e.Description, &e.Items, &e.Quantity, &amount, &createdAt); err != nil {
			return nil, err
		}
		if date.Valid {
			e.Date = date.Time.Format(DateLayout)
		}
		if amount.Valid {
			f, _ := amount.Float64Value()
			e.Amount = f.Float64
		}
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Replace swaps the customer's projection for a freshly built one inside a
// single transaction, so readers never observe a half-rebuilt statement.
func (r *repository) Replace(ctx context.Context, customerID int64, entries []Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE customer_id = $1`, customerID); err != nil {
			return fmt.Errorf("clear ledger for customer %d: %w", customerID, err)
		}
		for _, e := range entries {
			_, err := tx.Exec(ctx, `
				INSERT INTO ledger_entries (customer_id, entry_date, description, items, quantity, amount, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW())
			`, customerID, e.Date, e.Description, e.Items, e.Quantity, e.Amount)
			if err != nil {
				return fmt.Errorf("insert ledger entry: %w", err)
			}
		}
		return nil
	})
}
