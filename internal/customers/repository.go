package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger/internal/platform/db"
)

// Repository persists customers in PostgreSQL.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest, perPage int) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	ListIDs(ctx context.Context) ([]int64, error)
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

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, address, mobile, created_at, updated_at
		FROM customers WHERE id = $1
	`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest, perPage int) ([]Customer, int, error) {
	whereClause := ""
	var args []interface{}
	if req.Search != "" {
		whereClause = "WHERE (name ILIKE $1 OR address ILIKE $1 OR mobile ILIKE $1)"
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`
		SELECT id, name, address, mobile, created_at, updated_at
		FROM customers
		%s
		ORDER BY name, id
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *customer)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, customer Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (name, address, mobile, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`, customer.Name, customer.Address, customer.Mobile).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE customers SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"name", "address", "mobile"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIDs returns every customer id, ordered. Used by the nightly ledger
// sweep.
func (r *repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Mobile, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return &c, nil
}
