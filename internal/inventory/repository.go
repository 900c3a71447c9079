package inventory

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

// Repository persists inventory items in PostgreSQL.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, req ListItemsRequest, perPage int) ([]Item, int, error)
	Create(ctx context.Context, item Item) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
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

const itemColumns = `id, name, description, quantity, price, unit, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Item, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM inventory_items WHERE id = $1`, itemColumns), id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *repository) List(ctx context.Context, req ListItemsRequest, perPage int) ([]Item, int, error) {
	whereClause := ""
	var args []interface{}
	if req.Search != "" {
		whereClause = "WHERE (name ILIKE $1 OR description ILIKE $1)"
		args = append(args, "%"+req.Search+"%")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM inventory_items %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_items
		%s
		ORDER BY name, id
		LIMIT $%d OFFSET $%d
	`, itemColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO inventory_items (name, description, quantity, price, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, item.Name, item.Description, item.Quantity, item.Price, string(item.Unit)).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE inventory_items SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"name", "description", "quantity", "price", "unit"} {
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

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var price pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz
	var unit string

	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Quantity, &price, &unit, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		f, _ := price.Float64Value()
		item.Price = f.Float64
	}
	item.Unit = Unit(unit)
	if createdAt.Valid {
		item.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		item.UpdatedAt = updatedAt.Time
	}
	return &item, nil
}
