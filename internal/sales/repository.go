package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopledger/shopledger/internal/inventory"
	"github.com/shopledger/shopledger/internal/platform/db"
)

// Repository persists sales and their line items in PostgreSQL. Stock
// helpers operate on the inventory table so that stock checks and
// decrements share the sale's transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest, perPage int) ([]Sale, int, error)
	Create(ctx context.Context, sale Sale) (int64, error)
	Update(ctx context.Context, sale Sale) error
	Delete(ctx context.Context, id int64) error
	ListByCustomer(ctx context.Context, customerID int64) ([]Sale, error)
	GetItemStockForUpdate(ctx context.Context, itemID int64) (int, error)
	AdjustItemStock(ctx context.Context, itemID int64, delta int) error
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

const saleColumns = `id, customer_id, customer_name, sale_date, ledger_notes, total, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Sale, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1`, saleColumns), id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, []*Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *repository) List(ctx context.Context, req ListSalesRequest, perPage int) ([]Sale, int, error) {
	whereClause := ""
	var args []interface{}
	if req.Search != "" {
		whereClause = `WHERE (customer_name ILIKE $1
			OR TO_CHAR(sale_date, 'YYYY-MM-DD') LIKE $1
			OR EXISTS (
				SELECT 1 FROM sale_items si
				WHERE si.sale_id = sales.id AND si.name ILIKE $1
			))`
		args = append(args, "%"+req.Search+"%")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sales %s", whereClause)
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
		FROM sales
		%s
		ORDER BY sale_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, saleColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadLines(ctx, sales); err != nil {
		return nil, 0, err
	}

	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		out = append(out, *s)
	}
	return out, total, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE customer_id = $1 ORDER BY sale_date, id`, saleColumns)
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, sales); err != nil {
		return nil, err
	}

	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		out = append(out, *s)
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales (customer_id, customer_name, sale_date, ledger_notes, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, sale.CustomerID, sale.CustomerName, sale.Date, sale.LedgerNotes, sale.Total).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := r.insertLines(ctx, id, sale.Items); err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites the sale header and replaces its line items wholesale.
func (r *repository) Update(ctx context.Context, sale Sale) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales
		SET customer_id = $1, customer_name = $2, sale_date = $3, ledger_notes = $4, total = $5, updated_at = NOW()
		WHERE id = $6
	`, sale.CustomerID, sale.CustomerName, sale.Date, sale.LedgerNotes, sale.Total, sale.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, sale.ID); err != nil {
		return err
	}
	return r.insertLines(ctx, sale.ID, sale.Items)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemStockForUpdate locks the inventory row so the caller can check
// and decrement stock inside one transaction.
func (r *repository) GetItemStockForUpdate(ctx context.Context, itemID int64) (int, error) {
	var qty int
	err := r.db.QueryRow(ctx, `SELECT quantity FROM inventory_items WHERE id = $1 FOR UPDATE`, itemID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return qty, err
}

func (r *repository) AdjustItemStock(ctx context.Context, itemID int64, delta int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE inventory_items SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2
	`, delta, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) insertLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for i, li := range lines {
		_, err := r.db.Exec(ctx, `
			INSERT INTO sale_items (sale_id, item_id, name, quantity, price, unit, line_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, saleID, li.ItemID, li.Name, li.Quantity, li.Price, string(li.Unit), i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) loadLines(ctx context.Context, sales []*Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(sales))
	byID := make(map[int64]*Sale, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}

	rows, err := r.db.Query(ctx, `
		SELECT sale_id, item_id, name, quantity, price, unit, line_order
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, line_order
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var saleID int64
		var li SaleLine
		var price pgtype.Numeric
		var unit string
		if err := rows.Scan(&saleID, &li.ItemID, &li.Name, &li.Quantity, &price, &unit, &li.LineOrder); err != nil {
			return err
		}
		if price.Valid {
			f, _ := price.Float64Value()
			li.Price = f.Float64
		}
		li.Unit = inventory.Unit(unit)
		if s, ok := byID[saleID]; ok {
			s.Items = append(s.Items, li)
		}
	}
	return rows.Err()
}

func scanSale(row pgx.Row) (*Sale, error) {
	var sale Sale
	var date pgtype.Date
	var total pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&sale.ID, &sale.CustomerID, &sale.CustomerName, &date, &sale.LedgerNotes, &total, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if date.Valid {
		sale.Date = date.Time.Format(DateLayout)
	}
	if total.Valid {
		f, _ := total.Float64Value()
		sale.Total = f.Float64
	}
	if createdAt.Valid {
		sale.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		sale.UpdatedAt = updatedAt.Time
	}
	return &sale, nil
}
