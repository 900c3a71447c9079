package sales

import (
	"errors"
	"time"

	"github.com/shopledger/shopledger/internal/inventory"
)

// Sale is a persisted sales transaction with its line items.
type Sale struct {
	ID           int64      `json:"id" db:"id"`
	CustomerID   int64      `json:"customer_id" db:"customer_id"`
	CustomerName string     `json:"customer_name" db:"customer_name"`
	Date         string     `json:"date" db:"date"`
	Items        []SaleLine `json:"items" db:"-"`
	LedgerNotes  string     `json:"ledger_notes" db:"ledger_notes"`
	Total        float64    `json:"total" db:"total"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// SaleLine is one (item, quantity, price, unit) tuple within a sale. Name,
// price and unit are snapshots taken when the item was selected.
type SaleLine struct {
	ItemID    int64          `json:"item_id" db:"item_id"`
	Name      string         `json:"name" db:"name"`
	Quantity  int            `json:"quantity" db:"quantity"`
	Price     float64        `json:"price" db:"price"`
	Unit      inventory.Unit `json:"unit" db:"unit"`
	LineOrder int            `json:"-" db:"line_order"`
}

// DateLayout is the wire format for sale dates.
const DateLayout = "2006-01-02"

var (
	// ErrNotFound indicates a missing sale.
	ErrNotFound = errors.New("sales: sale not found")
	// ErrMissingID indicates an operation that requires a persisted identifier.
	ErrMissingID = errors.New("sales: sale identifier required")
	// ErrStockConflict indicates the requested quantity exceeds current stock.
	ErrStockConflict = errors.New("sales: requested quantity exceeds available stock")
	// ErrOutOfStock indicates an item with no stock on hand.
	ErrOutOfStock = errors.New("sales: item is out of stock")
	// ErrCustomerRequired indicates a draft without a customer selection.
	ErrCustomerRequired = errors.New("sales: customer required")
	// ErrLineIndex indicates a line index outside the draft.
	ErrLineIndex = errors.New("sales: line index out of range")
	// ErrInvalidDraft indicates a draft that fails validation at submit.
	ErrInvalidDraft = errors.New("sales: draft is not valid")
)
