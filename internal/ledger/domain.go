// Package ledger serves the per-customer transaction statement. The
// statement is a projection rebuilt from sales by a background job, so
// reads never aggregate on the fly.
package ledger

import (
	"errors"
	"time"
)

// DateLayout is the wire format for statement dates.
const DateLayout = "2006-01-02"

// SubtotalMarker tags running-total rows kept for bookkeeping. Statement
// reads and exports skip them.
const SubtotalMarker = "Subtotal"

// Entry is one statement row for a customer.
type Entry struct {
	ID          int64     `json:"id" db:"id"`
	CustomerID  int64     `json:"customer_id" db:"customer_id"`
	Date        string    `json:"date" db:"entry_date"`
	Description string    `json:"description" db:"description"`
	Items       string    `json:"items" db:"items"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Amount      float64   `json:"amount" db:"amount"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SortKey names a statement column the caller may order by.
type SortKey string

const (
	SortDate        SortKey = "date"
	SortDescription SortKey = "description"
	SortItems       SortKey = "items"
	SortQuantity    SortKey = "quantity"
	SortAmount      SortKey = "amount"
)

// Valid reports whether the key names a sortable column.
func (k SortKey) Valid() bool {
	switch k {
	case SortDate, SortDescription, SortItems, SortQuantity, SortAmount:
		return true
	}
	return false
}

var (
	// ErrBadSortKey indicates an unknown sort column.
	ErrBadSortKey = errors.New("ledger: unknown sort key")
)
