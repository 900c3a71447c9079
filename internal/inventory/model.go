package inventory

import (
	"errors"
	"time"
)

// Unit enumerates supported units of measure.
type Unit string

const (
	// UnitKg is sold by weight.
	UnitKg Unit = "kg"
	// UnitLitre is sold by volume.
	UnitLitre Unit = "litre"
	// UnitNos is sold by count.
	UnitNos Unit = "nos"
)

// Valid reports whether the unit belongs to the fixed enumeration.
func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitLitre, UnitNos:
		return true
	}
	return false
}

// Item is a stocked inventory record.
type Item struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Price       float64   `json:"price" db:"price"`
	Unit        Unit      `json:"unit" db:"unit"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

var (
	// ErrNotFound indicates a missing inventory item.
	ErrNotFound = errors.New("inventory: item not found")
	// ErrInvalidUnit indicates a unit outside the enumeration.
	ErrInvalidUnit = errors.New("inventory: invalid unit of measure")
)
