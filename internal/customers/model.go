package customers

import (
	"errors"
	"time"
)

// Customer is a shop customer record.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Mobile    string    `json:"mobile" db:"mobile"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ErrNotFound indicates a missing customer.
var ErrNotFound = errors.New("customers: customer not found")
