package sales

import "github.com/shopledger/shopledger/internal/inventory"

type SaleLineRequest struct {
	ItemID   int64          `json:"item_id" validate:"required,gt=0"`
	Name     string         `json:"name" validate:"required,max=200"`
	Quantity int            `json:"quantity" validate:"required,gte=1"`
	Price    float64        `json:"price" validate:"gte=0"`
	Unit     inventory.Unit `json:"unit" validate:"required,oneof=kg litre nos"`
}

type CreateSaleRequest struct {
	CustomerID   int64             `json:"customer_id" validate:"required,gt=0"`
	CustomerName string            `json:"customer_name" validate:"required,max=200"`
	Date         string            `json:"date" validate:"required,datetime=2006-01-02"`
	Items        []SaleLineRequest `json:"items" validate:"required,min=1,dive"`
	LedgerNotes  string            `json:"ledger_notes"`
	Total        float64           `json:"total" validate:"gte=0"`
}

// UpdateSaleRequest replaces the full sale payload, mirroring the create shape.
type UpdateSaleRequest = CreateSaleRequest

type ListSalesRequest struct {
	Search string `json:"search"`
	Page   int    `json:"page" validate:"gte=0"`
}
