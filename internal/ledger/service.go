package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger/internal/sales"
)

// SalesSource supplies the sales a statement is projected from.
type SalesSource interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]sales.Sale, error)
}

// Service reads customer statements and rebuilds the projection behind
// them.
type Service struct {
	repo  Repository
	sales SalesSource
}

// NewService builds Service.
func NewService(repo Repository, salesSrc SalesSource) *Service {
	return &Service{repo: repo, sales: salesSrc}
}

// Statement returns the customer's visible ledger rows ordered by the
// requested column. Subtotal marker rows are dropped; they exist for
// bookkeeping, not display.
func (s *Service) Statement(ctx context.Context, customerID int64, key SortKey, descending bool) ([]Entry, error) {
	if key == "" {
		key = SortDate
	}
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrBadSortKey, key)
	}

	entries, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load ledger for customer %d: %w", customerID, err)
	}

	visible := entries[:0:0]
	for _, e := range entries {
		if strings.EqualFold(e.Description, SubtotalMarker) {
			continue
		}
		visible = append(visible, e)
	}

	sortEntries(visible, key, descending)
	return visible, nil
}

// Rebuild reprojects one customer's statement from their sales: a debit
// row per sale followed by a subtotal marker carrying the running total.
func (s *Service) Rebuild(ctx context.Context, customerID int64) error {
	customerSales, err := s.sales.ListByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("load sales for customer %d: %w", customerID, err)
	}

	var entries []Entry
	running := decimal.Zero
	for _, sale := range customerSales {
		quantity := 0
		names := make([]string, 0, len(sale.Items))
		for _, li := range sale.Items {
			quantity += li.Quantity
			names = append(names, fmt.Sprintf("%s x%d", li.Name, li.Quantity))
		}
		description := sale.LedgerNotes
		if description == "" {
			description = fmt.Sprintf("Sale #%d", sale.ID)
		}
		entries = append(entries, Entry{
			CustomerID:  customerID,
			Date:        sale.Date,
			Description: description,
			Items:       strings.Join(names, ", "),
			Quantity:    quantity,
			Amount:      sale.Total,
		})

		running = running.Add(decimal.NewFromFloat(sale.Total))
		subtotal, _ := running.Float64()
		entries = append(entries, Entry{
			CustomerID:  customerID,
			Date:        sale.Date,
			Description: SubtotalMarker,
			Amount:      subtotal,
		})
	}

	if err := s.repo.Replace(ctx, customerID, entries); err != nil {
		return fmt.Errorf("replace ledger for customer %d: %w", customerID, err)
	}
	return nil
}

func sortEntries(entries []Entry, key SortKey, descending bool) {
	less := func(a, b Entry) bool {
		switch key {
		case SortDescription:
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		case SortItems:
			return strings.ToLower(a.Items) < strings.ToLower(b.Items)
		case SortQuantity:
			return a.Quantity < b.Quantity
		case SortAmount:
			return a.Amount < b.Amount
		default:
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.ID < b.ID
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if descending {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}
