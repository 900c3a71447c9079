package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/listcache"
	"github.com/shopledger/shopledger/internal/shared"
)

// CustomerDirectory resolves customers referenced by a sale.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// LedgerEnqueuer schedules a rebuild of a customer's ledger projection
// after the customer's sales change.
type LedgerEnqueuer interface {
	EnqueueLedgerRebuild(ctx context.Context, customerID int64) error
}

// Service coordinates sale persistence, stock movements and the caches
// and projections that depend on them.
type Service struct {
	repo      Repository
	customers CustomerDirectory
	cache     *listcache.Cache
	ledger    LedgerEnqueuer
	logger    *slog.Logger
	perPage   int
}

// NewService builds Service. ledger may be nil when no worker is running.
func NewService(repo Repository, dir CustomerDirectory, cache *listcache.Cache, ledger LedgerEnqueuer, logger *slog.Logger, perPage int) *Service {
	if perPage <= 0 {
		perPage = shared.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, customers: dir, cache: cache, ledger: ledger, logger: logger, perPage: perPage}
}

type cachedPage struct {
	Sales []Sale `json:"sales"`
	Total int    `json:"total"`
}

func (s *Service) Create(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	sale, err := s.buildSale(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := reserveStock(ctx, repo, sale.Items); err != nil {
			return err
		}
		id, err := repo.Create(ctx, *sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	s.afterMutation(ctx, sale.CustomerID)
	return sale, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateSaleRequest) (*Sale, error) {
	if id <= 0 {
		return nil, ErrMissingID
	}
	sale, err := s.buildSale(ctx, req)
	if err != nil {
		return nil, err
	}
	sale.ID = id

	var previousCustomer int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		previousCustomer = existing.CustomerID
		// Put the old quantities back before re-reserving, so editing a
		// sale down never trips the stock check.
		for _, li := range existing.Items {
			if err := repo.AdjustItemStock(ctx, li.ItemID, li.Quantity); err != nil {
				return err
			}
		}
		if err := reserveStock(ctx, repo, sale.Items); err != nil {
			return err
		}
		return repo.Update(ctx, *sale)
	})
	if err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}

	s.afterMutation(ctx, sale.CustomerID)
	if previousCustomer != 0 && previousCustomer != sale.CustomerID {
		s.afterMutation(ctx, previousCustomer)
	}
	return sale, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of sales matching the search term, served from the
// versioned list cache when warm.
func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, shared.Pagination, error) {
	key, err := s.cache.Key(ctx, req.Page, req.Search)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list sales: cache key: %w", err)
	}

	var page cachedPage
	err = s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (interface{}, error) {
		sales, total, err := s.repo.List(ctx, req, s.perPage)
		if err != nil {
			return nil, err
		}
		return cachedPage{Sales: sales, Total: total}, nil
	})
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list sales: %w", err)
	}

	return page.Sales, shared.NewPagination(req.Page, s.perPage, page.Total), nil
}

// Delete removes a sale and returns its stock to inventory. A missing
// identifier is rejected before any storage work happens.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingID
	}

	var customerID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		customerID = existing.CustomerID
		for _, li := range existing.Items {
			if err := repo.AdjustItemStock(ctx, li.ItemID, li.Quantity); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}

	s.afterMutation(ctx, customerID)
	return nil
}

// buildSale validates the customer reference and recomputes the total from
// the line items; the submitted total is advisory only.
func (s *Service) buildSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	if req.CustomerID <= 0 {
		return nil, ErrCustomerRequired
	}
	cust, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer %d: %w", req.CustomerID, err)
	}

	sale := &Sale{
		CustomerID:   cust.ID,
		CustomerName: cust.Name,
		Date:         req.Date,
		LedgerNotes:  req.LedgerNotes,
	}
	total := decimal.Zero
	for i, li := range req.Items {
		sale.Items = append(sale.Items, SaleLine{
			ItemID:    li.ItemID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			Price:     li.Price,
			Unit:      li.Unit,
			LineOrder: i,
		})
		line := decimal.NewFromFloat(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity)))
		total = total.Add(line)
	}
	sale.Total, _ = total.Float64()
	return sale, nil
}

func (s *Service) afterMutation(ctx context.Context, customerID int64) {
	_ = s.cache.Bump(ctx)
	if s.ledger == nil || customerID == 0 {
		return
	}
	if err := s.ledger.EnqueueLedgerRebuild(ctx, customerID); err != nil {
		s.logger.Warn("enqueue ledger rebuild", "customer_id", customerID, "error", err)
	}
}

// reserveStock locks each referenced item, checks availability and
// decrements the sold quantity. Both reads and writes share the caller's
// transaction.
func reserveStock(ctx context.Context, repo Repository, lines []SaleLine) error {
	for _, li := range lines {
		stock, err := repo.GetItemStockForUpdate(ctx, li.ItemID)
		if err != nil {
			return fmt.Errorf("item %d: %w", li.ItemID, err)
		}
		if li.Quantity > stock {
			return fmt.Errorf("item %q: have %d, want %d: %w", li.Name, stock, li.Quantity, ErrStockConflict)
		}
		if err := repo.AdjustItemStock(ctx, li.ItemID, -li.Quantity); err != nil {
			return fmt.Errorf("item %d: %w", li.ItemID, err)
		}
	}
	return nil
}
