package customers

import (
	"context"
	"fmt"

	"github.com/shopledger/shopledger/internal/listcache"
	"github.com/shopledger/shopledger/internal/shared"
)

// Service coordinates customer CRUD operations.
type Service struct {
	repo    Repository
	cache   *listcache.Cache
	perPage int
}

// NewService builds Service.
func NewService(repo Repository, cache *listcache.Cache, perPage int) *Service {
	if perPage <= 0 {
		perPage = shared.DefaultPageSize
	}
	return &Service{repo: repo, cache: cache, perPage: perPage}
}

type cachedPage struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	customer := Customer{
		Name:    req.Name,
		Address: req.Address,
		Mobile:  req.Mobile,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, customer)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id

	_ = s.cache.Bump(ctx)
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Mobile != nil {
		updates["mobile"] = *req.Mobile
	}

	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	_ = s.cache.Bump(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of customers matching the search term.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, shared.Pagination, error) {
	key, err := s.cache.Key(ctx, req.Page, req.Search)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list customers: cache key: %w", err)
	}

	var page cachedPage
	err = s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (interface{}, error) {
		result, total, err := s.repo.List(ctx, req, s.perPage)
		if err != nil {
			return nil, err
		}
		return cachedPage{Customers: result, Total: total}, nil
	})
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list customers: %w", err)
	}

	return page.Customers, shared.NewPagination(req.Page, s.perPage, page.Total), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	_ = s.cache.Bump(ctx)
	return nil
}
