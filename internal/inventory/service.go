package inventory

import (
	"context"
	"fmt"

	"github.com/shopledger/shopledger/internal/listcache"
	"github.com/shopledger/shopledger/internal/shared"
)

// Service coordinates inventory CRUD operations.
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
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if !req.Unit.Valid() {
		return nil, ErrInvalidUnit
	}
	item := Item{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Unit:        req.Unit,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, item)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	item.ID = id

	_ = s.cache.Bump(ctx)
	return &item, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateItemRequest) (*Item, error) {
	if req.Unit != nil && !req.Unit.Valid() {
		return nil, ErrInvalidUnit
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Unit != nil {
		updates["unit"] = string(*req.Unit)
	}

	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	_ = s.cache.Bump(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of items matching the search term, served from the
// versioned list cache when warm.
func (s *Service) List(ctx context.Context, req ListItemsRequest) ([]Item, shared.Pagination, error) {
	key, err := s.cache.Key(ctx, req.Page, req.Search)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list items: cache key: %w", err)
	}

	var page cachedPage
	err = s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (interface{}, error) {
		items, total, err := s.repo.List(ctx, req, s.perPage)
		if err != nil {
			return nil, err
		}
		return cachedPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list items: %w", err)
	}

	return page.Items, shared.NewPagination(req.Page, s.perPage, page.Total), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	_ = s.cache.Bump(ctx)
	return nil
}
