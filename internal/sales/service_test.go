package sales

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/inventory"
	"github.com/shopledger/shopledger/internal/listcache"
)

type mockRepository struct {
	sales  map[int64]Sale
	stock  map[int64]int
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		sales:  make(map[int64]Sale),
		stock:  map[int64]int{7: 4, 8: 10},
		nextID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := s
	copied.Items = append([]SaleLine(nil), s.Items...)
	return &copied, nil
}

func (m *mockRepository) List(_ context.Context, req ListSalesRequest, perPage int) ([]Sale, int, error) {
	var matched []Sale
	for id := int64(1); id < m.nextID; id++ {
		s, ok := m.sales[id]
		if !ok {
			continue
		}
		if req.Search == "" || strings.Contains(strings.ToLower(s.CustomerName), strings.ToLower(req.Search)) {
			matched = append(matched, s)
		}
	}
	total := len(matched)
	page := req.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockRepository) Create(_ context.Context, sale Sale) (int64, error) {
	sale.ID = m.nextID
	m.nextID++
	m.sales[sale.ID] = sale
	return sale.ID, nil
}

func (m *mockRepository) Update(_ context.Context, sale Sale) error {
	if _, ok := m.sales[sale.ID]; !ok {
		return ErrNotFound
	}
	m.sales[sale.ID] = sale
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.sales[id]; !ok {
		return ErrNotFound
	}
	delete(m.sales, id)
	return nil
}

func (m *mockRepository) ListByCustomer(_ context.Context, customerID int64) ([]Sale, error) {
	var out []Sale
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.sales[id]; ok && s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepository) GetItemStockForUpdate(_ context.Context, itemID int64) (int, error) {
	qty, ok := m.stock[itemID]
	if !ok {
		return 0, ErrNotFound
	}
	return qty, nil
}

func (m *mockRepository) AdjustItemStock(_ context.Context, itemID int64, delta int) error {
	if _, ok := m.stock[itemID]; !ok {
		return ErrNotFound
	}
	m.stock[itemID] += delta
	return nil
}

type mockDirectory struct{}

func (mockDirectory) Get(_ context.Context, id int64) (*customers.Customer, error) {
	if id == 3 {
		return &customers.Customer{ID: 3, Name: "Jane Doe", Mobile: "555-0101"}, nil
	}
	return nil, customers.ErrNotFound
}

type mockEnqueuer struct {
	customerIDs []int64
}

func (m *mockEnqueuer) EnqueueLedgerRebuild(_ context.Context, customerID int64) error {
	m.customerIDs = append(m.customerIDs, customerID)
	return nil
}

func newTestService(repo *mockRepository, enq *mockEnqueuer) *Service {
	return NewService(repo, mockDirectory{}, listcache.New(nil, "sales", 0), enq, nil, 10)
}

func riceLine(qty int) SaleLineRequest {
	return SaleLineRequest{ItemID: 7, Name: "Rice", Quantity: qty, Price: 50, Unit: inventory.UnitKg}
}

func TestCreateSaleDecrementsStockAndRecomputesTotal(t *testing.T) {
	repo := newMockRepository()
	enq := &mockEnqueuer{}
	svc := newTestService(repo, enq)

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID:   3,
		CustomerName: "Jane Doe",
		Date:         "2026-08-15",
		Items:        []SaleLineRequest{riceLine(3)},
		Total:        999, // client total is ignored
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), sale.ID)
	assert.InDelta(t, 150.0, sale.Total, 1e-9)
	assert.Equal(t, 1, repo.stock[7])
	assert.Equal(t, []int64{3}, enq.customerIDs)
}

func TestCreateSaleStockConflict(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockEnqueuer{})

	_, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 3,
		Date:       "2026-08-15",
		Items:      []SaleLineRequest{riceLine(5)},
	})
	assert.ErrorIs(t, err, ErrStockConflict)
	assert.Empty(t, repo.sales)
}

func TestCreateSaleUnknownCustomer(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockEnqueuer{})

	_, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 99,
		Date:       "2026-08-15",
		Items:      []SaleLineRequest{riceLine(1)},
	})
	assert.ErrorIs(t, err, customers.ErrNotFound)
}

func TestUpdateSaleRestoresStockFirst(t *testing.T) {
	repo := newMockRepository()
	enq := &mockEnqueuer{}
	svc := newTestService(repo, enq)

	created, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 3,
		Date:       "2026-08-15",
		Items:      []SaleLineRequest{riceLine(4)},
	})
	require.NoError(t, err)
	require.Equal(t, 0, repo.stock[7])

	// Only 4 units exist and they are all on this sale. Re-reserving the
	// same 4 must succeed because the old reservation is released first.
	updated, err := svc.Update(context.Background(), created.ID, UpdateSaleRequest{
		CustomerID: 3,
		Date:       "2026-08-16",
		Items:      []SaleLineRequest{riceLine(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-16", updated.Date)
	assert.Equal(t, 0, repo.stock[7])
}

func TestUpdateSaleShrinkReturnsStock(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockEnqueuer{})

	created, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 3,
		Date:       "2026-08-15",
		Items:      []SaleLineRequest{riceLine(3)},
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, UpdateSaleRequest{
		CustomerID: 3,
		Date:       "2026-08-15",
		Items:      []SaleLineRequest{riceLine(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.stock[7])
}

func TestDeleteSaleRequiresID(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockEnqueuer{})

	assert.ErrorIs(t, svc.Delete(context.Background(), 0), ErrMissingID)
	assert.ErrorIs(t, svc.Delete(context.Background(), -5), ErrMissingID)
}

func TestDeleteSaleReturnsStock(t *testing.T) {
	repo := newMockRepository()
	enq := &mockEnqueuer{}
	svc := newTestService(repo, enq)

	created, err := svc.Create(context.Background(), CreateSaleRequest{
		CustomerID: 3,
		Date:       "2026-08-15",
		Items:      []SaleLineRequest{riceLine(2)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, repo.stock[7])

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Equal(t, 4, repo.stock[7])
	assert.Equal(t, []int64{3, 3}, enq.customerIDs)
}

func TestListSalesPaginates(t *testing.T) {
	repo := newMockRepository()
	repo.stock[7] = 100
	svc := newTestService(repo, &mockEnqueuer{})

	for i := 0; i < 12; i++ {
		_, err := svc.Create(context.Background(), CreateSaleRequest{
			CustomerID: 3,
			Date:       "2026-08-15",
			Items:      []SaleLineRequest{riceLine(1)},
		})
		require.NoError(t, err)
	}

	sales, pagination, err := svc.List(context.Background(), ListSalesRequest{Page: 2})
	require.NoError(t, err)
	assert.Len(t, sales, 2)
	assert.Equal(t, 12, pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)
	assert.True(t, pagination.HasPrev())
	assert.False(t, pagination.HasNext())
}
