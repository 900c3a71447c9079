package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/shopledger/internal/inventory"
)

func rice() inventory.Item {
	return inventory.Item{ID: 7, Name: "Rice", Quantity: 4, Price: 50, Unit: inventory.UnitKg}
}

func TestComposerBuildsSale(t *testing.T) {
	c := NewComposer()
	assert.Equal(t, StateEmpty, c.State())

	c.SelectCustomer(3, "Jane Doe")
	assert.Equal(t, StateEditing, c.State())

	require.NoError(t, c.AddItem(rice()))
	require.NoError(t, c.SetQuantity(0, 3))
	require.NoError(t, c.SetDate("2026-08-15"))

	assert.Empty(t, c.Validate())
	assert.InDelta(t, 150.0, c.Total(), 1e-9)

	payload := c.Payload()
	assert.Equal(t, int64(3), payload.CustomerID)
	assert.Equal(t, "Jane Doe", payload.CustomerName)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, 3, payload.Items[0].Quantity)
	assert.InDelta(t, 150.0, payload.Total, 1e-9)
}

func TestComposerDuplicateAddIncrementsQuantity(t *testing.T) {
	c := NewComposer()
	require.NoError(t, c.AddItem(rice()))
	require.NoError(t, c.AddItem(rice()))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestComposerDuplicateAddStopsAtStock(t *testing.T) {
	item := rice()
	item.Quantity = 2
	c := NewComposer()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.AddItem(item))
	}

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestComposerRejectsOutOfStockItem(t *testing.T) {
	item := rice()
	item.Quantity = 0
	c := NewComposer()
	assert.ErrorIs(t, c.AddItem(item), ErrOutOfStock)
	assert.Empty(t, c.Lines())
}

func TestComposerQuantityClamps(t *testing.T) {
	c := NewComposer()
	require.NoError(t, c.AddItem(rice()))

	require.NoError(t, c.SetQuantity(0, 99))
	assert.Equal(t, 4, c.Lines()[0].Quantity)

	require.NoError(t, c.SetQuantity(0, 0))
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	assert.ErrorIs(t, c.SetQuantity(2, 1), ErrLineIndex)
}

func TestComposerRemoveLineShiftsIndexes(t *testing.T) {
	c := NewComposer()
	require.NoError(t, c.AddItem(rice()))
	sugar := inventory.Item{ID: 8, Name: "Sugar", Quantity: 10, Price: 30, Unit: inventory.UnitKg}
	require.NoError(t, c.AddItem(sugar))

	require.NoError(t, c.RemoveLine(0))
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Sugar", lines[0].Name)
	assert.InDelta(t, 30.0, c.Total(), 1e-9)
}

func TestComposerTotalTracksEveryMutation(t *testing.T) {
	c := NewComposer()
	require.NoError(t, c.AddItem(rice()))
	assert.InDelta(t, 50.0, c.Total(), 1e-9)

	require.NoError(t, c.SetQuantity(0, 3))
	assert.InDelta(t, 150.0, c.Total(), 1e-9)

	require.NoError(t, c.SetPrice(0, 45.5))
	assert.InDelta(t, 136.5, c.Total(), 1e-9)

	require.NoError(t, c.RemoveLine(0))
	assert.InDelta(t, 0.0, c.Total(), 1e-9)
}

func TestEditComposerStripsIDUntilSubmit(t *testing.T) {
	sale := Sale{
		ID:           11,
		CustomerID:   3,
		CustomerName: "Jane Doe",
		Date:         "2026-08-15",
		Items: []SaleLine{
			{ItemID: 7, Name: "Rice", Quantity: 2, Price: 50, Unit: inventory.UnitKg},
		},
	}
	c := EditComposer(sale, func(itemID int64) int { return 6 })
	assert.True(t, c.Editing())
	assert.Equal(t, StateEditing, c.State())
	assert.InDelta(t, 100.0, c.Total(), 1e-9)

	var submittedID int64
	err := c.Submit(context.Background(), func(ctx context.Context, id int64, req CreateSaleRequest) error {
		submittedID = id
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), submittedID)
	assert.Equal(t, StateClosed, c.State())
}

func TestComposerSubmitRejectsInvalidDraft(t *testing.T) {
	c := NewComposer()
	require.NoError(t, c.AddItem(rice()))

	called := false
	err := c.Submit(context.Background(), func(ctx context.Context, id int64, req CreateSaleRequest) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidDraft)
	assert.False(t, called)
	assert.Equal(t, StateEditing, c.State())
}

func TestComposerSubmitFailureReturnsToEditing(t *testing.T) {
	c := NewComposer()
	c.SelectCustomer(3, "Jane Doe")
	require.NoError(t, c.AddItem(rice()))

	err := c.Submit(context.Background(), func(ctx context.Context, id int64, req CreateSaleRequest) error {
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, StateEditing, c.State())
	assert.Len(t, c.Lines(), 1)
}

func TestComposerRefreshStockReclamps(t *testing.T) {
	c := NewComposer()
	require.NoError(t, c.AddItem(rice()))
	require.NoError(t, c.SetQuantity(0, 4))

	lowStock := rice()
	lowStock.Quantity = 2
	c.RefreshStock([]inventory.Item{lowStock})

	lines := c.Lines()
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, lines[0].Stock)
}
