package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopledger/shopledger/internal/inventory"
)

// ComposerState tracks the lifecycle of a draft sale.
type ComposerState string

const (
	StateEmpty      ComposerState = "empty"
	StateEditing    ComposerState = "editing"
	StateSubmitting ComposerState = "submitting"
	StateClosed     ComposerState = "closed"
)

// Line is one draft row held by the composer. Stock is the available
// quantity captured when the item was picked; quantity edits clamp to it.
type Line struct {
	ItemID   int64
	Name     string
	Unit     inventory.Unit
	Price    float64
	Quantity int
	Stock    int
}

// Composer assembles a sale draft one field at a time and produces a
// validated payload. It is not safe for concurrent use; each draft owns
// its composer.
type Composer struct {
	state        ComposerState
	editingID    int64
	customerID   int64
	customerName string
	date         string
	notes        string
	lines        []Line
	total        decimal.Decimal
}

// NewComposer starts an empty draft dated today.
func NewComposer() *Composer {
	return &Composer{
		state: StateEmpty,
		date:  time.Now().Format(DateLayout),
	}
}

// EditComposer seeds a draft from an existing sale. The sale's identity is
// held aside and reattached at submit, so the draft itself is id-free.
func EditComposer(s Sale, stockFor func(itemID int64) int) *Composer {
	c := &Composer{
		state:        StateEditing,
		editingID:    s.ID,
		customerID:   s.CustomerID,
		customerName: s.CustomerName,
		date:         s.Date,
		notes:        s.LedgerNotes,
	}
	for _, li := range s.Items {
		// The sale's own quantity is already reserved in inventory, so it
		// stays available to this draft on top of current stock.
		stock := li.Quantity
		if stockFor != nil {
			stock = stockFor(li.ItemID) + li.Quantity
		}
		c.lines = append(c.lines, Line{
			ItemID:   li.ItemID,
			Name:     li.Name,
			Unit:     li.Unit,
			Price:    li.Price,
			Quantity: li.Quantity,
			Stock:    stock,
		})
	}
	c.recalc()
	return c
}

func (c *Composer) State() ComposerState { return c.state }
func (c *Composer) Editing() bool        { return c.editingID > 0 }
func (c *Composer) Lines() []Line        { return append([]Line(nil), c.lines...) }
func (c *Composer) Total() float64       { f, _ := c.total.Float64(); return f }

// SelectCustomer replaces any previously chosen customer outright.
func (c *Composer) SelectCustomer(id int64, name string) {
	c.customerID = id
	c.customerName = name
	c.touch()
}

func (c *Composer) SetDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("parse sale date: %w", err)
	}
	c.date = date
	c.touch()
	return nil
}

func (c *Composer) SetNotes(notes string) {
	c.notes = notes
	c.touch()
}

// AddItem appends the item as a new line, or bumps the quantity of the
// existing line when the item is already in the draft. Quantity never
// exceeds the stock captured at pick time.
func (c *Composer) AddItem(item inventory.Item) error {
	if item.Quantity < 1 {
		return ErrOutOfStock
	}
	for i := range c.lines {
		if c.lines[i].ItemID == item.ID {
			if c.lines[i].Quantity < c.lines[i].Stock {
				c.lines[i].Quantity++
			}
			c.touch()
			return nil
		}
	}
	c.lines = append(c.lines, Line{
		ItemID:   item.ID,
		Name:     item.Name,
		Unit:     item.Unit,
		Price:    item.Price,
		Quantity: 1,
		Stock:    item.Quantity,
	})
	c.touch()
	return nil
}

// SetQuantity clamps the requested quantity into [1, stock] for the line
// at idx.
func (c *Composer) SetQuantity(idx, qty int) error {
	if idx < 0 || idx >= len(c.lines) {
		return ErrLineIndex
	}
	if qty < 1 {
		qty = 1
	}
	if qty > c.lines[idx].Stock {
		qty = c.lines[idx].Stock
	}
	c.lines[idx].Quantity = qty
	c.touch()
	return nil
}

// SetPrice overrides the unit price for the line at idx.
func (c *Composer) SetPrice(idx int, price float64) error {
	if idx < 0 || idx >= len(c.lines) {
		return ErrLineIndex
	}
	if price < 0 {
		price = 0
	}
	c.lines[idx].Price = price
	c.touch()
	return nil
}

// RemoveLine drops the line at idx; later lines shift down.
func (c *Composer) RemoveLine(idx int) error {
	if idx < 0 || idx >= len(c.lines) {
		return ErrLineIndex
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	c.touch()
	return nil
}

// RefreshStock re-clamps draft quantities against freshly fetched items.
func (c *Composer) RefreshStock(items []inventory.Item) {
	byID := make(map[int64]int, len(items))
	for _, it := range items {
		byID[it.ID] = it.Quantity
	}
	for i := range c.lines {
		if avail, ok := byID[c.lines[i].ItemID]; ok {
			c.lines[i].Stock = avail
			if c.lines[i].Quantity > avail {
				c.lines[i].Quantity = avail
			}
			if c.lines[i].Quantity < 1 {
				c.lines[i].Quantity = 1
			}
		}
	}
	c.touch()
}

// Validate reports per-field problems; an empty map means the draft is
// ready to submit.
func (c *Composer) Validate() map[string]string {
	problems := make(map[string]string)
	if c.customerID <= 0 {
		problems["customer"] = "a customer must be selected"
	}
	if _, err := time.Parse(DateLayout, c.date); err != nil {
		problems["date"] = "date must be YYYY-MM-DD"
	}
	if len(c.lines) == 0 {
		problems["items"] = "at least one line item is required"
	}
	for i, li := range c.lines {
		if li.Quantity < 1 {
			problems[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be at least 1"
		}
		if li.Price < 0 {
			problems[fmt.Sprintf("items[%d].price", i)] = "price cannot be negative"
		}
	}
	return problems
}

// Payload builds the submit request from the current draft.
func (c *Composer) Payload() CreateSaleRequest {
	req := CreateSaleRequest{
		CustomerID:   c.customerID,
		CustomerName: c.customerName,
		Date:         c.date,
		LedgerNotes:  c.notes,
		Total:        c.Total(),
	}
	for _, li := range c.lines {
		req.Items = append(req.Items, SaleLineRequest{
			ItemID:   li.ItemID,
			Name:     li.Name,
			Quantity: li.Quantity,
			Price:    li.Price,
			Unit:     li.Unit,
		})
	}
	return req
}

// Submit validates the draft and hands the payload to fn. On success the
// composer closes; on failure it returns to editing with the draft intact.
func (c *Composer) Submit(ctx context.Context, fn func(ctx context.Context, id int64, req CreateSaleRequest) error) error {
	if problems := c.Validate(); len(problems) > 0 {
		keys := make([]string, 0, len(problems))
		for k := range problems {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: %s", ErrInvalidDraft, keys[0])
	}
	c.state = StateSubmitting
	if err := fn(ctx, c.editingID, c.Payload()); err != nil {
		c.state = StateEditing
		return err
	}
	c.state = StateClosed
	return nil
}

// Cancel abandons the draft.
func (c *Composer) Cancel() {
	c.state = StateClosed
}

func (c *Composer) touch() {
	if c.state == StateEmpty {
		c.state = StateEditing
	}
	c.recalc()
}

func (c *Composer) recalc() {
	total := decimal.Zero
	for _, li := range c.lines {
		line := decimal.NewFromFloat(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity)))
		total = total.Add(line)
	}
	c.total = total
}
