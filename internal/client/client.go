// Package client is the Go consumer of the shopledger HTTP API. It speaks
// the enveloped wire format, surfaces problem responses as typed errors
// and tags sale submissions with idempotency keys.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/inventory"
	"github.com/shopledger/shopledger/internal/ledger"
	"github.com/shopledger/shopledger/internal/lookup"
	"github.com/shopledger/shopledger/internal/sales"
)

// ErrMissingID indicates a mutation attempted without a persisted id. The
// request never leaves the client.
var ErrMissingID = errors.New("client: record identifier required")

// APIError carries a problem response from the server.
type APIError struct {
	Status int
	Title  string
	Detail string
	Fields map[string]string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Title)
}

// Client talks to one shopledger server.
type Client struct {
	baseURL        string
	http           *http.Client
	newKey         func() string
	lookupDebounce time.Duration
}

// Option tunes client construction.
type Option func(*Client)

// WithLookupDebounce overrides the typeahead settle window used by the
// lookups this client hands out.
func WithLookupDebounce(d time.Duration) Option {
	return func(c *Client) { c.lookupDebounce = d }
}

// New builds a Client for baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		newKey:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCustomerLookup returns a debounced customer typeahead backed by this
// client. Each keystroke goes through Query; only settled input hits the
// server. The client's debounce override applies unless opts repeat it.
func NewCustomerLookup(c *Client, opts ...lookup.Option[customers.Customer]) *lookup.Lookup[customers.Customer] {
	if c.lookupDebounce > 0 {
		opts = append([]lookup.Option[customers.Customer]{lookup.WithDebounce[customers.Customer](c.lookupDebounce)}, opts...)
	}
	return lookup.New(func(ctx context.Context, query string) ([]customers.Customer, error) {
		matches, _, err := c.ListCustomers(ctx, 1, query)
		return matches, err
	}, opts...)
}

// NewItemLookup returns a debounced inventory typeahead backed by this
// client.
func NewItemLookup(c *Client, opts ...lookup.Option[inventory.Item]) *lookup.Lookup[inventory.Item] {
	if c.lookupDebounce > 0 {
		opts = append([]lookup.Option[inventory.Item]{lookup.WithDebounce[inventory.Item](c.lookupDebounce)}, opts...)
	}
	return lookup.New(func(ctx context.Context, query string) ([]inventory.Item, error) {
		matches, _, err := c.ListItems(ctx, 1, query)
		return matches, err
	}, opts...)
}

// Page carries the pagination fields of a list response.
type Page struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

type itemsPage struct {
	Items []inventory.Item `json:"items"`
	Page
}

type customersPage struct {
	Customers []customers.Customer `json:"customers"`
	Page
}

type salesPage struct {
	Sales []sales.Sale `json:"sales"`
	Page
}

type statement struct {
	Customer *customers.Customer `json:"customer"`
	Entries  []ledger.Entry      `json:"entries"`
}

// ListItems fetches one page of inventory, optionally filtered by search.
func (c *Client) ListItems(ctx context.Context, page int, search string) ([]inventory.Item, Page, error) {
	var out itemsPage
	if err := c.getList(ctx, "/inventory", page, search, &out); err != nil {
		return nil, Page{}, err
	}
	return out.Items, out.Page, nil
}

// ListCustomers fetches one page of customers, optionally filtered by
// search. The first page with a search term doubles as the typeahead
// fetch.
func (c *Client) ListCustomers(ctx context.Context, page int, search string) ([]customers.Customer, Page, error) {
	var out customersPage
	if err := c.getList(ctx, "/customers", page, search, &out); err != nil {
		return nil, Page{}, err
	}
	return out.Customers, out.Page, nil
}

// ListSales fetches one page of sales, optionally filtered by search.
func (c *Client) ListSales(ctx context.Context, page int, search string) ([]sales.Sale, Page, error) {
	var out salesPage
	if err := c.getList(ctx, "/sales", page, search, &out); err != nil {
		return nil, Page{}, err
	}
	return out.Sales, out.Page, nil
}

// CreateItem adds an inventory item.
func (c *Client) CreateItem(ctx context.Context, req inventory.CreateItemRequest) (*inventory.Item, error) {
	var item inventory.Item
	if err := c.do(ctx, http.MethodPost, "/inventory/", req, &item, ""); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies a partial update to an inventory item.
func (c *Client) UpdateItem(ctx context.Context, id int64, req inventory.UpdateItemRequest) (*inventory.Item, error) {
	if id <= 0 {
		return nil, ErrMissingID
	}
	var item inventory.Item
	if err := c.do(ctx, http.MethodPut, "/inventory/"+formatID(id), req, &item, ""); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an inventory item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodDelete, "/inventory/"+formatID(id), nil, nil, "")
}

// CreateCustomer adds a customer.
func (c *Client) CreateCustomer(ctx context.Context, req customers.CreateCustomerRequest) (*customers.Customer, error) {
	var customer customers.Customer
	if err := c.do(ctx, http.MethodPost, "/customers/", req, &customer, ""); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer applies a partial update to a customer.
func (c *Client) UpdateCustomer(ctx context.Context, id int64, req customers.UpdateCustomerRequest) (*customers.Customer, error) {
	if id <= 0 {
		return nil, ErrMissingID
	}
	var customer customers.Customer
	if err := c.do(ctx, http.MethodPut, "/customers/"+formatID(id), req, &customer, ""); err != nil {
		return nil, err
	}
	return &customer, nil
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodDelete, "/customers/"+formatID(id), nil, nil, "")
}

// CreateSale submits a new sale. Each call carries a fresh idempotency
// key, so a transport-level retry of the same call cannot double-record.
func (c *Client) CreateSale(ctx context.Context, req sales.CreateSaleRequest) (*sales.Sale, error) {
	var sale sales.Sale
	if err := c.do(ctx, http.MethodPost, "/sales/", req, &sale, c.newKey()); err != nil {
		return nil, err
	}
	return &sale, nil
}

// UpdateSale replaces an existing sale.
func (c *Client) UpdateSale(ctx context.Context, id int64, req sales.UpdateSaleRequest) (*sales.Sale, error) {
	if id <= 0 {
		return nil, ErrMissingID
	}
	var sale sales.Sale
	if err := c.do(ctx, http.MethodPut, "/sales/"+formatID(id), req, &sale, ""); err != nil {
		return nil, err
	}
	return &sale, nil
}

// NewSaleDraft starts an empty draft for composing a sale interactively.
// Feed it customer picks and items from the lookups, then SubmitSale.
func (c *Client) NewSaleDraft() *sales.Composer {
	return sales.NewComposer()
}

// EditSaleDraft seeds a draft from a persisted sale. stockFor reports the
// currently available quantity per item; the sale's own reservation is
// added back on top so the draft can keep what it already holds.
func (c *Client) EditSaleDraft(s sales.Sale, stockFor func(itemID int64) int) *sales.Composer {
	return sales.EditComposer(s, stockFor)
}

// SubmitSale finishes a draft through the API. Drafts seeded from an
// existing sale update it; fresh drafts create a new one. On failure the
// draft stays editable.
func (c *Client) SubmitSale(ctx context.Context, draft *sales.Composer) (*sales.Sale, error) {
	var out *sales.Sale
	err := draft.Submit(ctx, func(ctx context.Context, id int64, req sales.CreateSaleRequest) error {
		var err error
		if id > 0 {
			out, err = c.UpdateSale(ctx, id, req)
		} else {
			out, err = c.CreateSale(ctx, req)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSale removes a sale. A missing id is rejected locally; no request
// is sent.
func (c *Client) DeleteSale(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingID
	}
	return c.do(ctx, http.MethodDelete, "/sales/"+formatID(id), nil, nil, "")
}

// Ledger fetches a customer's statement ordered by the given column.
func (c *Client) Ledger(ctx context.Context, customerID int64, sort string, descending bool) (*customers.Customer, []ledger.Entry, error) {
	if customerID <= 0 {
		return nil, nil, ErrMissingID
	}
	path := "/customers/" + formatID(customerID) + "/ledger"
	query := url.Values{}
	if sort != "" {
		query.Set("sort", sort)
	}
	if descending {
		query.Set("dir", "desc")
	}
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out statement
	if err := c.do(ctx, http.MethodGet, path, nil, &out, ""); err != nil {
		return nil, nil, err
	}
	return out.Customer, out.Entries, nil
}

func (c *Client) getList(ctx context.Context, resource string, page int, search string, out interface{}) error {
	if page < 1 {
		page = 1
	}
	path := resource + "/" + strconv.Itoa(page)
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	return c.do(ctx, http.MethodGet, path, nil, out, "")
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, idempotencyKey string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeProblem(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("decode response: empty envelope")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeProblem(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	var problem struct {
		Title  string            `json:"title"`
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&problem); err == nil {
		if problem.Title != "" {
			apiErr.Title = problem.Title
		}
		apiErr.Detail = problem.Detail
		apiErr.Fields = problem.Fields
	}
	return apiErr
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
