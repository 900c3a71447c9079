package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/ledger/export"
	"github.com/shopledger/shopledger/internal/platform/httpx"
)

// CustomerDirectory resolves the customer a statement belongs to.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// Handler wires HTTP endpoints for customer statements.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	directory CustomerDirectory
	pdf       *export.PDFExporter
}

// NewHandler constructs a Handler instance. pdf may be nil when no
// Gotenberg endpoint is configured; PDF exports then report 503.
func NewHandler(logger *slog.Logger, service *Service, directory CustomerDirectory, pdf *export.PDFExporter) *Handler {
	return &Handler{logger: logger, service: service, directory: directory, pdf: pdf}
}

// MountRoutes registers statement routes on the customers router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/ledger", h.Statement)
	r.Get("/{id}/ledger/export.csv", h.ExportCSV)
	r.Get("/{id}/ledger/export.pdf", h.ExportPDF)
}

type statementResponse struct {
	Customer *customers.Customer `json:"customer"`
	Entries  []Entry             `json:"entries"`
}

func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	customer, entries, ok := h.load(w, r)
	if !ok {
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.Data(w, http.StatusOK, statementResponse{Customer: customer, Entries: entries})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	customer, entries, ok := h.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", statementFilename(customer, "csv")))
	if err := export.WriteStatementCSV(w, exportStatement(customer, entries)); err != nil {
		h.logger.Error("write ledger csv failed", slog.Any("error", err), slog.Int64("customer_id", customer.ID))
	}
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "PDF export is not configured")
		return
	}
	customer, entries, ok := h.load(w, r)
	if !ok {
		return
	}

	pdf, err := h.pdf.RenderStatement(r.Context(), exportStatement(customer, entries))
	if err != nil {
		h.logger.Error("render ledger pdf failed", slog.Any("error", err), slog.Int64("customer_id", customer.ID))
		httpx.Problem(w, http.StatusBadGateway, "Export Failed", "could not render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", statementFilename(customer, "pdf")))
	_, _ = w.Write(pdf)
}

// load resolves the customer and their statement rows concurrently. It
// writes the error response itself and reports ok=false on failure.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*customers.Customer, []Entry, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer id")
		return nil, nil, false
	}

	key := SortKey(r.URL.Query().Get("sort"))
	descending := r.URL.Query().Get("dir") == "desc"

	var (
		customer *customers.Customer
		entries  []Entry
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		customer, err = h.directory.Get(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = h.service.Statement(ctx, id, key, descending)
		return err
	})
	if err := g.Wait(); err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "customer not found")
		case errors.Is(err, ErrBadSortKey):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			h.logger.Error("load ledger failed", slog.Any("error", err), slog.Int64("customer_id", id))
			httpx.RespondError(w, err)
		}
		return nil, nil, false
	}
	return customer, entries, true
}

func statementFilename(customer *customers.Customer, ext string) string {
	return fmt.Sprintf("ledger-%d.%s", customer.ID, ext)
}

// exportStatement flattens the customer and their entries into the row
// model the exporters render.
func exportStatement(customer *customers.Customer, entries []Entry) export.Statement {
	st := export.Statement{
		CustomerName:    customer.Name,
		CustomerMobile:  customer.Mobile,
		CustomerAddress: customer.Address,
	}
	for _, e := range entries {
		st.Rows = append(st.Rows, export.Row{
			Date:        e.Date,
			Description: e.Description,
			Items:       e.Items,
			Quantity:    e.Quantity,
			Amount:      e.Amount,
		})
	}
	return st
}
