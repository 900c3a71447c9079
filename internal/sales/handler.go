package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/platform/httpx"
	"github.com/shopledger/shopledger/internal/shared"
)

// IdempotencyClaimer claims submission keys so a retried create cannot
// record the sale twice.
type IdempotencyClaimer interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Release(ctx context.Context, key string) error
}

// Handler wires HTTP endpoints for sales.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	idem     IdempotencyClaimer
	validate *validator.Validate
}

// NewHandler constructs a Handler instance. idem may be nil; submissions
// then rely on the client not retrying blindly.
func NewHandler(logger *slog.Logger, service *Service, idem IdempotencyClaimer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		idem:     idem,
		validate: validator.New(),
	}
}

// MountRoutes registers sales routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{page}", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type listResponse struct {
	Sales []Sale `json:"sales"`
	shared.Pagination
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid page number")
		return
	}

	req := ListSalesRequest{Page: page, Search: r.URL.Query().Get("search")}
	sales, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list sales failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if sales == nil {
		sales = []Sale{}
	}

	httpx.Data(w, http.StatusOK, listResponse{Sales: sales, Pagination: pagination})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields := validationFields(h.validate.Struct(req)); fields != nil {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, "sales"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", "this submission was already processed")
				return
			}
			h.logger.Error("claim idempotency key failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	sale, err := h.service.Create(r.Context(), req)
	if err != nil {
		if key != "" && h.idem != nil {
			if relErr := h.idem.Release(r.Context(), key); relErr != nil {
				h.logger.Warn("release idempotency key failed", slog.Any("error", relErr))
			}
		}
		h.logger.Error("create sale failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.Data(w, http.StatusCreated, sale)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}

	var req UpdateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields := validationFields(h.validate.Struct(req)); fields != nil {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}

	sale, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update sale failed", slog.Any("error", err), slog.Int64("id", id))
		h.respondErr(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, sale)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete sale failed", slog.Any("error", err), slog.Int64("id", id))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
	case errors.Is(err, customers.ErrNotFound):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "customer not found")
	case errors.Is(err, ErrStockConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrMissingID), errors.Is(err, ErrCustomerRequired):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func validationFields(err error) map[string]string {
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
		return fields
	}
	fields["request"] = err.Error()
	return fields
}
