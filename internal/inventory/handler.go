package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shopledger/shopledger/internal/platform/httpx"
	"github.com/shopledger/shopledger/internal/shared"
)

// Handler wires HTTP endpoints for inventory CRUD.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers inventory routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{page}", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type listResponse struct {
	Items []Item `json:"items"`
	shared.Pagination
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid page number")
		return
	}

	req := ListItemsRequest{Page: page, Search: r.URL.Query().Get("search")}
	items, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list inventory failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}

	httpx.Data(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields := validationFields(h.validate.Struct(req)); fields != nil {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}

	item, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create inventory item failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.Data(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}

	var req UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields := validationFields(h.validate.Struct(req)); fields != nil {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}

	item, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update inventory item failed", slog.Any("error", err), slog.Int64("id", id))
		h.respondErr(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete inventory item failed", slog.Any("error", err), slog.Int64("id", id))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "inventory item not found")
	case errors.Is(err, ErrInvalidUnit):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
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
