package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shopledger/shopledger/internal/customers"
	"github.com/shopledger/shopledger/internal/inventory"
	"github.com/shopledger/shopledger/internal/ledger"
	"github.com/shopledger/shopledger/internal/sales"
	"github.com/shopledger/shopledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	InventoryHandler *inventory.Handler
	CustomersHandler *customers.Handler
	SalesHandler     *sales.Handler
	LedgerHandler    *ledger.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Shopledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	r.Route("/customers", func(r chi.Router) {
		params.CustomersHandler.MountRoutes(r)
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
	})
	r.Route("/sales", params.SalesHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
