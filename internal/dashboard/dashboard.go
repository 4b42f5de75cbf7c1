// Package dashboard serves the admin totals.
package dashboard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/httpx"
)

type Summary struct {
	TotalProjects      int             `json:"totalProjects"`
	TotalTasks         int             `json:"totalTasks"`
	TotalUsers         int             `json:"totalUsers"`
	TotalCostItems     int             `json:"totalCostItems"`
	TotalEstimatedCost decimal.Decimal `json:"totalEstimatedCost"`
	TotalActualCost    decimal.Decimal `json:"totalActualCost"`
}

type Store struct {
	db *sqlx.DB
}

func NewStore(dbx *sqlx.DB) *Store {
	return &Store{db: dbx}
}

// Summary runs each aggregate concurrently. Sums over no rows are zero.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var (
		out       Summary
		estimated decimal.NullDecimal
		actual    decimal.NullDecimal
	)

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, table string) {
		g.Go(func() error {
			return s.db.GetContext(gctx, dst, `SELECT COUNT(*) FROM `+table)
		})
	}
	count(&out.TotalProjects, "projects")
	count(&out.TotalTasks, "tasks")
	count(&out.TotalUsers, "users")
	count(&out.TotalCostItems, "cost_items")
	g.Go(func() error {
		return s.db.GetContext(gctx, &estimated, `SELECT SUM(estimated_cost) FROM cost_items`)
	})
	g.Go(func() error {
		return s.db.GetContext(gctx, &actual, `SELECT SUM(actual_cost) FROM cost_items`)
	})
	if err := g.Wait(); err != nil {
		return Summary{}, apperr.Storage(fmt.Errorf("dashboard summary: %w", err))
	}

	out.TotalEstimatedCost = orZero(estimated)
	out.TotalActualCost = orZero(actual)
	return out, nil
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

type Handler struct {
	store *Store
	log   *logrus.Entry
}

func NewHandler(store *Store, log *logrus.Entry) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts under /api behind the session gate.
func (h *Handler) Routes(r chi.Router) {
	r.With(auth.RequireRole(auth.RoleAdmin)).Get("/admin-dashboard", h.Summary)
}

// Summary: GET /api/admin-dashboard
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Summary(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "dashboard.Handler.Summary"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}
