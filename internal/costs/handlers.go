package costs

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/activity"
	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/httpx"
	"buildboard-backend/internal/query"
)

const DefaultPageSize = 10

type Handler struct {
	store    *Store
	activity *activity.Recorder
	log      *logrus.Entry
	pageSize int
	loc      *time.Location
}

func NewHandler(store *Store, rec *activity.Recorder, log *logrus.Entry, pageSize int, loc *time.Location) *Handler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{store: store, activity: rec, log: log, pageSize: pageSize, loc: loc}
}

// Routes mounts under /api behind the session gate.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/costboard", h.ListItems)
	r.Get("/costboard/{id}", h.GetItem)
	r.Put("/costboard/{id}", h.UpdateItem)
	r.Delete("/costboard/{id}", h.DeleteItem)
	r.Post("/cost-entry", h.CreateItem)

	r.Get("/cost-reports", h.ListReports)
	r.Post("/save-cost-report", h.SaveReport)
}

// ListItems: GET /api/costboard
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "costs.Handler.ListItems")

	q := r.URL.Query()
	p := query.PageFromQuery(q, h.pageSize)

	items, total, err := h.store.ListItems(r.Context(), ItemPredicates(q), p)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ItemList{
		Items:      items,
		Total:      total,
		Page:       p.Number,
		Limit:      p.Limit(),
		TotalPages: p.TotalPages(total),
	})
}

// GetItem: GET /api/costboard/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "costs.Handler.GetItem"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}

// CreateItem: POST /api/cost-entry
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "costs.Handler.CreateItem")

	var in ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	row, err := h.validate(in, true)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	if err := h.checkReferences(r.Context(), row); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	it, err := h.store.CreateItem(r.Context(), row)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		h.activity.Record(r, claims.UserID, activity.EventCostItemCreated, map[string]any{
			"cost_item_id": it.ID,
			"project_id":   it.ProjectID,
			"status":       it.Status,
		})
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "Cost item created",
		"costItem": it,
	})
}

// UpdateItem: PUT /api/costboard/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "costs.Handler.UpdateItem")

	var in ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	row, err := h.validate(in, false)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	it, err := h.store.UpdateItem(r.Context(), chi.URLParam(r, "id"), row)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}

// DeleteItem: DELETE /api/costboard/{id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "costs.Handler.DeleteItem"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Deleted successfully"})
}

// ListReports: GET /api/cost-reports
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "costs.Handler.ListReports")

	q := r.URL.Query()
	set, err := ReportPredicates(q, h.loc)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	p := query.PageFromQuery(q, h.pageSize)

	reports, total, err := h.store.ListReports(r.Context(), set, p)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ReportList{
		Reports:    reports,
		TotalCount: total,
		Page:       p.Number,
		Limit:      p.Limit(),
		TotalPages: p.TotalPages(total),
	})
}

// SaveReport: POST /api/save-cost-report
func (h *Handler) SaveReport(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "costs.Handler.SaveReport")

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, log, apperr.Unauthenticated("unauthorized"))
		return
	}

	var in ReportInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	in.SubprojectID = strings.TrimSpace(in.SubprojectID)
	if in.PublicID == "" || in.URL == "" || in.OriginalFilename == "" || in.Format == "" ||
		in.ProjectID <= 0 || in.SubprojectID == "" {
		httpx.WriteError(w, log, apperr.InvalidInput("missing or invalid fields"))
		return
	}

	saved, err := h.store.SaveReport(r.Context(), in, claims.UserID)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, saved)
}

// validate checks required fields and converts the body to a storable row.
// projectId and subprojectId are only read on create.
func (h *Handler) validate(in ItemInput, create bool) (itemRow, error) {
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	if in.ItemName == "" || in.Date == "" || in.EstimatedCost == nil || in.Status == "" || in.CategoryID == "" {
		return itemRow{}, apperr.InvalidInput("missing required fields")
	}
	if create && in.ProjectID <= 0 {
		return itemRow{}, apperr.InvalidInput("missing required fields")
	}
	if !in.Status.Valid() {
		return itemRow{}, apperr.InvalidInput("invalid status")
	}
	if in.EstimatedCost.IsNegative() || (in.ActualCost.Valid && in.ActualCost.Decimal.IsNegative()) {
		return itemRow{}, apperr.InvalidInput("costs must not be negative")
	}
	date, ok := query.ParseDate(strings.TrimSpace(in.Date), h.loc)
	if !ok {
		return itemRow{}, apperr.InvalidInput("invalid date")
	}

	row := itemRow{
		ItemName:      in.ItemName,
		FloorPhase:    strings.TrimSpace(in.FloorPhase),
		Contractor:    strings.TrimSpace(in.Contractor),
		Date:          date,
		EstimatedCost: *in.EstimatedCost,
		ActualCost:    in.ActualCost,
		Status:        in.Status,
		CategoryID:    in.CategoryID,
		ProjectID:     in.ProjectID,
		Notes:         in.Notes,
	}
	if sp := strings.TrimSpace(in.SubprojectID); sp != "" {
		row.SubprojectID = &sp
	}
	return row, nil
}

// checkReferences reports the first missing referenced row: project,
// then subproject when given, then category.
func (h *Handler) checkReferences(ctx context.Context, row itemRow) error {
	if err := h.mustExist(ctx, "projects", row.ProjectID, "project not found"); err != nil {
		return err
	}
	if row.SubprojectID != nil {
		if err := h.mustExist(ctx, "subprojects", *row.SubprojectID, "subproject not found"); err != nil {
			return err
		}
	}
	return h.mustExist(ctx, "categories", row.CategoryID, "category not found")
}

func (h *Handler) mustExist(ctx context.Context, table string, id any, reason string) error {
	ok, err := h.store.exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(reason)
	}
	return nil
}
