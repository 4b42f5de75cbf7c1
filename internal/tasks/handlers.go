package tasks

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/activity"
	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/httpx"
	"buildboard-backend/internal/query"
)

type Handler struct {
	svc      *Service
	activity *activity.Recorder
	log      *logrus.Entry
}

func NewHandler(svc *Service, rec *activity.Recorder, log *logrus.Entry) *Handler {
	return &Handler{svc: svc, activity: rec, log: log}
}

// Routes mounts under /api. The session gate is applied by the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tasks", h.List)
	r.Post("/tasks/create", h.Create)
	r.Get("/tasks/{id}", h.Get)
	r.Put("/tasks/{id}", h.Update)
}

// List: GET /api/tasks
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "tasks.Handler.List")

	claims, _ := auth.ClaimsFromContext(r.Context())
	q := r.URL.Query()
	opts := ParseOptions(q, h.svc.Location())
	page := query.PageFromQuery(q, h.svc.PageSize())

	body, cached, err := h.svc.List(r.Context(), claims, opts, page)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	if cached {
		log.Debug("served from cache")
	}
	httpx.WriteRawJSON(w, http.StatusOK, body)
}

// Get: GET /api/tasks/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "tasks.Handler.Get")

	claims, _ := auth.ClaimsFromContext(r.Context())
	t, err := h.svc.Get(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

// Create: POST /api/tasks/create
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "tasks.Handler.Create")

	claims, _ := auth.ClaimsFromContext(r.Context())
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.SubprojectID = strings.TrimSpace(req.SubprojectID)

	t, err := h.svc.Create(r.Context(), claims, req)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	h.activity.Record(r, claims.UserID, activity.EventTaskCreated, map[string]any{
		"task_id":      t.ID,
		"project_id":   t.ProjectID,
		"has_due_date": t.DueDate != nil,
		"priority":     t.Priority,
	})

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"task": t})
}

// Update: PUT /api/tasks/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "tasks.Handler.Update")

	claims, _ := auth.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, log, apperr.InvalidInput("id required"))
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	t, err := h.svc.Update(r.Context(), claims, id, req)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	h.activity.Record(r, claims.UserID, activity.EventTaskUpdated, map[string]any{
		"task_id": t.ID,
		"status":  t.Status,
	})

	httpx.WriteJSON(w, http.StatusOK, t)
}
