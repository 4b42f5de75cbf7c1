package projects

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/httpx"
	"buildboard-backend/internal/query"
)

type Handler struct {
	store    *Store
	log      *logrus.Entry
	pageSize int
	loc      *time.Location
}

func NewHandler(store *Store, log *logrus.Entry, pageSize int, loc *time.Location) *Handler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{store: store, log: log, pageSize: pageSize, loc: loc}
}

// Routes mounts under /api behind the session gate. Creating projects is admin only.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/projects", h.List)
	r.With(auth.RequireRole(auth.RoleAdmin)).Post("/projects", h.Create)
	r.Get("/projects/{id}", h.Get)

	r.Get("/subprojects", h.ListSubprojects)
	r.Post("/subprojects", h.CreateSubproject)

	r.Post("/milestones", h.CreateMilestone)
	r.Put("/milestones/{id}", h.UpdateMilestone)
}

// List: GET /api/projects
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := query.PageFromQuery(r.URL.Query(), h.pageSize)

	rows, total, err := h.store.List(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "projects.Handler.List"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, List{
		Projects:   rows,
		Total:      total,
		Page:       p.Number,
		TotalPages: p.TotalPages(total),
	})
}

// Get: GET /api/projects/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "projects.Handler.Get")

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid project id"))
		return
	}
	d, err := h.store.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

// Create: POST /api/projects
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "projects.Handler.Create")

	claims, _ := auth.ClaimsFromContext(r.Context())

	var in ProjectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		httpx.WriteError(w, log, apperr.InvalidInput("title is required"))
		return
	}
	if in.Budget != nil && in.Budget.IsNegative() {
		httpx.WriteError(w, log, apperr.InvalidInput("budget must not be negative"))
		return
	}

	row := projectRow{
		Title:    in.Title,
		Location: strings.TrimSpace(in.Location),
		Image:    strings.TrimSpace(in.Image),
		UserID:   claims.UserID,
	}
	if in.Budget != nil {
		row.Budget = *in.Budget
	}
	var ok bool
	if row.StartDate, ok = h.optionalDate(in.StartDate); !ok {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid startDate"))
		return
	}
	if row.ExpectedEndDate, ok = h.optionalDate(in.ExpectedEndDate); !ok {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid expectedEndDate"))
		return
	}

	d, err := h.store.Create(r.Context(), row)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, d)
}

// ListSubprojects: GET /api/subprojects?projectId=
func (h *Handler) ListSubprojects(w http.ResponseWriter, r *http.Request) {
	projectID, ok := query.Int(r.URL.Query(), "projectId")
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, []Subproject{})
		return
	}

	rows, err := h.store.ListSubprojects(r.Context(), projectID)
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "projects.Handler.ListSubprojects"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"subprojects": rows,
		"total":       len(rows),
	})
}

// CreateSubproject: POST /api/subprojects
func (h *Handler) CreateSubproject(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "projects.Handler.CreateSubproject")

	var in SubprojectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.CreatedAt == "" || in.ProjectID <= 0 {
		httpx.WriteError(w, log, apperr.InvalidInput("missing required fields"))
		return
	}
	createdAt, ok := query.ParseDate(strings.TrimSpace(in.CreatedAt), h.loc)
	if !ok {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid createdAt"))
		return
	}

	sp, err := h.store.CreateSubproject(r.Context(), in.ProjectID, in.Name, createdAt)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sp)
}

// CreateMilestone: POST /api/milestones
func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "projects.Handler.CreateMilestone")

	var in MilestoneInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	if in.Title == "" || in.DueDate == "" || in.Status == "" || in.ProjectID <= 0 {
		httpx.WriteError(w, log, apperr.InvalidInput("missing required fields"))
		return
	}
	due, ok := query.ParseDate(strings.TrimSpace(in.DueDate), h.loc)
	if !ok {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid dueDate"))
		return
	}

	m, err := h.store.CreateMilestone(r.Context(), in.ProjectID, in.Title, due, in.Status)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

// UpdateMilestone: PUT /api/milestones/{id}
func (h *Handler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "projects.Handler.UpdateMilestone")

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid milestone id"))
		return
	}

	var in struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	if in.Status = strings.TrimSpace(in.Status); in.Status == "" {
		httpx.WriteError(w, log, apperr.InvalidInput("status is required"))
		return
	}

	m, err := h.store.UpdateMilestoneStatus(r.Context(), id, in.Status)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

// optionalDate treats an empty string as no date.
func (h *Handler) optionalDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	d, ok := query.ParseDate(raw, h.loc)
	if !ok {
		return nil, false
	}
	return &d, true
}
