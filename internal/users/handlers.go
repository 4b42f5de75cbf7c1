package users

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/httpx"
)

type Handler struct {
	store *Store
	log   *logrus.Entry
}

func NewHandler(store *Store, log *logrus.Entry) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts under /api behind the session gate. Every route is admin only.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/users", h.List)
		r.Post("/users", h.Create)
		r.Delete("/users/{id}", h.Delete)
	})
}

// List: GET /api/users?search=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "users.Handler.List"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

type createRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Contact  string    `json:"contact"`
	Role     auth.Role `json:"role"`
}

// Create: POST /api/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "users.Handler.Create")

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	in, err := Prepare(req.Name, req.Email, req.Password, req.Contact, req.Role)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	acc, err := h.store.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	log.WithField("user_id", acc.ID).Info("user created")
	httpx.WriteJSON(w, http.StatusCreated, acc)
}

// Delete: DELETE /api/users/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "users.Handler.Delete")

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, log, apperr.InvalidInput("invalid user id"))
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.UserID == id {
		httpx.WriteError(w, log, apperr.Conflict("cannot delete your own account"))
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
}

// Prepare validates a new account and hashes its password. An empty role
// defaults to USER.
func Prepare(name, email, password, contact string, role auth.Role) (NewAccount, error) {
	in := NewAccount{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Contact: strings.TrimSpace(contact),
		Role:    role,
	}
	if in.Role == "" {
		in.Role = auth.RoleUser
	}
	if in.Name == "" || in.Email == "" || password == "" {
		return NewAccount{}, apperr.InvalidInput("name, email and password are required")
	}
	if !in.Role.Valid() {
		return NewAccount{}, apperr.InvalidInput("invalid role")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return NewAccount{}, apperr.Storage(err)
	}
	in.PasswordHash = hash
	return in, nil
}
