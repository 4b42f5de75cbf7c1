// Package categories manages the cost categories referenced by cost items.
package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/db"
	"buildboard-backend/internal/httpx"
)

type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Store struct {
	db *sqlx.DB
}

func NewStore(dbx *sqlx.DB) *Store {
	return &Store{db: dbx}
}

func (s *Store) List(ctx context.Context) ([]Category, error) {
	rows := []Category{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name FROM categories ORDER BY name ASC`); err != nil {
		return nil, apperr.Storage(fmt.Errorf("list categories: %w", err))
	}
	return rows, nil
}

func (s *Store) Create(ctx context.Context, name string) (Category, error) {
	c := Category{ID: uuid.NewString(), Name: name}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO categories (id, name) VALUES (:id, :name)`, c)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, apperr.Conflict("category already exists")
		}
		return Category{}, apperr.Storage(fmt.Errorf("insert category: %w", err))
	}
	return c, nil
}

func (s *Store) Rename(ctx context.Context, id, name string) (Category, error) {
	var c Category
	err := s.db.GetContext(ctx, &c,
		s.db.Rebind(`UPDATE categories SET name = ? WHERE id = ? RETURNING id, name`), name, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Category{}, apperr.NotFound("category not found")
	case db.IsUniqueViolation(err):
		return Category{}, apperr.Conflict("category already exists")
	case err != nil:
		return Category{}, apperr.Storage(fmt.Errorf("rename category: %w", err))
	}
	return c, nil
}

// Delete refuses while any cost item still references the category.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	var used int
	if err := tx.GetContext(ctx, &used, tx.Rebind(`SELECT COUNT(*) FROM cost_items WHERE category_id = ?`), id); err != nil {
		return apperr.Storage(fmt.Errorf("count category usage: %w", err))
	}
	if used > 0 {
		return apperr.Conflict("category is used by cost items")
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("category is used by cost items")
		}
		return apperr.Storage(fmt.Errorf("delete category: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("category not found")
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage(fmt.Errorf("commit: %w", err))
	}
	return nil
}

type Handler struct {
	store *Store
	log   *logrus.Entry
}

func NewHandler(store *Store, log *logrus.Entry) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts under /api behind the session gate. Writes are admin only.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/categories", h.List)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Post("/categories", h.Create)
		r.Put("/categories/{id}", h.Rename)
		r.Delete("/categories/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.List(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "categories.Handler.List"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "categories.Handler.Create")

	name, err := decodeName(r)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	c, err := h.store.Create(r.Context(), name)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "categories.Handler.Rename")

	name, err := decodeName(r)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	c, err := h.store.Rename(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "categories.Handler.Delete"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Category deleted successfully"})
}

func decodeName(r *http.Request) (string, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		return "", err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", apperr.InvalidInput("invalid category name")
	}
	return name, nil
}
