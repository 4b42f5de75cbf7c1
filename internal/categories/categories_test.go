package categories

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/db"
)

type testEnv struct {
	db     *sqlx.DB
	router http.Handler
	role   auth.Role
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dbx, err := db.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbx.Close() })
	require.NoError(t, db.Migrate(ctx, dbx))

	logger, _ := test.NewNullLogger()
	env := &testEnv{db: dbx, role: auth.RoleAdmin}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.Claims{UserID: 1, Role: env.role}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	})
	r.Route("/api", NewHandler(NewStore(dbx), logrus.NewEntry(logger)).Routes)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec.Code, rec.Body.Bytes()
}

func (e *testEnv) create(t *testing.T, name string) Category {
	t.Helper()
	code, raw := e.do(t, http.MethodPost, "/api/categories", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, code, string(raw))
	var c Category
	require.NoError(t, json.Unmarshal(raw, &c))
	return c
}

func TestCategoriesCRUD(t *testing.T) {
	env := newTestEnv(t)

	env.create(t, "Steel")
	concrete := env.create(t, "Concrete")

	code, raw := env.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, code)
	var list []Category
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Concrete", list[0].Name)

	code, _ = env.do(t, http.MethodPost, "/api/categories", `{"name":"Steel"}`)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = env.do(t, http.MethodPost, "/api/categories", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, raw = env.do(t, http.MethodPut, "/api/categories/"+concrete.ID, `{"name":"Ready-mix"}`)
	require.Equal(t, http.StatusOK, code, string(raw))
	var renamed Category
	require.NoError(t, json.Unmarshal(raw, &renamed))
	assert.Equal(t, "Ready-mix", renamed.Name)

	code, _ = env.do(t, http.MethodPut, "/api/categories/"+concrete.ID, `{"name":"Steel"}`)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = env.do(t, http.MethodPut, "/api/categories/nope", `{"name":"Glass"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodDelete, "/api/categories/"+concrete.ID, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodDelete, "/api/categories/"+concrete.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteCategoryInUse(t *testing.T) {
	env := newTestEnv(t)
	c := env.create(t, "Concrete")

	ctx := context.Background()
	_, err := env.db.ExecContext(ctx, `INSERT INTO projects (id, title) VALUES (1, 'Depot')`)
	require.NoError(t, err)
	_, err = env.db.ExecContext(ctx, env.db.Rebind(`
		INSERT INTO cost_items (id, item_name, date, estimated_cost, status, category_id, project_id)
		VALUES ('ci-1', 'Slab', '2025-01-01 00:00:00', 10, 'Pending', ?, 1)
	`), c.ID)
	require.NoError(t, err)

	code, raw := env.do(t, http.MethodDelete, "/api/categories/"+c.ID, "")
	assert.Equal(t, http.StatusConflict, code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "category is used by cost items", body["message"])
}

func TestCategoryWritesAreAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.role = auth.RoleUser

	code, _ := env.do(t, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodPost, "/api/categories", `{"name":"Steel"}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodDelete, "/api/categories/x", "")
	assert.Equal(t, http.StatusForbidden, code)
}
