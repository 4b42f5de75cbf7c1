package projects

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/db"
)

type testEnv struct {
	store  *Store
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

	_, err = dbx.ExecContext(ctx, `INSERT INTO users (id, name, email, password_hash, role) VALUES (1, 'Ana', 'ana@example.com', 'x', 'ADMIN')`)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	env := &testEnv{store: NewStore(dbx), role: auth.RoleAdmin}

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	h := NewHandler(env.store, logrus.NewEntry(logger), 0, time.UTC)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.Claims{UserID: 1, Role: env.role}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	})
	r.Route("/api", h.Routes)
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

func (e *testEnv) createProject(t *testing.T, title string) Detail {
	t.Helper()
	code, raw := e.do(t, http.MethodPost, "/api/projects",
		`{"title":"`+title+`","location":"Harbor St","startDate":"2025-02-01","budget":"1500000.75"}`)
	require.Equal(t, http.StatusCreated, code, string(raw))
	var d Detail
	require.NoError(t, json.Unmarshal(raw, &d))
	return d
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)

	d := env.createProject(t, "Riverside Tower")
	assert.Equal(t, "Riverside Tower", d.Title)
	assert.True(t, decimal.RequireFromString("1500000.75").Equal(d.Budget))
	require.NotNil(t, d.StartDate)
	assert.True(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC).Equal(*d.StartDate))
	assert.Nil(t, d.ExpectedEndDate)
	require.NotNil(t, d.UserID)
	assert.Equal(t, 1, *d.UserID)
	assert.Empty(t, d.Subprojects)
	assert.Empty(t, d.Milestones)

	code, _ := env.do(t, http.MethodPost, "/api/projects", `{"location":"nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPost, "/api/projects", `{"title":"x","startDate":"next week"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPost, "/api/projects", `{"title":"x","budget":-5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	env.role = auth.RoleUser
	code, _ = env.do(t, http.MethodPost, "/api/projects", `{"title":"Depot"}`)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	for i := 1; i <= 8; i++ {
		env.createProject(t, "P"+strconv.Itoa(i))
	}

	list := func(path string) List {
		code, raw := env.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, code)
		var out List
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	}

	first := list("/api/projects")
	assert.Equal(t, 8, first.Total)
	assert.Equal(t, 2, first.TotalPages)
	require.Len(t, first.Projects, DefaultPageSize)
	assert.Equal(t, "P8", first.Projects[0].Title)

	second := list("/api/projects?page=2")
	require.Len(t, second.Projects, 2)
	assert.Equal(t, "P1", second.Projects[1].Title)

	assert.Len(t, list("/api/projects?limit=3").Projects, 3)
}

func TestGetProjectWithChildren(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Riverside Tower")
	pid := strconv.Itoa(p.ID)

	code, raw := env.do(t, http.MethodPost, "/api/subprojects", `{"name":"Block A","createdAt":"2025-01-10","projectId":`+pid+`}`)
	require.Equal(t, http.StatusCreated, code, string(raw))
	var sp Subproject
	require.NoError(t, json.Unmarshal(raw, &sp))
	assert.NotEmpty(t, sp.ID)

	code, raw = env.do(t, http.MethodPost, "/api/milestones", `{"title":"Foundation","dueDate":"2025-03-01","status":"Planned","projectId":`+pid+`}`)
	require.Equal(t, http.StatusCreated, code, string(raw))
	var m Milestone
	require.NoError(t, json.Unmarshal(raw, &m))

	code, raw = env.do(t, http.MethodGet, "/api/projects/"+pid, "")
	require.Equal(t, http.StatusOK, code)
	var d Detail
	require.NoError(t, json.Unmarshal(raw, &d))
	require.Len(t, d.Subprojects, 1)
	assert.Equal(t, "Block A", d.Subprojects[0].Name)
	require.Len(t, d.Milestones, 1)
	assert.Equal(t, "Planned", d.Milestones[0].Status)

	code, _ = env.do(t, http.MethodGet, "/api/projects/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodGet, "/api/projects/999", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, raw = env.do(t, http.MethodPut, "/api/milestones/"+strconv.Itoa(m.ID), `{"status":"Done"}`)
	require.Equal(t, http.StatusOK, code, string(raw))
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "Done", m.Status)
	assert.Equal(t, "Foundation", m.Title)

	code, _ = env.do(t, http.MethodPut, "/api/milestones/"+strconv.Itoa(m.ID), `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPut, "/api/milestones/4242", `{"status":"Done"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubprojects(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProject(t, "Depot")
	pid := strconv.Itoa(p.ID)

	code, raw := env.do(t, http.MethodGet, "/api/subprojects", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	for _, name := range []string{"North", "South"} {
		code, _ := env.do(t, http.MethodPost, "/api/subprojects", `{"name":"`+name+`","createdAt":"2025-01-10","projectId":`+pid+`}`)
		require.Equal(t, http.StatusCreated, code)
	}

	code, raw = env.do(t, http.MethodGet, "/api/subprojects?projectId="+pid, "")
	require.Equal(t, http.StatusOK, code)
	var out struct {
		Subprojects []Subproject `json:"subprojects"`
		Total       int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2, out.Total)

	code, _ = env.do(t, http.MethodPost, "/api/subprojects", `{"name":"West","projectId":`+pid+`}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPost, "/api/subprojects", `{"name":"West","createdAt":"2025-01-10","projectId":77}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodPost, "/api/milestones", `{"title":"x","dueDate":"2025-01-10","projectId":`+pid+`}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
