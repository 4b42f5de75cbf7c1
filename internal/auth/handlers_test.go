package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard-backend/internal/apperr"
)

type fakeAccounts struct {
	byID map[int]Account
}

func newFakeAccounts(t *testing.T) *fakeAccounts {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return &fakeAccounts{byID: map[int]Account{
		1: {ID: 1, Name: "Ana", Email: "ana@example.com", Role: RoleAdmin, PasswordHash: hash},
		2: {ID: 2, Name: "Bo", Email: "bo@example.com", Role: RoleUser, PasswordHash: hash},
	}}
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (Account, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, apperr.NotFound("user not found")
}

func (f *fakeAccounts) GetByID(_ context.Context, id int) (Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return Account{}, apperr.NotFound("user not found")
	}
	return a, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, id int, upd ProfileUpdate) (Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return Account{}, apperr.NotFound("user not found")
	}
	a.Name, a.Email, a.Contact = upd.Name, upd.Email, upd.Contact
	if upd.PasswordHash != "" {
		a.PasswordHash = upd.PasswordHash
	}
	f.byID[id] = a
	return a, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeAccounts, *Tokens) {
	accounts := newFakeAccounts(t)
	tokens := NewTokens([]byte("test-secret"), 2*time.Hour)
	return NewHandler(accounts, tokens, nil, testLogger(), false), accounts, tokens
}

func TestLogin(t *testing.T) {
	h, _, tokens := newTestHandler(t)

	t.Run("success sets cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"email":"bo@example.com","password":"s3cret"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Login successful","role":"USER"}`, rec.Body.String())

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, CookieName, c.Name)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, 7200, c.MaxAge)

		claims, err := tokens.Verify(c.Value)
		require.NoError(t, err)
		assert.Equal(t, 2, claims.UserID)
		assert.Equal(t, RoleUser, claims.Role)
	})

	cases := map[string]struct {
		body string
		code int
	}{
		"wrong password": {`{"email":"bo@example.com","password":"nope"}`, http.StatusUnauthorized},
		"unknown email":  {`{"email":"who@example.com","password":"s3cret"}`, http.StatusUnauthorized},
		"missing fields": {`{"email":"bo@example.com"}`, http.StatusBadRequest},
		"bad json":       {`{`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tc.body)))
			assert.Equal(t, tc.code, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMeAndSettings(t *testing.T) {
	h, accounts, _ := newTestHandler(t)
	ctx := WithClaims(context.Background(), &Claims{UserID: 2, Role: RoleUser})

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"bo@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"name":"Bo B","email":"bo2@example.com","contact":"555","password":"n3w"}`))
	h.UpdateSettings(rec, req.WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	updated := accounts.byID[2]
	assert.Equal(t, "bo2@example.com", updated.Email)
	assert.True(t, CheckPassword(updated.PasswordHash, "n3w"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"name":"x"}`))
	h.UpdateSettings(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	ghost := WithClaims(context.Background(), &Claims{UserID: 99, Role: RoleUser})
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil).WithContext(ghost))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
