package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/activity"
	"buildboard-backend/internal/httpx"
)

// CookieName carries the session token.
const CookieName = "token"

type ctxKey string

const claimsKey ctxKey = "claims"

type Middleware struct {
	tokens *Tokens
	log    *logrus.Entry
}

func NewMiddleware(tokens *Tokens, log *logrus.Entry) Middleware {
	return Middleware{tokens: tokens, log: log}
}

// Wrap rejects requests without a verifiable session before next runs.
func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.tokens.Verify(TokenFromRequest(r))
		if err == nil {
			err = Authorize(claims, "")
		}
		if err != nil {
			m.log.WithField("operation", "auth.Middleware.Wrap").
				WithField("path", r.URL.Path).
				Debugf("rejected: %v", err)
			httpx.WriteError(w, m.log, err)
			return
		}

		ctx := WithClaims(r.Context(), claims)
		ctx = activity.WithUserID(ctx, claims.UserID)

		next(w, r.WithContext(ctx))
	}
}

// Handler adapts Wrap for router middleware chains.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return m.Wrap(next.ServeHTTP)
}

// RequireRole runs after Wrap and enforces an exact role match.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if err := Authorize(claims, role); err != nil {
				httpx.WriteError(w, nil, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest reads the session cookie, falling back to a bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
