package auth

import (
	"errors"
	"net/http"
	"strings"

	"buildboard-backend/internal/activity"
	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/httpx"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login: POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.Handler.Login"
	log := h.log.WithField("operation", op)

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		httpx.WriteError(w, log, apperr.InvalidInput("email and password required"))
		return
	}

	acc, err := h.accounts.GetByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		httpx.WriteError(w, log, err)
		return
	}
	if err != nil || !CheckPassword(acc.PasswordHash, req.Password) {
		log.WithField("email", email).Info("login rejected")
		httpx.WriteError(w, log, apperr.Unauthenticated("invalid credentials"))
		return
	}

	token, err := h.tokens.Generate(acc.ID, acc.Email, acc.Role)
	if err != nil {
		httpx.WriteError(w, log, apperr.Storage(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokens.TTL().Seconds()),
	})

	h.activity.Record(r, acc.ID, activity.EventLogin, nil)

	// the token only travels in the cookie
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"role":    acc.Role,
	})
}

// Me: GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "auth.Handler.Me")

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, log, apperr.Unauthenticated("unauthorized"))
		return
	}

	acc, err := h.accounts.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.NotFound("user not found")
		}
		httpx.WriteError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, acc)
}
