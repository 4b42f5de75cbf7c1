package auth

import (
	"net/http"
	"strings"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/httpx"
)

// Logout expires the session cookie. Tokens are stateless, so nothing is revoked server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// UpdateSettings: PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "auth.Handler.UpdateSettings")

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, log, apperr.Unauthenticated("unauthorized"))
		return
	}

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Contact  string `json:"contact"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	upd := ProfileUpdate{
		Name:    strings.TrimSpace(body.Name),
		Email:   strings.TrimSpace(body.Email),
		Contact: strings.TrimSpace(body.Contact),
	}
	if upd.Email == "" {
		httpx.WriteError(w, log, apperr.InvalidInput("email is required"))
		return
	}
	if body.Password != "" {
		hash, err := HashPassword(body.Password)
		if err != nil {
			httpx.WriteError(w, log, apperr.Storage(err))
			return
		}
		upd.PasswordHash = hash
	}

	acc, err := h.accounts.UpdateProfile(r.Context(), claims.UserID, upd)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, acc)
}
