package auth

import "buildboard-backend/internal/apperr"

// Authorize allows claims that carry a known role and, when required is set,
// exactly that role. There is no role hierarchy.
func Authorize(claims *Claims, required Role) error {
	if claims == nil || !claims.Role.Valid() {
		return apperr.Unauthenticated("unauthorized")
	}
	if required != "" && claims.Role != required {
		return apperr.Forbidden("insufficient privileges")
	}
	return nil
}
