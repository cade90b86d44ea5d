package appmiddleware

import (
	"net/http"

	"tupilaqs/auth"
	"tupilaqs/utils"
)

// RequireAdmin lets through only users flagged as admins. It must run after
// auth.JwtVerify.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			utils.SendError(w, http.StatusUnauthorized, "Login required")
			return
		}
		if !user.IsAdmin {
			utils.SendError(w, http.StatusForbidden, "Admin rights required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
