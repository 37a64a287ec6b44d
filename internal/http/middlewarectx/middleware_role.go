package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/response"
)

// RequireRole пропускает запрос только для перечисленных ролей.
// Ставится после JWTMiddleware.
func RequireRole(log *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("insufficient role",
				slog.String("user_uid", user.UID),
				slog.String("role", user.Role))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient permissions"))
		})
	}
}
