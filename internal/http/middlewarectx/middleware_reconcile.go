package middlewarectx

import (
	"context"
	"net/http"

	"github.com/windproject/ebook-store/internal/models"
)

// Reconciler актуализирует подписочное состояние пользователя.
type Reconciler interface {
	Reconcile(ctx context.Context, user *models.User) *models.User
}

// ReconcileMiddleware приводит подписку пользователя в актуальный вид
// до выполнения обработчика. Ставится после JWTMiddleware, поэтому
// обработчики всегда видят уже пересогласованное состояние.
func ReconcileMiddleware(subscriptions Reconciler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			user = subscriptions.Reconcile(r.Context(), user)
			ctx := context.WithValue(r.Context(), CtxUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
