// Package middlewarectx содержит HTTP middleware для проверки JWT,
// загрузки пользователя, актуализации его подписки и контроля ролей.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке
// Authorization, загружает пользователя из базы и кладёт его в контекст
// запроса для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/jwt"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// CtxUser — ключ для загруженного пользователя в контексте.
	CtxUser Key = "user"
	// UserUID — ключ для UID пользователя в контексте.
	UserUID Key = "user_uid"
	// Role — ключ для роли пользователя в контексте.
	Role Key = "role"
)

// UserLoader загружает пользователя по UID из токена.
type UserLoader interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// UserFromContext возвращает пользователя, положенного в контекст
// JWTMiddleware, или nil для анонимного запроса.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(CtxUser).(*models.User)
	return user
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Токен несёт только идентичность и роль. Подписочное состояние в токен
// не попадает: пользователь загружается из базы на каждом запросе,
// чтобы смена и истечение подписки действовали немедленно.
func JWTMiddleware(jwtMaker jwt.Maker, users UserLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := jwtMaker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			user, err := users.GetUser(r.Context(), claims.UserUID)
			if err != nil {
				log.Error("failed to load user from token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), CtxUser, user)
			ctx = context.WithValue(ctx, UserUID, user.UID)
			ctx = context.WithValue(ctx, Role, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
