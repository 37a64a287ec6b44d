// Package stats реализует HTTP-обработчик статистики пользователя.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/middlewarectx"
	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
)

// Handler обрабатывает запросы на статистику пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс подсчёта статистики.
type Service interface {
	Stats(ctx context.Context, userUID string) (*models.UserStats, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статистика пользователя
// @Description Возвращает число написанных книг, записей в библиотеке и доступов за последние 30 дней. Чужую статистику видит только администратор.
// @Tags Users
// @Security BearerAuth
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Success 200 {object} models.UserStats "Статистика пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{uid}/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	targetUID := chi.URLParam(r, "uid")
	// Свою статистику видит каждый, чужую только администратор.
	if targetUID != user.UID && user.Role != models.RoleAdmin {
		log.Info("stats access denied",
			slog.String("user_uid", user.UID),
			slog.String("target_uid", targetUID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("access denied"))
		return
	}

	stats, err := h.service.Stats(r.Context(), targetUID)
	if err != nil {
		log.Error("failed to get user stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get stats"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(stats))
}
