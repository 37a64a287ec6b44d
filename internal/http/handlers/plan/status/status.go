// Package status реализует HTTP-обработчик просмотра статуса подписки
// текущего пользователя.
package status

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/middlewarectx"
	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/models"
	subscription "github.com/windproject/ebook-store/internal/services/subscription"
)

// Handler обрабатывает запросы на статус подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс вычисления статуса подписки.
type Service interface {
	Status(user *models.User) subscription.SubscriptionStatus
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статус моей подписки
// @Description Возвращает тип подписки, дату истечения и число оставшихся дней. Состояние актуализируется на каждом запросе.
// @Tags Plans
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Статус подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /plans/status/my [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.status"
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

	st := h.service.Status(user)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription_type":    st.Type,
		"subscription_expires": st.Expires,
		"is_active":            st.IsActive,
		"days_remaining":       st.DaysRemaining,
	}))
}
