// Package remove реализует HTTP-обработчик снятия тарифного плана с продажи.
// План не удаляется из базы: активные подписки продолжают на него ссылаться.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/sl"
	subscription "github.com/windproject/ebook-store/internal/services/subscription"
)

// Handler управляет HTTP-запросами на снятие планов с продажи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс деактивации плана.
type Service interface {
	DeactivatePlan(ctx context.Context, id int) error
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Снять план с продажи
// @Description Деактивирует план по ID. Существующие подписки не затрагиваются.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID плана"
// @Success 200 {object} response.Response "План снят с продажи"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	if err := h.service.DeactivatePlan(r.Context(), id); err != nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
			return
		}
		log.Error("failed to deactivate plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not deactivate plan"))
		return
	}

	log.Info("plan deactivated", slog.Int("plan_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plan_id": id,
	}))
}
