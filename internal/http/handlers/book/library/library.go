// Package library реализует HTTP-обработчик просмотра библиотеки пользователя.
package library

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/middlewarectx"
	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
)

// Handler обрабатывает запросы на просмотр библиотеки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения библиотеки пользователя.
type Service interface {
	Library(ctx context.Context, user *models.User) ([]*models.LibraryBook, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Моя библиотека
// @Description Возвращает книги текущего пользователя от недавних выдач к старым.
// @Tags Library
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Библиотека пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /library [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.library"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	books, err := h.service.Library(r.Context(), user)
	if err != nil {
		log.Error("failed to list library", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list library"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"books": books,
		"total": len(books),
	}))
}
