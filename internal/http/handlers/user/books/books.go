// Package books реализует HTTP-обработчик списка книг,
// написанных конкретным автором.
package books

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler обрабатывает запросы на книги автора.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выборки каталога.
type Service interface {
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, int, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Книги автора
// @Description Возвращает книги, опубликованные указанным пользователем. Доступно без авторизации.
// @Tags Users
// @Produce  json
// @Param uid path string true "UID автора"
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Книги автора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{uid}/books [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.books"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	authorUID := chi.URLParam(r, "uid")

	filter := models.BookFilter{AuthorUID: &authorUID, Limit: defaultLimit}
	q := r.URL.Query()
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	books, total, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		log.Error("failed to list author books", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list books"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"author_uid": authorUID,
		"books":      books,
		"total":      total,
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	}))
}
