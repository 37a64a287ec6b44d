// Package list реализует HTTP-обработчик списка книг каталога
// с фильтрами и пагинацией.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

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

// Handler обрабатывает запросы на список книг.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка каталога.
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
// @Summary Список книг
// @Description Возвращает страницу каталога. Поддерживает фильтры по жанру, автору, наличию аудиоверсии и поиск по названию. Доступно без авторизации.
// @Tags Books
// @Produce  json
// @Param genre query string false "Жанр"
// @Param search query string false "Поиск по названию"
// @Param author query string false "UID автора"
// @Param has_audiobook query bool false "Только с аудиоверсией"
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Страница каталога"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /books [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := parseFilter(r)

	books, total, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		log.Error("failed to list books", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list books"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"books":  books,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}))
}

// parseFilter собирает фильтр каталога из query-параметров.
// Некорректные числовые значения молча заменяются умолчаниями.
func parseFilter(r *http.Request) models.BookFilter {
	filter := models.BookFilter{Limit: defaultLimit}

	q := r.URL.Query()
	if genre := q.Get("genre"); genre != "" {
		filter.Genre = &genre
	}
	if search := q.Get("search"); search != "" {
		filter.Search = &search
	}
	if author := q.Get("author"); author != "" {
		filter.AuthorUID = &author
	}
	if q.Get("has_audiobook") == "true" {
		filter.HasAudiobook = true
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}
