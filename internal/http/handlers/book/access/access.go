// Package access реализует HTTP-обработчик запроса доступа к книге.
//
// Handler вычисляет право текущего пользователя на книгу и при разрешении
// добавляет её в библиотеку. Повторный запрос для уже выданной книги
// возвращает успех без изменения реестра.
package access

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/windproject/ebook-store/internal/http/middlewarectx"
	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
	accesssvc "github.com/windproject/ebook-store/internal/services/access"
)

// Handler управляет HTTP-запросами на доступ к книгам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс вычислителя доступа.
type Service interface {
	GrantAccess(ctx context.Context, user *models.User, bookID int, requestedType string) (*models.LibraryEntry, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запросить доступ к книге
// @Description Проверяет право пользователя на книгу и добавляет её в библиотеку. Платная книга требует платной подписки либо access_type=purchased. Повторный запрос идемпотентен.
// @Tags Books
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path int true "ID книги"
// @Param request body models.DummyAccessRequest false "Параметры доступа"
// @Success 200 {object} map[string]any "Доступ выдан"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется подписка"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /books/{id}/access [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.access"
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

	// Тело опционально: пустой запрос означает доступ по подписке.
	var req models.DummyAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	entry, err := h.service.GrantAccess(r.Context(), user, id, req.AccessType)
	if err != nil {
		switch {
		case errors.Is(err, accesssvc.ErrSubscriptionRequired):
			// Отказ в доступе — штатный исход, не ошибка сервера.
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("subscription required"))
		case errors.Is(err, accesssvc.ErrBookNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("book not found"))
		case errors.Is(err, accesssvc.ErrUnauthenticated):
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthorized"))
		default:
			log.Error("failed to grant access", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not grant access"))
		}
		return
	}

	log.Info("access granted",
		slog.Int("book_id", id),
		slog.String("access_type", entry.AccessType))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"book_id":     entry.BookID,
		"access_type": entry.AccessType,
	}))
}
