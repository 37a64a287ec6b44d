// Package create реализует HTTP-обработчик добавления книги в каталог.
//
// Handler принимает JSON-запрос с данными книги, валидирует их, извлекает
// автора из контекста и возвращает ID созданной записи в JSON-формате.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/windproject/ebook-store/internal/http/middlewarectx"
	"github.com/windproject/ebook-store/internal/http/response"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
)

// Handler управляет HTTP-запросами на добавление книг.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики добавления книги.
type Service interface {
	CreateBook(ctx context.Context, authorUID string, req models.DummyBook) (int, error)
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
// @Summary Добавить книгу
// @Description Добавляет книгу в каталог от имени текущего автора. Возвращает ID созданной записи.
// @Tags Books
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.DummyBook true "Данные книги"
// @Success 200 {object} map[string]any "Книга добавлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /books [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBook
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.CreateBook(r.Context(), user.UID, req)
	if err != nil {
		log.Error("failed to create book", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create book"))
		return
	}

	log.Info("book created", slog.Int("book_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"book_id": id,
	}))
}
