package books

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/windproject/ebook-store/internal/models"
)

// MockService реализует интерфейс books.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, int, error) {
	args := m.Called(ctx, filter)
	if res := args.Get(0); res != nil {
		return res.([]*models.Book), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func TestAuthorBooksHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	authorUID := "uid-author"

	t.Run("книги автора", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("ListBooks", mock.Anything, mock.MatchedBy(func(f models.BookFilter) bool {
			return f.AuthorUID != nil && *f.AuthorUID == authorUID && f.Limit == 20
		})).Return([]*models.Book{
			{ID: 1, Title: "Dune", AuthorUID: authorUID},
		}, 1, nil).Once()

		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodGet, "/users/"+authorUID+"/books", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("uid", authorUID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"title":"Dune"`)
		assert.Contains(t, w.Body.String(), `"total":1`)
		mockService.AssertExpectations(t)
	})

	t.Run("ошибка сервиса", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("ListBooks", mock.Anything, mock.Anything).
			Return(nil, 0, errors.New("db error")).Once()

		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodGet, "/users/"+authorUID+"/books", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("uid", authorUID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockService.AssertExpectations(t)
	})
}
