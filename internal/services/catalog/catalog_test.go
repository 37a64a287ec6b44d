package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/windproject/ebook-store/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateBook(ctx context.Context, book models.Book) (int, error) {
	args := m.Called(ctx, book)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ReadBook(ctx context.Context, id int) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}
func (m *RepoMock) UpdateBook(ctx context.Context, book models.Book, id int) (int, error) {
	args := m.Called(ctx, book, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveBook(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Book), args.Error(1)
}
func (m *RepoMock) CountBooks(ctx context.Context, filter models.BookFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCatalogService_CreateBook(t *testing.T) {
	req := models.DummyBook{
		Title:         "Dune",
		Genre:         "sci-fi",
		Price:         12.99,
		PublishedDate: "01-08-1965",
		AudiobookFile: "dune.mp3",
	}

	tests := []struct {
		name       string
		req        models.DummyBook
		setupMocks func(r *RepoMock)
		wantID     int
		wantErr    bool
	}{
		{
			name: "success create with audiobook flag",
			req:  req,
			setupMocks: func(r *RepoMock) {
				r.On("CreateBook", mock.Anything, mock.MatchedBy(func(b models.Book) bool {
					return b.Title == "Dune" &&
						b.AuthorUID == "author-1" &&
						b.HasAudiobook &&
						b.PublishedDate != nil
				})).Return(42, nil).Once()
			},
			wantID: 42,
		},
		{
			name: "invalid published date",
			req: models.DummyBook{
				Title:         "Dune",
				PublishedDate: "not-a-date",
			},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    true,
		},
		{
			name: "repo error",
			req:  models.DummyBook{Title: "Dune"},
			setupMocks: func(r *RepoMock) {
				r.On("CreateBook", mock.Anything, mock.Anything).Return(0, errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := NewCatalogService(repo, cache, newNoopLogger())

			tt.setupMocks(repo)

			id, err := svc.CreateBook(context.Background(), "author-1", tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_ReadBook(t *testing.T) {
	book := &models.Book{ID: 7, Title: "Dune"}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		want       *models.Book
		wantErr    error
	}{
		{
			name: "cache hit",
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", "book:7", mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
					*args.Get(1).(**models.Book) = book
				}).Once()
			},
			want: book,
		},
		{
			name: "cache miss then repo",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "book:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadBook", mock.Anything, 7).Return(book, nil).Once()
				c.On("Set", "book:7", book, time.Hour).Return(nil).Once()
			},
			want: book,
		},
		{
			name: "cache error falls through to repo",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "book:7", mock.Anything).Return(false, errors.New("redis down")).Once()
				r.On("ReadBook", mock.Anything, 7).Return(book, nil).Once()
				c.On("Set", "book:7", book, time.Hour).Return(nil).Once()
			},
			want: book,
		},
		{
			name: "missing book",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "book:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadBook", mock.Anything, 7).Return(nil, sql.ErrNoRows).Once()
			},
			wantErr: ErrBookNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := NewCatalogService(repo, cache, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.ReadBook(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestCatalogService_UpdateBook_Ownership(t *testing.T) {
	existing := &models.Book{ID: 7, AuthorUID: "author-1"}
	req := models.DummyBook{Title: "Dune, 2nd ed."}

	tests := []struct {
		name       string
		user       *models.User
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "author updates own book",
			user: &models.User{UID: "author-1", Role: models.RoleAuthor},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ReadBook", mock.Anything, 7).Return(existing, nil).Once()
				r.On("UpdateBook", mock.Anything, mock.MatchedBy(func(b models.Book) bool {
					return b.AuthorUID == "author-1" && b.Title == "Dune, 2nd ed."
				}), 7).Return(1, nil).Once()
				c.On("Invalidate", "book:7").Return(nil).Once()
			},
		},
		{
			name: "admin updates any book",
			user: &models.User{UID: "admin-1", Role: models.RoleAdmin},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ReadBook", mock.Anything, 7).Return(existing, nil).Once()
				r.On("UpdateBook", mock.Anything, mock.Anything, 7).Return(1, nil).Once()
				c.On("Invalidate", "book:7").Return(nil).Once()
			},
		},
		{
			name: "another author forbidden",
			user: &models.User{UID: "author-2", Role: models.RoleAuthor},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ReadBook", mock.Anything, 7).Return(existing, nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name: "missing book",
			user: &models.User{UID: "author-1", Role: models.RoleAuthor},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ReadBook", mock.Anything, 7).Return(nil, sql.ErrNoRows).Once()
			},
			wantErr: ErrBookNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := NewCatalogService(repo, cache, newNoopLogger())

			tt.setupMocks(repo, cache)

			err := svc.UpdateBook(context.Background(), tt.user, 7, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestCatalogService_RemoveBook(t *testing.T) {
	existing := &models.Book{ID: 7, AuthorUID: "author-1"}

	t.Run("author removes own book", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("ReadBook", mock.Anything, 7).Return(existing, nil).Once()
		cache.On("Invalidate", "book:7").Return(nil).Once()
		repo.On("RemoveBook", mock.Anything, 7).Return(1, nil).Once()

		svc := NewCatalogService(repo, cache, newNoopLogger())
		err := svc.RemoveBook(context.Background(), &models.User{UID: "author-1", Role: models.RoleAuthor}, 7)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("reader forbidden", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadBook", mock.Anything, 7).Return(existing, nil).Once()

		svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
		err := svc.RemoveBook(context.Background(), &models.User{UID: "reader-1", Role: models.RoleReader}, 7)
		assert.ErrorIs(t, err, ErrForbidden)
		repo.AssertExpectations(t)
	})
}

func TestCatalogService_ListBooks(t *testing.T) {
	genre := "sci-fi"
	filter := models.BookFilter{Genre: &genre, Limit: 10, Offset: 0}
	books := []*models.Book{{ID: 1, Title: "Dune"}, {ID: 2, Title: "Hyperion"}}

	repo := new(RepoMock)
	repo.On("ListBooks", mock.Anything, filter).Return(books, nil).Once()
	repo.On("CountBooks", mock.Anything, filter).Return(12, nil).Once()

	svc := NewCatalogService(repo, new(CacheMock), newNoopLogger())
	got, total, err := svc.ListBooks(context.Background(), filter)
	assert.NoError(t, err)
	assert.Equal(t, books, got)
	assert.Equal(t, 12, total)
	repo.AssertExpectations(t)
}
