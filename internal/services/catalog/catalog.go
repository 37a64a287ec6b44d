// Package services содержит бизнес-логику каталога книг:
// CRUD с проверкой владения и сквозное кэширование карточек.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/models"
)

var (
	// ErrBookNotFound возвращается при обращении к несуществующей книге.
	ErrBookNotFound = errors.New("book not found")
	// ErrForbidden возвращается, когда автор меняет чужую книгу.
	ErrForbidden = errors.New("not the book author")
)

// Repository определяет методы для работы с хранилищем каталога.
type Repository interface {
	// CreateBook добавляет книгу и возвращает её ID.
	CreateBook(ctx context.Context, book models.Book) (int, error)
	// ReadBook возвращает книгу по ID.
	ReadBook(ctx context.Context, id int) (*models.Book, error)
	// UpdateBook обновляет книгу и возвращает количество изменённых записей.
	UpdateBook(ctx context.Context, book models.Book, id int) (int, error)
	// RemoveBook удаляет книгу и возвращает количество удалённых записей.
	RemoveBook(ctx context.Context, id int) (int, error)
	// ListBooks возвращает страницу каталога по фильтру.
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	// CountBooks возвращает общее число книг по фильтру.
	CountBooks(ctx context.Context, filter models.BookFilter) (int, error)
}

// CacheInterface определяет методы для работы с кэшем карточек.
type CacheInterface interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// CatalogService реализует бизнес-логику каталога.
type CatalogService struct {
	repo  Repository
	cache CacheInterface
	log   *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo Repository, cache CacheInterface, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("book:%d", id)
}

// CreateBook добавляет книгу в каталог от имени автора authorUID.
func (s *CatalogService) CreateBook(ctx context.Context, authorUID string, req models.DummyBook) (int, error) {
	const op = "services.catalog.CreateBook"

	book, err := bookFromRequest(authorUID, req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("book created", slog.Int("book_id", id), slog.String("author_uid", authorUID))
	return id, nil
}

// ReadBook возвращает карточку книги, сначала проверяя кэш.
// Промах кэша заполняется из базы на час.
func (s *CatalogService) ReadBook(ctx context.Context, id int) (*models.Book, error) {
	const op = "services.catalog.ReadBook"

	var cached *models.Book
	found, err := s.cache.Get(cacheKey(id), &cached)
	if err != nil {
		s.log.Warn("cache lookup failed", slog.Int("book_id", id), sl.Err(err))
	} else if found {
		return cached, nil
	}

	book, err := s.repo.ReadBook(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey(id), book, time.Hour); err != nil {
		s.log.Warn("cache set failed", slog.Int("book_id", id), sl.Err(err))
	}

	return book, nil
}

// UpdateBook обновляет книгу. Автор может менять только свои книги,
// администратор — любые.
func (s *CatalogService) UpdateBook(ctx context.Context, user *models.User, id int, req models.DummyBook) error {
	const op = "services.catalog.UpdateBook"

	existing, err := s.repo.ReadBook(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Role != models.RoleAdmin && existing.AuthorUID != user.UID {
		return ErrForbidden
	}

	book, err := bookFromRequest(existing.AuthorUID, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := s.repo.UpdateBook(ctx, book, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}

	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", slog.Int("book_id", id), sl.Err(err))
	}

	s.log.Info("book updated", slog.Int("book_id", id), slog.String("by", user.UID))
	return nil
}

// RemoveBook удаляет книгу с теми же правилами владения, что и UpdateBook.
// Записи реестра на удалённую книгу каскадно удаляются базой.
func (s *CatalogService) RemoveBook(ctx context.Context, user *models.User, id int) error {
	const op = "services.catalog.RemoveBook"

	existing, err := s.repo.ReadBook(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Role != models.RoleAdmin && existing.AuthorUID != user.UID {
		return ErrForbidden
	}

	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", slog.Int("book_id", id), sl.Err(err))
	}

	affected, err := s.repo.RemoveBook(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}

	s.log.Info("book removed", slog.Int("book_id", id), slog.String("by", user.UID))
	return nil
}

// ListBooks возвращает страницу каталога и общее число книг по фильтру.
func (s *CatalogService) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, int, error) {
	const op = "services.catalog.ListBooks"

	books, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.repo.CountBooks(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return books, total, nil
}

// bookFromRequest собирает доменную книгу из тела запроса.
// Дата публикации принимается в формате "02-01-2006".
func bookFromRequest(authorUID string, req models.DummyBook) (models.Book, error) {
	book := models.Book{
		Title:         req.Title,
		AuthorUID:     authorUID,
		Description:   req.Description,
		Genre:         req.Genre,
		ISBN:          req.ISBN,
		Price:         req.Price,
		IsFree:        req.IsFree,
		CoverFile:     req.CoverFile,
		EbookFile:     req.EbookFile,
		AudiobookFile: req.AudiobookFile,
		HasAudiobook:  req.AudiobookFile != "",
	}
	if req.PublishedDate != "" {
		published, err := time.Parse("02-01-2006", req.PublishedDate)
		if err != nil {
			return models.Book{}, fmt.Errorf("invalid published date: %w", err)
		}
		book.PublishedDate = &published
	}
	return book, nil
}
