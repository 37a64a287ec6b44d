// Package services содержит вычислитель доступа: единственную точку,
// где решается, может ли пользователь читать книгу, и где выдаются
// записи в библиотечный реестр.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windproject/ebook-store/internal/metrics"
	"github.com/windproject/ebook-store/internal/models"
)

var (
	// ErrBookNotFound возвращается при запросе доступа к несуществующей книге.
	ErrBookNotFound = errors.New("book not found")
	// ErrSubscriptionRequired возвращается при отказе в доступе к платной книге.
	// Отказ — штатный исход, а не сбой, и не должен логироваться как ошибка.
	ErrSubscriptionRequired = errors.New("subscription required")
	// ErrUnauthenticated возвращается при попытке записи в реестр без аутентификации.
	ErrUnauthenticated = errors.New("authentication required")
)

// BookRepository определяет чтение книг из каталога.
type BookRepository interface {
	// ReadBook возвращает книгу по ID.
	ReadBook(ctx context.Context, id int) (*models.Book, error)
}

// LibraryRepository определяет операции над библиотечным реестром.
type LibraryRepository interface {
	// GrantAccess вставляет запись реестра, если её ещё нет,
	// и возвращает количество вставленных строк.
	GrantAccess(ctx context.Context, entry models.LibraryEntry) (int, error)
	// ReadLibraryEntry возвращает существующую запись реестра.
	ReadLibraryEntry(ctx context.Context, userUID string, bookID int) (*models.LibraryEntry, error)
	// ListLibrary возвращает библиотеку пользователя с данными книг.
	ListLibrary(ctx context.Context, userUID string) ([]*models.LibraryBook, error)
}

// Reconciler приводит подписочное состояние пользователя в актуальный вид
// перед вычислением доступа.
type Reconciler interface {
	Reconcile(ctx context.Context, user *models.User) *models.User
}

// AccessService реализует вычисление доступа и выдачу записей реестра.
type AccessService struct {
	books        BookRepository
	library      LibraryRepository
	subscription Reconciler
	log          *slog.Logger
}

// NewAccessService создает новый экземпляр AccessService.
func NewAccessService(books BookRepository, library LibraryRepository, subscription Reconciler, log *slog.Logger) *AccessService {
	return &AccessService{
		books:        books,
		library:      library,
		subscription: subscription,
		log:          log,
	}
}

// CanAccess сообщает, разрешён ли пользователю доступ к книге.
// Бесплатные книги открыты всем, включая анонимных читателей.
// Платная книга требует действующей платной подписки либо явной покупки.
func CanAccess(user *models.User, book *models.Book, requestedType string) bool {
	if book.IsFree {
		return true
	}
	if user == nil {
		return false
	}
	if user.HasPaidSubscription() {
		return true
	}
	return requestedType == models.AccessPurchased
}

// GrantAccess вычисляет доступ к книге и при разрешении записывает её
// в библиотеку пользователя. Повторный вызов для той же пары
// пользователь-книга не создаёт дубликата и не считается ошибкой.
// При отказе реестр не изменяется.
func (s *AccessService) GrantAccess(ctx context.Context, user *models.User, bookID int, requestedType string) (*models.LibraryEntry, error) {
	const op = "services.access.GrantAccess"

	if user == nil {
		return nil, ErrUnauthenticated
	}

	book, err := s.books.ReadBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user = s.subscription.Reconcile(ctx, user)

	if !CanAccess(user, book, requestedType) {
		metrics.AccessDecisions.WithLabelValues("denied").Inc()
		s.log.Info("access denied",
			slog.String("user_uid", user.UID),
			slog.Int("book_id", bookID),
			slog.String("subscription", user.SubscriptionType))
		return nil, ErrSubscriptionRequired
	}

	entry := models.LibraryEntry{
		UserUID:    user.UID,
		BookID:     bookID,
		AccessType: deriveAccessType(book, requestedType),
		GrantedAt:  time.Now().UTC(),
	}

	inserted, err := s.library.GrantAccess(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		// Запись уже существует: ответ отражает сохранённый тип доступа,
		// а не выведенный из текущего запроса.
		metrics.AccessDecisions.WithLabelValues("already_granted").Inc()
		existing, err := s.library.ReadLibraryEntry(ctx, user.UID, bookID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return existing, nil
	}

	metrics.AccessDecisions.WithLabelValues("granted").Inc()
	s.log.Info("access granted",
		slog.String("user_uid", user.UID),
		slog.Int("book_id", bookID),
		slog.String("access_type", entry.AccessType))

	return &entry, nil
}

// deriveAccessType выбирает тип доступа для записи реестра.
// Бесплатная книга всегда записывается как free независимо от запроса.
func deriveAccessType(book *models.Book, requestedType string) string {
	if book.IsFree {
		return models.AccessFree
	}
	if requestedType == models.AccessPurchased {
		return models.AccessPurchased
	}
	return models.AccessSubscription
}

// Library возвращает библиотеку пользователя, отсортированную
// от недавних выдач к старым.
func (s *AccessService) Library(ctx context.Context, user *models.User) ([]*models.LibraryBook, error) {
	const op = "services.access.Library"

	books, err := s.library.ListLibrary(ctx, user.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return books, nil
}
