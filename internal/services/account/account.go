// Package services содержит административные операции над учётными записями.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/windproject/ebook-store/internal/models"
)

// ErrUserNotFound возвращается при обращении к несуществующему пользователю.
var ErrUserNotFound = errors.New("user not found")

// ErrProfileConflict возвращается, когда имя или почта уже заняты.
var ErrProfileConflict = errors.New("username or email already taken")

// Repository определяет методы административного доступа к пользователям.
type Repository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// ListUsers возвращает страницу пользователей, опционально по роли.
	ListUsers(ctx context.Context, role *string, limit, offset int) ([]*models.User, error)
	// UpdateRole меняет роль пользователя и возвращает количество изменённых записей.
	UpdateRole(ctx context.Context, userUID, role string) (int, error)
	// UpdateProfile меняет имя и почту пользователя и возвращает количество изменённых записей.
	UpdateProfile(ctx context.Context, userUID, username, email string) (int, error)
	// GetUserStats возвращает сводку по книгам пользователя.
	GetUserStats(ctx context.Context, userUID string) (*models.UserStats, error)
}

// AccountService реализует административное управление учётными записями.
type AccountService struct {
	repo Repository
	log  *slog.Logger
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(repo Repository, log *slog.Logger) *AccountService {
	return &AccountService{repo: repo, log: log}
}

// GetUser возвращает пользователя по UID.
func (s *AccountService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.account.GetUser"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ListUsers возвращает страницу пользователей, опционально отфильтрованную по роли.
func (s *AccountService) ListUsers(ctx context.Context, role *string, limit, offset int) ([]*models.User, error) {
	const op = "services.account.ListUsers"

	users, err := s.repo.ListUsers(ctx, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateRole меняет роль пользователя. Роль действует с момента выпуска
// следующего токена: уже выданные JWT несут старую роль до истечения.
func (s *AccountService) UpdateRole(ctx context.Context, userUID, role string) error {
	const op = "services.account.UpdateRole"

	affected, err := s.repo.UpdateRole(ctx, userUID, role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	s.log.Info("user role updated",
		slog.String("user_uid", userUID),
		slog.String("role", role))
	return nil
}

// UpdateProfile меняет имя и почту пользователя. Нарушение уникальности
// имени или почты транслируется в ErrProfileConflict.
func (s *AccountService) UpdateProfile(ctx context.Context, userUID, username, email string) error {
	const op = "services.account.UpdateProfile"

	affected, err := s.repo.UpdateProfile(ctx, userUID, username, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrProfileConflict
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	s.log.Info("user profile updated", slog.String("user_uid", userUID))
	return nil
}

// Stats возвращает сводку по книгам пользователя.
func (s *AccountService) Stats(ctx context.Context, userUID string) (*models.UserStats, error) {
	const op = "services.account.Stats"

	stats, err := s.repo.GetUserStats(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
