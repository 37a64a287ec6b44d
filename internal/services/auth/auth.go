// Package services содержит логику бизнес-уровня для регистрации
// и аутентификации пользователей.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/windproject/ebook-store/internal/lib/jwt"
	"github.com/windproject/ebook-store/internal/lib/password"
	"github.com/windproject/ebook-store/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре email-пароль.
// Ответ не различает неизвестный email и неверный пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService отвечает за регистрацию, авторизацию и выпуск JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Без явной роли в запросе пользователь получает роль reader.
// Роль admin через регистрацию недоступна. Тариф всегда бесплатный.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (string, string, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	role := models.RoleReader
	if req.Role != "" {
		role = req.Role
	}
	user := models.User{
		Username:         req.Username,
		Email:            req.Email,
		PasswordHash:     hashed,
		Role:             role,
		SubscriptionType: models.SubscriptionFree,
	}

	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(uid, user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, token, nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}
