package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/windproject/ebook-store/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (username, email, password_hash, role, subscription_type)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role,
		user.SubscriptionType).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, role,
			      subscription_type, subscription_expires, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, role,
			      subscription_type, subscription_expires, created_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var subscriptionExpires sql.NullTime
	if err := row.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.SubscriptionType, &subscriptionExpires, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subscriptionExpires.Valid {
		u.SubscriptionExpires = &subscriptionExpires.Time
	}
	return u, nil
}

// UpdateSubscription записывает новый тип подписки и дату истечения.
// expires = nil сохраняется как NULL: у бесплатного тарифа нет срока.
func (s *Storage) UpdateSubscription(ctx context.Context, userUID, subscriptionType string, expires *time.Time) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
		      SET subscription_type = $1,
			      subscription_expires = $2,
			      updated_at = CURRENT_TIMESTAMP
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, subscriptionType, expires, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// UpdateProfile изменяет имя и почту пользователя
// и возвращает количество изменённых строк.
func (s *Storage) UpdateProfile(ctx context.Context, userUID, username, email string) (int, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
		      SET username = $1,
		          email = $2,
		          updated_at = CURRENT_TIMESTAMP
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, username, email, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// GetUserStats возвращает сводку по книгам пользователя: сколько книг
// он написал, сколько записей в его библиотеке и сколько доступов
// выдано за последние 30 дней.
func (s *Storage) GetUserStats(ctx context.Context, userUID string) (*models.UserStats, error) {
	const op = "storage.GetUserStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
				  (SELECT COUNT(*) FROM books WHERE author_uid = $1),
				  (SELECT COUNT(*) FROM user_library WHERE user_uid = $1),
				  (SELECT COUNT(*) FROM user_library
				   WHERE user_uid = $1 AND granted_at >= NOW() - INTERVAL '30 days')`
	stats := &models.UserStats{}
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&stats.AuthoredBooks, &stats.LibraryBooks, &stats.RecentGrants); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// UpdateRole изменяет роль пользователя и возвращает количество изменённых строк.
func (s *Storage) UpdateRole(ctx context.Context, userUID, role string) (int, error) {
	const op = "storage.UpdateRole"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
		      SET role = $1,
		          updated_at = CURRENT_TIMESTAMP
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, role, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListUsers возвращает список пользователей с пагинацией,
// опционально отфильтрованный по роли.
func (s *Storage) ListUsers(ctx context.Context, role *string, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, role,
			      subscription_type, subscription_expires, created_at
			  FROM users
			  WHERE ($1::text IS NULL OR role = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		var subscriptionExpires sql.NullTime
		if err := rows.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
			&u.Role, &u.SubscriptionType, &subscriptionExpires, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if subscriptionExpires.Valid {
			u.SubscriptionExpires = &subscriptionExpires.Time
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
