package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, userUID, username, email, passwordHash, role string) {
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`,
		userUID, username, email, passwordHash, role)
	require.NoError(t, err)
}

// CreateUserWithSubscription создает пользователя с данными подписки
func (f *TestDataFactory) CreateUserWithSubscription(t *testing.T, userUID, username, email, passwordHash, role,
	subscriptionType string, subscriptionExpires *time.Time) {
	_, err := f.storage.DB.Exec(`INSERT INTO users
		(uid, username, email, password_hash, role, subscription_type, subscription_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userUID, username, email, passwordHash, role, subscriptionType, subscriptionExpires)
	require.NoError(t, err)
}

// CreateBook создает тестовую книгу и возвращает ее идентификатор
func (f *TestDataFactory) CreateBook(t *testing.T, title, authorUID, genre string, price float64, isFree bool) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO books
		(title, author_uid, description, genre, price, is_free)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		title, authorUID, "test description", genre, price, isFree).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateBookWithAudio создает тестовую книгу с аудиоверсией
func (f *TestDataFactory) CreateBookWithAudio(t *testing.T, title, authorUID string) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO books
		(title, author_uid, description, audiobook_file, has_audiobook)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		title, authorUID, "test description", "audio.mp3", true).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreatePlan создает тестовый тарифный план и возвращает его идентификатор
func (f *TestDataFactory) CreatePlan(t *testing.T, name string, price float64, durationMonths int, isActive bool) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO subscription_plans
		(name, description, price, duration_months, is_active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, "test plan", price, durationMonths, isActive).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyLibraryEntryCount проверяет количество записей библиотеки по паре пользователь-книга
func (v *TestVerification) VerifyLibraryEntryCount(t *testing.T, userUID string, bookID, expected int) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM user_library WHERE user_uid = $1 AND book_id = $2",
		userUID, bookID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifyUserSubscription проверяет тип и срок подписки пользователя
func (v *TestVerification) VerifyUserSubscription(t *testing.T, userUID, expectedType string, expectExpires bool) {
	var subscriptionType string
	var expires *time.Time
	err := v.storage.DB.QueryRow("SELECT subscription_type, subscription_expires FROM users WHERE uid = $1", userUID).
		Scan(&subscriptionType, &expires)
	require.NoError(t, err)
	require.Equal(t, expectedType, subscriptionType)
	if expectExpires {
		require.NotNil(t, expires)
	} else {
		require.Nil(t, expires)
	}
}

// VerifyPlanActive проверяет флаг активности плана
func (v *TestVerification) VerifyPlanActive(t *testing.T, planID int, expected bool) {
	var isActive bool
	err := v.storage.DB.QueryRow("SELECT is_active FROM subscription_plans WHERE id = $1", planID).Scan(&isActive)
	require.NoError(t, err)
	require.Equal(t, expected, isActive)
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	postgresContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	port, err := postgresContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err, "Failed to get port")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err, "Failed to get host")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			err = storage.DB.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	// Создаем таблицы
	_, err = storage.DB.Exec(`
        DROP TABLE IF EXISTS user_library CASCADE;
        DROP TABLE IF EXISTS subscription_plans CASCADE;
        DROP TABLE IF EXISTS books CASCADE;
        DROP TABLE IF EXISTS users CASCADE;

        CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

        CREATE TABLE users (
            uid UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
            username TEXT UNIQUE NOT NULL,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'reader',
            subscription_type TEXT NOT NULL DEFAULT 'free',
            subscription_expires TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE books (
            id SERIAL PRIMARY KEY,
            title TEXT NOT NULL,
            author_uid UUID NOT NULL REFERENCES users (uid),
            description TEXT NOT NULL DEFAULT '',
            genre TEXT NOT NULL DEFAULT '',
            isbn TEXT NOT NULL DEFAULT '',
            price NUMERIC(10, 2) NOT NULL DEFAULT 0,
            is_free BOOLEAN NOT NULL DEFAULT FALSE,
            cover_file TEXT NOT NULL DEFAULT '',
            ebook_file TEXT NOT NULL DEFAULT '',
            audiobook_file TEXT NOT NULL DEFAULT '',
            has_audiobook BOOLEAN NOT NULL DEFAULT FALSE,
            published_date DATE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE user_library (
            id SERIAL PRIMARY KEY,
            user_uid UUID NOT NULL REFERENCES users (uid),
            book_id INTEGER NOT NULL REFERENCES books (id) ON DELETE CASCADE,
            access_type TEXT NOT NULL,
            granted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (user_uid, book_id)
        );

        CREATE TABLE subscription_plans (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            price NUMERIC(10, 2) NOT NULL,
            duration_months INTEGER NOT NULL,
            features TEXT NOT NULL DEFAULT '',
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );

        CREATE INDEX idx_books_author_uid ON books (author_uid);
        CREATE INDEX idx_user_library_user_uid ON user_library (user_uid);
    `)
	require.NoError(t, err, "Failed to create tables")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if postgresContainer != nil {
			_ = postgresContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}
