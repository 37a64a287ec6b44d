package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/windproject/ebook-store/internal/models"
)

// GrantAccess вставляет запись библиотеки по паре (user_uid, book_id).
// Повторная выдача доступа не создаёт дубликат и не является ошибкой:
// ON CONFLICT DO NOTHING возвращает 0 изменённых строк.
func (s *Storage) GrantAccess(ctx context.Context, entry models.LibraryEntry) (int, error) {
	const op = "storage.GrantAccess"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_library (user_uid, book_id, access_type)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, book_id) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query, entry.UserUID, entry.BookID, entry.AccessType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ReadLibraryEntry возвращает запись библиотеки по паре (user_uid, book_id).
func (s *Storage) ReadLibraryEntry(ctx context.Context, userUID string, bookID int) (*models.LibraryEntry, error) {
	const op = "storage.ReadLibraryEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, book_id, access_type, granted_at
			  FROM user_library
			  WHERE user_uid = $1 AND book_id = $2`
	row := s.DB.QueryRowContext(ctx, query, userUID, bookID)

	var result models.LibraryEntry
	if err := row.Scan(&result.UserUID, &result.BookID, &result.AccessType, &result.GrantedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListLibrary возвращает библиотеку пользователя: записи доступа,
// объединённые с данными книг, от недавних к старым.
func (s *Storage) ListLibrary(ctx context.Context, userUID string) ([]*models.LibraryBook, error) {
	const op = "storage.ListLibrary"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.title, b.author_uid, u.username, b.description, b.genre,
			      b.isbn, b.price, b.is_free, b.cover_file, b.ebook_file, b.audiobook_file,
			      b.has_audiobook, b.published_date, b.created_at,
			      ul.access_type, ul.granted_at
			  FROM user_library ul
			  JOIN books b ON ul.book_id = b.id
			  JOIN users u ON b.author_uid = u.uid
			  WHERE ul.user_uid = $1
			  ORDER BY ul.granted_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.LibraryBook
	for rows.Next() {
		var item models.LibraryBook
		var publishedDate sql.NullTime
		if err := rows.Scan(&item.ID, &item.Title, &item.AuthorUID, &item.AuthorName,
			&item.Description, &item.Genre, &item.ISBN, &item.Price, &item.IsFree,
			&item.CoverFile, &item.EbookFile, &item.AudiobookFile, &item.HasAudiobook,
			&publishedDate, &item.CreatedAt, &item.AccessType, &item.GrantedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if publishedDate.Valid {
			item.PublishedDate = &publishedDate.Time
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
