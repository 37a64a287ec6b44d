package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/windproject/ebook-store/internal/models"
)

// CreateBook вставляет новую книгу каталога и возвращает её ID.
func (s *Storage) CreateBook(ctx context.Context, book models.Book) (int, error) {
	const op = "storage.CreateBook"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO books (title, author_uid, description, genre, isbn, price,
			      is_free, cover_file, ebook_file, audiobook_file, has_audiobook, published_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		book.Title, book.AuthorUID, book.Description, book.Genre, book.ISBN, book.Price,
		book.IsFree, book.CoverFile, book.EbookFile, book.AudiobookFile, book.HasAudiobook,
		book.PublishedDate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadBook возвращает книгу по её ID вместе с именем автора.
func (s *Storage) ReadBook(ctx context.Context, id int) (*models.Book, error) {
	const op = "storage.ReadBook"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.title, b.author_uid, u.username, b.description, b.genre,
			      b.isbn, b.price, b.is_free, b.cover_file, b.ebook_file, b.audiobook_file,
			      b.has_audiobook, b.published_date, b.created_at
			  FROM books b
			  JOIN users u ON b.author_uid = u.uid
			  WHERE b.id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Book
	var publishedDate sql.NullTime
	if err := row.Scan(&result.ID, &result.Title, &result.AuthorUID, &result.AuthorName,
		&result.Description, &result.Genre, &result.ISBN, &result.Price, &result.IsFree,
		&result.CoverFile, &result.EbookFile, &result.AudiobookFile, &result.HasAudiobook,
		&publishedDate, &result.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if publishedDate.Valid {
		result.PublishedDate = &publishedDate.Time
	}
	return &result, nil
}

// UpdateBook обновляет данные книги по её ID и возвращает количество изменённых строк.
func (s *Storage) UpdateBook(ctx context.Context, book models.Book, id int) (int, error) {
	const op = "storage.UpdateBook"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE books
			  SET title = $1, description = $2, genre = $3, isbn = $4, price = $5,
			      is_free = $6, cover_file = $7, ebook_file = $8, audiobook_file = $9,
			      has_audiobook = $10, published_date = $11, updated_at = CURRENT_TIMESTAMP
			  WHERE id = $12`
	result, err := s.DB.ExecContext(ctx, query,
		book.Title, book.Description, book.Genre, book.ISBN, book.Price,
		book.IsFree, book.CoverFile, book.EbookFile, book.AudiobookFile,
		book.HasAudiobook, book.PublishedDate, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveBook удаляет книгу по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveBook(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveBook"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM books WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListBooks возвращает страницу каталога по заданному фильтру.
func (s *Storage) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	const op = "storage.ListBooks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.title, b.author_uid, u.username, b.description, b.genre,
			      b.isbn, b.price, b.is_free, b.cover_file, b.ebook_file, b.audiobook_file,
			      b.has_audiobook, b.published_date, b.created_at
			  FROM books b
			  JOIN users u ON b.author_uid = u.uid
			  WHERE ($1::text IS NULL OR b.genre = $1)
			    AND ($2::text IS NULL OR b.title ILIKE '%' || $2 || '%' OR b.description ILIKE '%' || $2 || '%')
			    AND ($3::uuid IS NULL OR b.author_uid = $3)
			    AND (NOT $4::boolean OR b.has_audiobook)
			  ORDER BY b.created_at DESC
			  LIMIT $5 OFFSET $6`
	rows, err := s.DB.QueryContext(ctx, query,
		filter.Genre, filter.Search, filter.AuthorUID, filter.HasAudiobook,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Book
	for rows.Next() {
		var item models.Book
		var publishedDate sql.NullTime
		if err := rows.Scan(&item.ID, &item.Title, &item.AuthorUID, &item.AuthorName,
			&item.Description, &item.Genre, &item.ISBN, &item.Price, &item.IsFree,
			&item.CoverFile, &item.EbookFile, &item.AudiobookFile, &item.HasAudiobook,
			&publishedDate, &item.CreatedAt); err != nil {
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

// CountBooks подсчитывает количество книг, попадающих под фильтр.
func (s *Storage) CountBooks(ctx context.Context, filter models.BookFilter) (int, error) {
	const op = "storage.CountBooks"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*)
			  FROM books b
			  WHERE ($1::text IS NULL OR b.genre = $1)
			    AND ($2::text IS NULL OR b.title ILIKE '%' || $2 || '%' OR b.description ILIKE '%' || $2 || '%')
			    AND ($3::uuid IS NULL OR b.author_uid = $3)
			    AND (NOT $4::boolean OR b.has_audiobook)`
	var total int
	err := s.DB.QueryRowContext(ctx, query,
		filter.Genre, filter.Search, filter.AuthorUID, filter.HasAudiobook).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
