package models

import "time"

// Book представляет книгу каталога. Поля CoverFile, EbookFile и
// AudiobookFile хранят имена загруженных файлов; сама загрузка и раздача
// файлов выполняются вне этого сервиса.
type Book struct {
	ID            int        `json:"id"`                       // Идентификатор книги
	Title         string     `json:"title"`                    // Название
	AuthorUID     string     `json:"author_uid"`               // UID пользователя-автора
	AuthorName    string     `json:"author_name,omitempty"`    // Имя автора (заполняется при выборке с JOIN)
	Description   string     `json:"description"`              // Описание
	Genre         string     `json:"genre,omitempty"`          // Жанр
	ISBN          string     `json:"isbn,omitempty"`           // ISBN
	Price         float64    `json:"price"`                    // Цена за экземпляр
	IsFree        bool       `json:"is_free"`                  // Книга доступна бесплатно всем
	CoverFile     string     `json:"cover_file,omitempty"`     // Имя файла обложки
	EbookFile     string     `json:"ebook_file,omitempty"`     // Имя файла электронной книги
	AudiobookFile string     `json:"audiobook_file,omitempty"` // Имя файла аудиокниги
	HasAudiobook  bool       `json:"has_audiobook"`            // Есть ли аудиоверсия
	PublishedDate *time.Time `json:"published_date,omitempty"` // Дата публикации
	CreatedAt     time.Time  `json:"created_at"`               // Дата добавления в каталог
}

// DummyBook используется для приёма данных книги из JSON-запроса
// при создании и обновлении.
type DummyBook struct {
	Title         string  `json:"title" validate:"required"`       // Название
	Description   string  `json:"description" validate:"required"` // Описание
	Genre         string  `json:"genre,omitempty"`                 // Жанр
	ISBN          string  `json:"isbn,omitempty"`                  // ISBN
	Price         float64 `json:"price" validate:"gte=0"`          // Цена (>= 0)
	IsFree        bool    `json:"is_free"`                         // Флаг бесплатной книги
	CoverFile     string  `json:"cover_file,omitempty"`            // Имя файла обложки
	EbookFile     string  `json:"ebook_file,omitempty"`            // Имя файла книги
	AudiobookFile string  `json:"audiobook_file,omitempty"`        // Имя файла аудиокниги
	PublishedDate string  `json:"published_date,omitempty"`        // Дата публикации в формате 02-01-2006
}

// BookFilter задаёт параметры выборки каталога: фильтры и пагинацию.
type BookFilter struct {
	Genre        *string // Жанр (nil — без фильтра)
	Search       *string // Подстрока для поиска по названию и описанию
	AuthorUID    *string // UID автора
	HasAudiobook bool    // Только книги с аудиоверсией
	Limit        int
	Offset       int
}
