package models

import "time"

// Типы доступа к книге в библиотеке пользователя.
const (
	AccessPurchased    = "purchased"
	AccessSubscription = "subscription"
	AccessFree         = "free"
)

// LibraryEntry представляет запись библиотеки: подтверждение того,
// что пользователь имеет доступ к книге. Пара (UserUID, BookID) уникальна,
// повторная выдача доступа не создаёт дубликатов.
type LibraryEntry struct {
	UserUID    string    `json:"user_uid"`    // UID пользователя
	BookID     int       `json:"book_id"`     // Идентификатор книги
	AccessType string    `json:"access_type"` // Как получен доступ: purchased, subscription или free
	GrantedAt  time.Time `json:"granted_at"`  // Когда доступ был выдан
}

// LibraryBook объединяет запись библиотеки с данными книги
// для выдачи списка «моя библиотека».
type LibraryBook struct {
	Book
	AccessType string    `json:"access_type"` // Как получен доступ
	GrantedAt  time.Time `json:"granted_at"`  // Когда доступ был выдан
}

// DummyAccessRequest используется для приёма запроса на доступ к книге.
// Поле AccessType опционально: purchased означает разовую покупку
// в обход подписки.
type DummyAccessRequest struct {
	AccessType string `json:"access_type,omitempty" validate:"omitempty,oneof=purchased subscription"`
}

// SubscriptionEvent описывает событие жизненного цикла подписки,
// публикуемое в очередь сообщений.
type SubscriptionEvent struct {
	UserUID  string     `json:"user_uid"`
	Username string     `json:"username"`
	Type     string     `json:"type"`              // Новый тип подписки
	PlanName string     `json:"plan_name"`         // Название плана (пусто при ленивом сбросе)
	Expires  *time.Time `json:"expires,omitempty"` // Новая дата истечения
	Occurred time.Time  `json:"occurred"`          // Когда произошло событие
}
