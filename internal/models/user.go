// Package models содержит доменные структуры книжного магазина:
// пользователей, книги, записи библиотеки и тарифные планы,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей системы.
const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// Типы подписки пользователя.
const (
	SubscriptionFree    = "free"
	SubscriptionBasic   = "basic"
	SubscriptionPremium = "premium"
)

// User представляет зарегистрированного пользователя системы.
// Поле SubscriptionExpires равно nil, когда SubscriptionType = free —
// бесплатный тариф не имеет даты окончания.
type User struct {
	UID                 string     `json:"uid"`                            // Уникальный идентификатор пользователя
	Username            string     `json:"username"`                       // Имя пользователя (уникальное)
	Email               string     `json:"email"`                          // Электронная почта
	PasswordHash        string     `json:"-"`                              // Хэш пароля, в ответы не попадает
	Role                string     `json:"role"`                           // Роль: reader, author или admin
	SubscriptionType    string     `json:"subscription_type"`              // Тип подписки: free, basic или premium
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"` // Дата истечения оплаченной подписки
	CreatedAt           time.Time  `json:"created_at"`                     // Дата регистрации
}

// HasPaidSubscription сообщает, находится ли пользователь на платном тарифе.
// Истечение срока здесь не проверяется: актуальность тарифа обеспечивает
// ленивое пересогласование при каждом аутентифицированном запросе.
func (u *User) HasPaidSubscription() bool {
	return u.SubscriptionType != SubscriptionFree
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Password string `json:"password" validate:"required,min=6"`    // Пароль (не короче 6 символов)
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=reader author"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"` // Электронная почта
	Password string `json:"password" validate:"required"`    // Пароль
}

// DummyProfile используется для приёма данных обновления профиля.
type DummyProfile struct {
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
}

// UserStats агрегирует статистику по книгам пользователя.
type UserStats struct {
	AuthoredBooks int `json:"authored_books"` // Книги, где пользователь автор
	LibraryBooks  int `json:"library_books"`  // Записи в личной библиотеке
	RecentGrants  int `json:"recent_grants"`  // Доступы, выданные за последние 30 дней
}

// DummyRole используется для приёма новой роли пользователя
// в административной панели.
type DummyRole struct {
	Role string `json:"role" validate:"required,oneof=reader author admin"`
}

// DummySubscriptionOverride используется для прямого назначения подписки
// администратором, в обход тарифных планов.
type DummySubscriptionOverride struct {
	SubscriptionType string `json:"subscription_type" validate:"required,oneof=free basic premium"`
	DurationMonths   int    `json:"duration_months" validate:"gte=0"` // 0 у платного тарифа означает бессрочно
}
