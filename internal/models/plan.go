package models

import (
	"strings"
	"time"
)

// Plan представляет тарифный план подписки. Справочные данные:
// план никогда не удаляется физически, вместо этого сбрасывается
// флаг IsActive, чтобы сохранить историю для действующих подписчиков.
// DurationMonths = 0 означает бессрочный план.
type Plan struct {
	ID             int       `json:"id"`                    // Идентификатор плана
	Name           string    `json:"name"`                  // Название: Free, Basic, Premium
	Description    string    `json:"description,omitempty"` // Описание
	Price          float64   `json:"price"`                 // Цена за период
	DurationMonths int       `json:"duration_months"`       // Длительность в календарных месяцах, 0 — бессрочно
	Features       string    `json:"features,omitempty"`    // Перечень возможностей
	IsActive       bool      `json:"is_active"`             // Доступен ли план для подписки
	CreatedAt      time.Time `json:"created_at"`            // Дата создания
}

// SubscriptionType возвращает тип подписки, который получает пользователь
// этого плана. Сопоставление выполняется по названию; неизвестные названия
// считаются бесплатным тарифом.
func (p *Plan) SubscriptionType() string {
	switch strings.ToLower(p.Name) {
	case "basic":
		return SubscriptionBasic
	case "premium":
		return SubscriptionPremium
	default:
		return SubscriptionFree
	}
}

// DummyPlan используется для приёма данных тарифного плана из JSON-запроса.
type DummyPlan struct {
	Name           string  `json:"name" validate:"required"`                 // Название плана
	Description    string  `json:"description,omitempty"`                    // Описание
	Price          float64 `json:"price" validate:"gte=0"`                   // Цена (>= 0)
	DurationMonths int     `json:"duration_months" validate:"gte=0"`         // Длительность в месяцах
	Features       string  `json:"features,omitempty"`                       // Перечень возможностей
	IsActive       *bool   `json:"is_active,omitempty" validate:"omitempty"` // Флаг активности (при обновлении)
}
