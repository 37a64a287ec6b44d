// Package month содержит календарную арифметику для сроков подписки.
package month

import (
	"time"
)

// Expiry возвращает дату окончания подписки: start плюс months календарных
// месяцев. Для months = 0 возвращает nil — такой план бессрочный.
func Expiry(start time.Time, months int) *time.Time {
	if months <= 0 {
		return nil
	}
	end := start.AddDate(0, months, 0)
	return &end
}

// DaysRemaining считает, сколько полных или неполных дней осталось
// до expires относительно now. Неполный день округляется вверх.
// Для уже истёкшей даты возвращает 0.
func DaysRemaining(now, expires time.Time) int {
	if !now.Before(expires) {
		return 0
	}
	diff := expires.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}
