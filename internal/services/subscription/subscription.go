// Package services содержит бизнес-логику жизненного цикла подписки:
// ленивое пересогласование истёкших подписок, смену и отмену плана,
// а также управление справочником тарифных планов.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windproject/ebook-store/internal/lib/month"
	"github.com/windproject/ebook-store/internal/lib/rabbitmq"
	"github.com/windproject/ebook-store/internal/lib/sl"
	"github.com/windproject/ebook-store/internal/metrics"
	"github.com/windproject/ebook-store/internal/models"
)

var (
	// ErrPlanNotFound возвращается при подписке на несуществующий
	// или снятый с продажи план.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrUserNotFound возвращается при назначении подписки
	// несуществующему пользователю.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository определяет методы для работы с подписочным состоянием пользователя.
type UserRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpdateSubscription записывает новый тип подписки и дату истечения.
	UpdateSubscription(ctx context.Context, userUID, subscriptionType string, expires *time.Time) error
}

// PlanRepository определяет методы для работы со справочником тарифных планов.
type PlanRepository interface {
	// CreatePlan добавляет новый план и возвращает его ID.
	CreatePlan(ctx context.Context, plan models.Plan) (int, error)
	// ReadPlan возвращает активный план по ID.
	ReadPlan(ctx context.Context, id int) (*models.Plan, error)
	// ListPlans возвращает все активные планы.
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	// UpdatePlan обновляет план по ID и возвращает количество изменённых записей.
	UpdatePlan(ctx context.Context, plan models.Plan, id int) (int, error)
	// DeactivatePlan снимает план с продажи.
	DeactivatePlan(ctx context.Context, id int) (int, error)
}

// EventPublisher описывает публикацию событий жизненного цикла подписки.
type EventPublisher interface {
	// PublishSubscriptionEvent отправляет событие с заданным маршрутным ключом.
	PublishSubscriptionEvent(routingKey string, event models.SubscriptionEvent) error
}

// SubscriptionStatus описывает текущее подписочное состояние пользователя
// для ответа на запрос статуса.
type SubscriptionStatus struct {
	Type          string
	Expires       *time.Time
	IsActive      bool
	DaysRemaining *int
}

// SubscriptionService реализует жизненный цикл подписки.
type SubscriptionService struct {
	users  UserRepository
	plans  PlanRepository
	events EventPublisher
	log    *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(users UserRepository, plans PlanRepository, events EventPublisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		users:  users,
		plans:  plans,
		events: events,
		log:    log,
	}
}

// Reconcile лениво сбрасывает истёкшую платную подписку на бесплатный тариф.
// Вызывается на каждом аутентифицированном запросе до любых проверок доступа,
// поэтому фоновый планировщик не нужен.
//
// Ошибка записи не прерывает запрос: сбой логируется, и до конца запроса
// используется устаревшее, но не истёкшее состояние.
func (s *SubscriptionService) Reconcile(ctx context.Context, user *models.User) *models.User {
	if user == nil || !subscriptionExpired(user, time.Now().UTC()) {
		return user
	}

	updated := *user
	updated.SubscriptionType = models.SubscriptionFree
	updated.SubscriptionExpires = nil

	if err := s.users.UpdateSubscription(ctx, user.UID, models.SubscriptionFree, nil); err != nil {
		s.log.Error("failed to persist lazy subscription downgrade",
			slog.String("user_uid", user.UID), sl.Err(err))
		return user
	}

	metrics.SubscriptionExpirations.Inc()
	s.log.Info("subscription lazily downgraded to free",
		slog.String("user_uid", user.UID),
		slog.String("was", user.SubscriptionType))

	s.publish(rabbitmq.RoutingKeyExpired, models.SubscriptionEvent{
		UserUID:  user.UID,
		Username: user.Username,
		Type:     models.SubscriptionFree,
		Occurred: time.Now().UTC(),
	})

	return &updated
}

// subscriptionExpired сообщает, истёк ли платный тариф пользователя к моменту now.
// Подписка без даты истечения бессрочна.
func subscriptionExpired(user *models.User, now time.Time) bool {
	return user.SubscriptionType != models.SubscriptionFree &&
		user.SubscriptionExpires != nil &&
		user.SubscriptionExpires.Before(now)
}

// ChangePlan переводит пользователя на план с заданным ID и возвращает
// новый тип подписки и дату истечения. Смена плана — полная замена:
// остаток предыдущего плана не переносится.
//
// План с duration_months = 0 считается бессрочным, а не мгновенно истёкшим.
func (s *SubscriptionService) ChangePlan(ctx context.Context, user *models.User, planID int) (string, *time.Time, error) {
	const op = "services.subscription.ChangePlan"

	plan, err := s.plans.ReadPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrPlanNotFound
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	subscriptionType := plan.SubscriptionType()
	var expires *time.Time
	if subscriptionType != models.SubscriptionFree {
		expires = month.Expiry(time.Now().UTC(), plan.DurationMonths)
	}

	if err := s.users.UpdateSubscription(ctx, user.UID, subscriptionType, expires); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription plan changed",
		slog.String("user_uid", user.UID),
		slog.String("plan", plan.Name),
		slog.String("type", subscriptionType))

	s.publish(rabbitmq.RoutingKeyChanged, models.SubscriptionEvent{
		UserUID:  user.UID,
		Username: user.Username,
		Type:     subscriptionType,
		PlanName: plan.Name,
		Expires:  expires,
		Occurred: time.Now().UTC(),
	})

	return subscriptionType, expires, nil
}

// Cancel возвращает пользователя на бесплатный тариф.
func (s *SubscriptionService) Cancel(ctx context.Context, user *models.User) error {
	const op = "services.subscription.Cancel"

	if err := s.users.UpdateSubscription(ctx, user.UID, models.SubscriptionFree, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription cancelled", slog.String("user_uid", user.UID))

	s.publish(rabbitmq.RoutingKeyCancelled, models.SubscriptionEvent{
		UserUID:  user.UID,
		Username: user.Username,
		Type:     models.SubscriptionFree,
		Occurred: time.Now().UTC(),
	})

	return nil
}

// Status возвращает подписочное состояние пользователя.
func (s *SubscriptionService) Status(user *models.User) SubscriptionStatus {
	status := SubscriptionStatus{
		Type:     user.SubscriptionType,
		Expires:  user.SubscriptionExpires,
		IsActive: true,
	}
	if user.SubscriptionExpires != nil {
		now := time.Now().UTC()
		status.IsActive = !now.After(*user.SubscriptionExpires)
		if status.IsActive {
			days := month.DaysRemaining(now, *user.SubscriptionExpires)
			status.DaysRemaining = &days
		}
	}
	return status
}

// Override назначает пользователю подписку напрямую, в обход планов.
// Используется административной панелью. Для бесплатного тарифа дата
// истечения всегда NULL.
func (s *SubscriptionService) Override(ctx context.Context, userUID, subscriptionType string, durationMonths int) error {
	const op = "services.subscription.Override"

	var expires *time.Time
	if subscriptionType != models.SubscriptionFree {
		expires = month.Expiry(time.Now().UTC(), durationMonths)
	}

	if err := s.users.UpdateSubscription(ctx, userUID, subscriptionType, expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription overridden by admin",
		slog.String("user_uid", userUID),
		slog.String("type", subscriptionType))
	return nil
}

// publish отправляет событие подписки. Отказ брокера не влияет на запрос:
// событие теряется, сбой логируется.
func (s *SubscriptionService) publish(routingKey string, event models.SubscriptionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSubscriptionEvent(routingKey, event); err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}
