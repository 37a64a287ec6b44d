package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/windproject/ebook-store/internal/models"
)

// CreatePlan добавляет новый тарифный план и возвращает его ID.
func (s *SubscriptionService) CreatePlan(ctx context.Context, req models.DummyPlan) (int, error) {
	const op = "services.subscription.CreatePlan"

	plan := models.Plan{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Features:       req.Features,
		IsActive:       true,
	}

	id, err := s.plans.CreatePlan(ctx, plan)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ReadPlan возвращает активный план по ID.
func (s *SubscriptionService) ReadPlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "services.subscription.ReadPlan"

	plan, err := s.plans.ReadPlan(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// ListPlans возвращает все активные планы, отсортированные по цене.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "services.subscription.ListPlans"

	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// UpdatePlan обновляет тарифный план по ID. Смена плана не меняет
// подписки уже оформивших его пользователей.
func (s *SubscriptionService) UpdatePlan(ctx context.Context, req models.DummyPlan, id int) error {
	const op = "services.subscription.UpdatePlan"

	plan := models.Plan{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		Features:       req.Features,
		IsActive:       true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	affected, err := s.plans.UpdatePlan(ctx, plan, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// DeactivatePlan снимает план с продажи. План остаётся в базе:
// активные подписки продолжают на него ссылаться до истечения.
func (s *SubscriptionService) DeactivatePlan(ctx context.Context, id int) error {
	const op = "services.subscription.DeactivatePlan"

	affected, err := s.plans.DeactivatePlan(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}
