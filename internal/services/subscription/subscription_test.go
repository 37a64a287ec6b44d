package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/windproject/ebook-store/internal/lib/rabbitmq"
	"github.com/windproject/ebook-store/internal/models"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) UpdateSubscription(ctx context.Context, userUID, subscriptionType string, expires *time.Time) error {
	return m.Called(ctx, userUID, subscriptionType, expires).Error(0)
}

type PlansMock struct{ mock.Mock }

func (m *PlansMock) CreatePlan(ctx context.Context, plan models.Plan) (int, error) {
	args := m.Called(ctx, plan)
	return args.Int(0), args.Error(1)
}
func (m *PlansMock) ReadPlan(ctx context.Context, id int) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *PlansMock) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}
func (m *PlansMock) UpdatePlan(ctx context.Context, plan models.Plan, id int) (int, error) {
	args := m.Called(ctx, plan, id)
	return args.Int(0), args.Error(1)
}
func (m *PlansMock) DeactivatePlan(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type EventsMock struct{ mock.Mock }

func (m *EventsMock) PublishSubscriptionEvent(routingKey string, event models.SubscriptionEvent) error {
	return m.Called(routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestSubscriptionService_Reconcile(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)

	tests := []struct {
		name       string
		user       *models.User
		setupMocks func(u *UsersMock, e *EventsMock)
		wantType   string
		wantNilExp bool
	}{
		{
			name: "expired premium downgraded to free",
			user: &models.User{
				UID:                 "uid-1",
				Username:            "alice",
				SubscriptionType:    models.SubscriptionPremium,
				SubscriptionExpires: ptrTime(yesterday),
			},
			setupMocks: func(u *UsersMock, e *EventsMock) {
				u.On("UpdateSubscription", mock.Anything, "uid-1", models.SubscriptionFree, (*time.Time)(nil)).
					Return(nil).Once()
				e.On("PublishSubscriptionEvent", rabbitmq.RoutingKeyExpired, mock.MatchedBy(func(ev models.SubscriptionEvent) bool {
					return ev.UserUID == "uid-1" && ev.Type == models.SubscriptionFree
				})).Return(nil).Once()
			},
			wantType:   models.SubscriptionFree,
			wantNilExp: true,
		},
		{
			name: "active basic untouched",
			user: &models.User{
				UID:                 "uid-2",
				SubscriptionType:    models.SubscriptionBasic,
				SubscriptionExpires: ptrTime(tomorrow),
			},
			setupMocks: func(_ *UsersMock, _ *EventsMock) {},
			wantType:   models.SubscriptionBasic,
			wantNilExp: false,
		},
		{
			name: "perpetual premium untouched",
			user: &models.User{
				UID:              "uid-3",
				SubscriptionType: models.SubscriptionPremium,
			},
			setupMocks: func(_ *UsersMock, _ *EventsMock) {},
			wantType:   models.SubscriptionPremium,
			wantNilExp: true,
		},
		{
			name: "free user untouched even with stale expires",
			user: &models.User{
				UID:              "uid-4",
				SubscriptionType: models.SubscriptionFree,
			},
			setupMocks: func(_ *UsersMock, _ *EventsMock) {},
			wantType:   models.SubscriptionFree,
			wantNilExp: true,
		},
		{
			name: "persistence failure keeps stale state",
			user: &models.User{
				UID:                 "uid-5",
				SubscriptionType:    models.SubscriptionPremium,
				SubscriptionExpires: ptrTime(yesterday),
			},
			setupMocks: func(u *UsersMock, _ *EventsMock) {
				u.On("UpdateSubscription", mock.Anything, "uid-5", models.SubscriptionFree, (*time.Time)(nil)).
					Return(errors.New("db down")).Once()
			},
			wantType:   models.SubscriptionPremium,
			wantNilExp: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			plans := new(PlansMock)
			events := new(EventsMock)
			svc := NewSubscriptionService(users, plans, events, newNoopLogger())

			tt.setupMocks(users, events)

			got := svc.Reconcile(context.Background(), tt.user)

			assert.Equal(t, tt.wantType, got.SubscriptionType)
			if tt.wantNilExp {
				assert.Nil(t, got.SubscriptionExpires)
			} else {
				assert.NotNil(t, got.SubscriptionExpires)
			}

			users.AssertExpectations(t)
			events.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Reconcile_NilUser(t *testing.T) {
	svc := NewSubscriptionService(new(UsersMock), new(PlansMock), new(EventsMock), newNoopLogger())
	assert.Nil(t, svc.Reconcile(context.Background(), nil))
}

func TestSubscriptionService_ChangePlan(t *testing.T) {
	user := &models.User{UID: "uid-1", Username: "alice"}

	tests := []struct {
		name       string
		planID     int
		setupMocks func(u *UsersMock, p *PlansMock, e *EventsMock)
		wantType   string
		wantNilExp bool
		wantErr    error
	}{
		{
			name:   "basic plan sets expiry one month ahead",
			planID: 2,
			setupMocks: func(u *UsersMock, p *PlansMock, e *EventsMock) {
				p.On("ReadPlan", mock.Anything, 2).
					Return(&models.Plan{ID: 2, Name: "Basic", DurationMonths: 1}, nil).Once()
				u.On("UpdateSubscription", mock.Anything, "uid-1", models.SubscriptionBasic,
					mock.MatchedBy(func(exp *time.Time) bool { return exp != nil && exp.After(time.Now()) })).
					Return(nil).Once()
				e.On("PublishSubscriptionEvent", rabbitmq.RoutingKeyChanged, mock.MatchedBy(func(ev models.SubscriptionEvent) bool {
					return ev.PlanName == "Basic" && ev.Type == models.SubscriptionBasic
				})).Return(nil).Once()
			},
			wantType:   models.SubscriptionBasic,
			wantNilExp: false,
		},
		{
			name:   "zero duration paid plan is perpetual",
			planID: 5,
			setupMocks: func(u *UsersMock, p *PlansMock, e *EventsMock) {
				p.On("ReadPlan", mock.Anything, 5).
					Return(&models.Plan{ID: 5, Name: "Premium", DurationMonths: 0}, nil).Once()
				u.On("UpdateSubscription", mock.Anything, "uid-1", models.SubscriptionPremium, (*time.Time)(nil)).
					Return(nil).Once()
				e.On("PublishSubscriptionEvent", rabbitmq.RoutingKeyChanged, mock.Anything).Return(nil).Once()
			},
			wantType:   models.SubscriptionPremium,
			wantNilExp: true,
		},
		{
			name:   "free plan never gets expiry",
			planID: 1,
			setupMocks: func(u *UsersMock, p *PlansMock, e *EventsMock) {
				p.On("ReadPlan", mock.Anything, 1).
					Return(&models.Plan{ID: 1, Name: "Free", DurationMonths: 0}, nil).Once()
				u.On("UpdateSubscription", mock.Anything, "uid-1", models.SubscriptionFree, (*time.Time)(nil)).
					Return(nil).Once()
				e.On("PublishSubscriptionEvent", rabbitmq.RoutingKeyChanged, mock.Anything).Return(nil).Once()
			},
			wantType:   models.SubscriptionFree,
			wantNilExp: true,
		},
		{
			name:   "unknown plan",
			planID: 99,
			setupMocks: func(_ *UsersMock, p *PlansMock, _ *EventsMock) {
				p.On("ReadPlan", mock.Anything, 99).Return(nil, sql.ErrNoRows).Once()
			},
			wantErr: ErrPlanNotFound,
		},
		{
			name:   "broker failure does not fail the request",
			planID: 2,
			setupMocks: func(u *UsersMock, p *PlansMock, e *EventsMock) {
				p.On("ReadPlan", mock.Anything, 2).
					Return(&models.Plan{ID: 2, Name: "Basic", DurationMonths: 1}, nil).Once()
				u.On("UpdateSubscription", mock.Anything, "uid-1", models.SubscriptionBasic, mock.Anything).
					Return(nil).Once()
				e.On("PublishSubscriptionEvent", rabbitmq.RoutingKeyChanged, mock.Anything).
					Return(errors.New("broker down")).Once()
			},
			wantType:   models.SubscriptionBasic,
			wantNilExp: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			plans := new(PlansMock)
			events := new(EventsMock)
			svc := NewSubscriptionService(users, plans, events, newNoopLogger())

			tt.setupMocks(users, plans, events)

			gotType, gotExpires, err := svc.ChangePlan(context.Background(), user, tt.planID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantType, gotType)
				if tt.wantNilExp {
					assert.Nil(t, gotExpires)
				} else {
					assert.NotNil(t, gotExpires)
				}
			}

			users.AssertExpectations(t)
			plans.AssertExpectations(t)
			events.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Cancel(t *testing.T) {
	user := &models.User{UID: "uid-1", Username: "alice", SubscriptionType: models.SubscriptionPremium}

	users := new(UsersMock)
	events := new(EventsMock)
	users.On("UpdateSubscription", mock.Anything, "uid-1", models.SubscriptionFree, (*time.Time)(nil)).
		Return(nil).Once()
	events.On("PublishSubscriptionEvent", rabbitmq.RoutingKeyCancelled, mock.MatchedBy(func(ev models.SubscriptionEvent) bool {
		return ev.UserUID == "uid-1" && ev.Type == models.SubscriptionFree
	})).Return(nil).Once()

	svc := NewSubscriptionService(users, new(PlansMock), events, newNoopLogger())
	assert.NoError(t, svc.Cancel(context.Background(), user))

	users.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestSubscriptionService_Status(t *testing.T) {
	svc := NewSubscriptionService(new(UsersMock), new(PlansMock), new(EventsMock), newNoopLogger())

	t.Run("perpetual subscription is active without days remaining", func(t *testing.T) {
		st := svc.Status(&models.User{SubscriptionType: models.SubscriptionPremium})
		assert.True(t, st.IsActive)
		assert.Nil(t, st.DaysRemaining)
	})

	t.Run("active subscription reports days remaining", func(t *testing.T) {
		exp := time.Now().UTC().AddDate(0, 0, 10)
		st := svc.Status(&models.User{
			SubscriptionType:    models.SubscriptionBasic,
			SubscriptionExpires: &exp,
		})
		assert.True(t, st.IsActive)
		assert.NotNil(t, st.DaysRemaining)
		assert.Equal(t, 10, *st.DaysRemaining)
	})

	t.Run("expired subscription is inactive", func(t *testing.T) {
		exp := time.Now().UTC().AddDate(0, 0, -1)
		st := svc.Status(&models.User{
			SubscriptionType:    models.SubscriptionBasic,
			SubscriptionExpires: &exp,
		})
		assert.False(t, st.IsActive)
		assert.Nil(t, st.DaysRemaining)
	})
}

func TestSubscriptionService_Override(t *testing.T) {
	tests := []struct {
		name             string
		subscriptionType string
		durationMonths   int
		wantNilExp       bool
	}{
		{"free always clears expiry", models.SubscriptionFree, 6, true},
		{"paid with months gets expiry", models.SubscriptionPremium, 3, false},
		{"paid with zero months is perpetual", models.SubscriptionBasic, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			users.On("UpdateSubscription", mock.Anything, "uid-9", tt.subscriptionType,
				mock.MatchedBy(func(exp *time.Time) bool { return (exp == nil) == tt.wantNilExp })).
				Return(nil).Once()

			svc := NewSubscriptionService(users, new(PlansMock), new(EventsMock), newNoopLogger())
			assert.NoError(t, svc.Override(context.Background(), "uid-9", tt.subscriptionType, tt.durationMonths))
			users.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Plans(t *testing.T) {
	t.Run("create plan", func(t *testing.T) {
		plans := new(PlansMock)
		plans.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
			return p.Name == "Basic" && p.IsActive
		})).Return(3, nil).Once()

		svc := NewSubscriptionService(new(UsersMock), plans, new(EventsMock), newNoopLogger())
		id, err := svc.CreatePlan(context.Background(), models.DummyPlan{Name: "Basic", Price: 9.99, DurationMonths: 1})
		assert.NoError(t, err)
		assert.Equal(t, 3, id)
		plans.AssertExpectations(t)
	})

	t.Run("update missing plan", func(t *testing.T) {
		plans := new(PlansMock)
		plans.On("UpdatePlan", mock.Anything, mock.Anything, 42).Return(0, nil).Once()

		svc := NewSubscriptionService(new(UsersMock), plans, new(EventsMock), newNoopLogger())
		err := svc.UpdatePlan(context.Background(), models.DummyPlan{Name: "Basic"}, 42)
		assert.ErrorIs(t, err, ErrPlanNotFound)
		plans.AssertExpectations(t)
	})

	t.Run("deactivate plan", func(t *testing.T) {
		plans := new(PlansMock)
		plans.On("DeactivatePlan", mock.Anything, 2).Return(1, nil).Once()

		svc := NewSubscriptionService(new(UsersMock), plans, new(EventsMock), newNoopLogger())
		assert.NoError(t, svc.DeactivatePlan(context.Background(), 2))
		plans.AssertExpectations(t)
	})
}
