package subs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Service provides business logic for subscription operations
type Service struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new subscription service
func NewService(storage Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Current returns the account's freshest subscription. This is the
// re-fetch target screens hit after a checkout navigates away: payment
// success reported by the host is optimistic, the subscription is only
// trusted once this read model says ACTIVE.
func (s *Service) Current(ctx context.Context, accountID string) (*Subscription, error) {
	list, err := s.storage.ListSubscriptions(ctx, ListCriteria{
		AccountID: &accountID,
		Limit:     1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list subscriptions")
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Activate turns a paid checkout into an ACTIVE subscription. Activation
// is idempotent per checkout: a second confirmation for the same checkout
// returns the already created subscription.
func (s *Service) Activate(ctx context.Context, params ActivateParams) (*Subscription, error) {
	existing, err := s.storage.GetSubscription(ctx, GetCriteria{CheckoutID: &params.CheckoutID})
	if err != nil {
		return nil, errors.Wrap(err, "get subscription by checkout")
	}
	if existing != nil {
		return existing, nil
	}

	expiresAt := s.now().AddDate(0, 0, params.DurationDays)
	created, err := s.storage.CreateSubscription(ctx, Subscription{
		ID:         uuid.NewString(),
		AccountID:  params.AccountID,
		MerchantID: params.MerchantID,
		ServiceID:  params.ServiceID,
		TierID:     params.TierID,
		CheckoutID: &params.CheckoutID,
		Status:     StatusActive,
		ExpiresAt:  &expiresAt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create subscription")
	}

	s.logger.Info("subscription activated",
		"subscription_id", created.ID,
		"account_id", params.AccountID,
		"tier_id", params.TierID,
		"expires_at", expiresAt,
	)
	return created, nil
}

// Cancel marks a subscription cancelled; channel access revocation is
// handled downstream.
func (s *Service) Cancel(ctx context.Context, subscriptionID string) (*Subscription, error) {
	return s.storage.UpdateSubscription(ctx,
		GetCriteria{ID: &subscriptionID},
		UpdateParams{Status: lo.ToPtr(StatusCancelled)},
	)
}

// ExpireOverdue sweeps ACTIVE subscriptions past their expiry. Called by
// the expiration worker.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.storage.ExpireOverdueSubscriptions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "expire overdue subscriptions")
	}
	if n > 0 {
		s.logger.Info("subscriptions expired", "count", n)
	}
	return n, nil
}
