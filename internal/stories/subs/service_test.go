package subs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateSubscription(ctx context.Context, sub Subscription) (*Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Subscription), args.Error(1)
}

func (m *MockStorage) GetSubscription(ctx context.Context, criteria GetCriteria) (*Subscription, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Subscription), args.Error(1)
}

func (m *MockStorage) ListSubscriptions(ctx context.Context, criteria ListCriteria) ([]*Subscription, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Subscription), args.Error(1)
}

func (m *MockStorage) UpdateSubscription(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Subscription, error) {
	args := m.Called(ctx, criteria, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Subscription), args.Error(1)
}

func (m *MockStorage) ExpireOverdueSubscriptions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Activate_CreatesActiveSubscription(t *testing.T) {
	storage := new(MockStorage)
	checkoutID := "chk-1"

	storage.On("GetSubscription", mock.Anything, GetCriteria{CheckoutID: &checkoutID}).
		Return(nil, nil).Once()
	storage.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s Subscription) bool {
		return s.AccountID == "acc-1" &&
			s.Status == StatusActive &&
			s.CheckoutID != nil && *s.CheckoutID == "chk-1" &&
			s.ExpiresAt != nil
	})).Return(&Subscription{ID: "sub-1", AccountID: "acc-1", Status: StatusActive}, nil).Once()

	svc := NewService(storage, newNoopLogger())
	created, err := svc.Activate(context.Background(), ActivateParams{
		AccountID:    "acc-1",
		MerchantID:   "mrc-1",
		ServiceID:    "svc-1",
		TierID:       "tier-pro",
		CheckoutID:   checkoutID,
		DurationDays: 30,
	})

	require.NoError(t, err)
	assert.Equal(t, "sub-1", created.ID)
	storage.AssertExpectations(t)
}

func TestService_Activate_IdempotentPerCheckout(t *testing.T) {
	storage := new(MockStorage)
	checkoutID := "chk-1"
	existing := &Subscription{ID: "sub-1", AccountID: "acc-1", Status: StatusActive}

	storage.On("GetSubscription", mock.Anything, GetCriteria{CheckoutID: &checkoutID}).
		Return(existing, nil).Once()

	svc := NewService(storage, newNoopLogger())
	got, err := svc.Activate(context.Background(), ActivateParams{
		AccountID:  "acc-1",
		CheckoutID: checkoutID,
	})

	require.NoError(t, err)
	assert.Equal(t, existing, got)
	storage.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestService_Activate_ExpiryFromDuration(t *testing.T) {
	storage := new(MockStorage)
	checkoutID := "chk-1"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	storage.On("GetSubscription", mock.Anything, mock.Anything).
		Return(nil, nil).Once()
	storage.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s Subscription) bool {
		return s.ExpiresAt != nil && s.ExpiresAt.Equal(now.AddDate(0, 0, 30))
	})).Return(&Subscription{ID: "sub-1"}, nil).Once()

	svc := NewService(storage, newNoopLogger())
	svc.now = func() time.Time { return now }

	_, err := svc.Activate(context.Background(), ActivateParams{
		AccountID:    "acc-1",
		CheckoutID:   checkoutID,
		DurationDays: 30,
	})

	require.NoError(t, err)
	storage.AssertExpectations(t)
}

func TestService_Current_NoSubscription(t *testing.T) {
	storage := new(MockStorage)
	accountID := "acc-1"
	storage.On("ListSubscriptions", mock.Anything, ListCriteria{AccountID: &accountID, Limit: 1}).
		Return([]*Subscription{}, nil).Once()

	svc := NewService(storage, newNoopLogger())
	sub, err := svc.Current(context.Background(), accountID)

	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestService_ExpireOverdue(t *testing.T) {
	storage := new(MockStorage)
	storage.On("ExpireOverdueSubscriptions", mock.Anything).Return(int64(3), nil).Once()

	svc := NewService(storage, newNoopLogger())
	n, err := svc.ExpireOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
