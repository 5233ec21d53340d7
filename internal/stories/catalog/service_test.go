package catalog

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetService(ctx context.Context, criteria ServiceGetCriteria) (*Service, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Service), args.Error(1)
}

func (m *MockStorage) GetTier(ctx context.Context, criteria TierGetCriteria) (*Tier, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tier), args.Error(1)
}

func (m *MockStorage) ListTiers(ctx context.Context, criteria TierListCriteria) ([]*Tier, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Tier), args.Error(1)
}

func activeService() *Service {
	return &Service{ID: "svc-1", MerchantID: "m-1", Name: "Alpha Signals", IsActive: true}
}

func activeTier() *Tier {
	return &Tier{ID: "tier-pro", ServiceID: "svc-1", Name: "Professional", Price: 149, Currency: "USD", DurationDays: 30, IsActive: true}
}

func TestTierForCheckout(t *testing.T) {
	cases := []struct {
		name       string
		merchantID string
		serviceID  string
		tierID     string
		service    *Service
		tier       *Tier
		wantErr    error
	}{
		{
			name:       "valid chain",
			merchantID: "m-1",
			serviceID:  "svc-1",
			tierID:     "tier-pro",
			service:    activeService(),
			tier:       activeTier(),
		},
		{
			name:       "service of another merchant",
			merchantID: "m-2",
			serviceID:  "svc-1",
			tierID:     "tier-pro",
			service:    activeService(),
			wantErr:    ErrServiceNotFound,
		},
		{
			name:       "inactive service",
			merchantID: "m-1",
			serviceID:  "svc-1",
			tierID:     "tier-pro",
			service: func() *Service {
				s := activeService()
				s.IsActive = false
				return s
			}(),
			wantErr: ErrServiceNotFound,
		},
		{
			name:       "unknown service",
			merchantID: "m-1",
			serviceID:  "svc-missing",
			tierID:     "tier-pro",
			wantErr:    ErrServiceNotFound,
		},
		{
			name:       "tier under another service",
			merchantID: "m-1",
			serviceID:  "svc-1",
			tierID:     "tier-foreign",
			service:    activeService(),
			tier: func() *Tier {
				tr := activeTier()
				tr.ID = "tier-foreign"
				tr.ServiceID = "svc-2"
				return tr
			}(),
			wantErr: ErrTierNotFound,
		},
		{
			name:       "inactive tier",
			merchantID: "m-1",
			serviceID:  "svc-1",
			tierID:     "tier-pro",
			service:    activeService(),
			tier: func() *Tier {
				tr := activeTier()
				tr.IsActive = false
				return tr
			}(),
			wantErr: ErrTierNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			storage := new(MockStorage)
			storage.On("GetService", mock.Anything, ServiceGetCriteria{ID: &tc.serviceID}).
				Return(tc.service, nil).Once()
			if tc.service != nil && tc.service.MerchantID == tc.merchantID && tc.service.IsActive {
				storage.On("GetTier", mock.Anything, TierGetCriteria{ID: &tc.tierID}).
					Return(tc.tier, nil).Once()
			}
			svc := NewService(storage)

			tier, err := svc.TierForCheckout(context.Background(), tc.merchantID, tc.serviceID, tc.tierID)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, tier)
			} else {
				require.NoError(t, err)
				require.NotNil(t, tier)
				assert.Equal(t, tc.tierID, tier.ID)
			}
			storage.AssertExpectations(t)
			if tc.wantErr == ErrServiceNotFound {
				// A broken merchant/service link must short-circuit before
				// the tier is ever looked up.
				storage.AssertNotCalled(t, "GetTier", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestActiveTiers(t *testing.T) {
	storage := new(MockStorage)
	serviceID := "svc-1"
	storage.On("ListTiers", mock.Anything, TierListCriteria{
		ServiceID: &serviceID,
		IsActive:  lo.ToPtr(true),
		Limit:     100,
	}).Return([]*Tier{activeTier()}, nil).Once()
	svc := NewService(storage)

	tiers, err := svc.ActiveTiers(context.Background(), serviceID)

	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "tier-pro", tiers[0].ID)
	storage.AssertExpectations(t)
}
