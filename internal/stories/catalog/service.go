package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrTierNotFound    = errors.New("tier not found")
)

// Svc provides read models for merchant services and their tiers.
type Svc struct {
	storage Storage
}

func NewService(storage Storage) *Svc {
	return &Svc{storage: storage}
}

// ActiveTiers lists the purchasable tiers of a service.
func (s *Svc) ActiveTiers(ctx context.Context, serviceID string) ([]*Tier, error) {
	return s.storage.ListTiers(ctx, TierListCriteria{
		ServiceID: &serviceID,
		IsActive:  lo.ToPtr(true),
		Limit:     100,
	})
}

// TierForCheckout loads a tier and verifies the merchant/service/tier
// chain the checkout request claims. Any mismatch means the invoice must
// not be issued.
func (s *Svc) TierForCheckout(ctx context.Context, merchantID, serviceID, tierID string) (*Tier, error) {
	service, err := s.storage.GetService(ctx, ServiceGetCriteria{ID: &serviceID})
	if err != nil {
		return nil, errors.Wrap(err, "get service")
	}
	if service == nil || service.MerchantID != merchantID || !service.IsActive {
		return nil, ErrServiceNotFound
	}

	tier, err := s.storage.GetTier(ctx, TierGetCriteria{ID: &tierID})
	if err != nil {
		return nil, errors.Wrap(err, "get tier")
	}
	if tier == nil || tier.ServiceID != serviceID || !tier.IsActive {
		return nil, ErrTierNotFound
	}

	return tier, nil
}
