package catalog

import "context"

// Storage provides database operations for services and tiers
type Storage interface {
	GetService(ctx context.Context, criteria ServiceGetCriteria) (*Service, error)
	GetTier(ctx context.Context, criteria TierGetCriteria) (*Tier, error)
	ListTiers(ctx context.Context, criteria TierListCriteria) ([]*Tier, error)
}
