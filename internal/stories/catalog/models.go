package catalog

import "time"

// Service is a merchant's signal offering; Tiers hold the prices.
type Service struct {
	ID          string
	MerchantID  string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Tier struct {
	ID           string
	ServiceID    string
	Name         string
	Price        float64
	Currency     string
	DurationDays int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ServiceGetCriteria struct {
	ID         *string
	MerchantID *string
}

type TierGetCriteria struct {
	ID        *string
	ServiceID *string
}

type TierListCriteria struct {
	ServiceID *string
	IsActive  *bool
	Limit     int
	Offset    int
}
