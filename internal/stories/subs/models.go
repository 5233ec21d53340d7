package subs

import "time"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPending   Status = "PENDING"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

type Subscription struct {
	ID         string
	AccountID  string
	MerchantID string
	ServiceID  string
	TierID     string
	CheckoutID *string
	Status     Status
	ExpiresAt  *time.Time
	InviteLink *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type GetCriteria struct {
	ID         *string
	AccountID  *string
	CheckoutID *string
	Status     *Status
}

type ListCriteria struct {
	AccountID *string
	Status    *Status
	Limit     int
	Offset    int
}

type UpdateParams struct {
	Status     *Status
	ExpiresAt  *time.Time
	InviteLink *string
}

// ActivateParams describes the paid checkout a subscription is minted from.
type ActivateParams struct {
	AccountID    string
	MerchantID   string
	ServiceID    string
	TierID       string
	CheckoutID   string
	DurationDays int
}
