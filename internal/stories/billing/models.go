package billing

import "time"

// Status of a server-side checkout row. The client-side orchestrator has
// its own per-screen state machine; these are the durable states the
// payment watcher reconciles.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Provider identifies who issued the invoice URL.
type Provider string

const (
	ProviderTelegram Provider = "telegram"
	ProviderYooKassa Provider = "yookassa"
	ProviderMock     Provider = "mock"
)

type Checkout struct {
	ID                string
	MerchantID        string
	ServiceID         string
	TierID            string
	AccountID         *string
	Status            Status
	Provider          Provider
	ProviderPaymentID *string
	InvoiceURL        *string
	ProcessedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type GetCriteria struct {
	ID                *string
	ProviderPaymentID *string
}

type ListCriteria struct {
	Status   *Status
	Provider *Provider
	Limit    int
	Offset   int
}

type UpdateParams struct {
	Status            *Status
	Provider          *Provider
	ProviderPaymentID *string
	InvoiceURL        *string
	ProcessedAt       *time.Time
}

// CreateInvoiceRequest is the server-side counterpart of a confirmed tier
// selection.
type CreateInvoiceRequest struct {
	MerchantID string
	ServiceID  string
	TierID     string
	AccountID  *string
}

// Invoice is what the checkout endpoint returns to the Mini-App.
type Invoice struct {
	CheckoutID string
	URL        string
}
