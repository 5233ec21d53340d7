package checkout

import (
	"github.com/go-faster/errors"

	"signalmarket/internal/stories/catalog"
)

type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusTierSelected Status = "TIER_SELECTED"
	StatusSubmitting   Status = "SUBMITTING"
	StatusInvoiceOpen  Status = "INVOICE_OPEN"
	StatusPaid         Status = "PAID"
	StatusFailed       Status = "FAILED"
)

var (
	ErrInvoiceRequestFailed = errors.New("invoice request failed")
	ErrPaymentCancelled     = errors.New("payment cancelled by user")
	ErrPaymentFailed        = errors.New("payment failed")
)

// InvoiceRequest is what the flow sends upstream to obtain an invoice.
type InvoiceRequest struct {
	MerchantID string
	ServiceID  string
	TierID     string
	AccountID  string
}

type Invoice struct {
	CheckoutID string
	URL        string
}

// Attempt is the observable checkout state screens render from.
type Attempt struct {
	Status      Status
	Tier        *catalog.Tier
	InvoiceURL  string
	FallbackURL string
	Err         error
}
