package paymentwatch

import "context"

// Billing reconciles pending checkouts against the payment provider.
type Billing interface {
	CheckPending(ctx context.Context) error
}
