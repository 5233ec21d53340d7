package billing

import (
	"context"

	yoopayment "github.com/rvinnie/yookassa-sdk-go/yookassa/payment"

	"signalmarket/internal/stories/catalog"
	"signalmarket/internal/stories/subs"
)

type (
	// Storage provides database operations for checkouts
	Storage interface {
		CreateCheckout(ctx context.Context, checkout Checkout) (*Checkout, error)
		GetCheckout(ctx context.Context, criteria GetCriteria) (*Checkout, error)
		UpdateCheckout(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Checkout, error)
		ListCheckouts(ctx context.Context, criteria ListCriteria) ([]*Checkout, error)
	}

	// InvoiceLinker issues native Telegram invoice links. Nil when the bot
	// has no payment provider token.
	InvoiceLinker interface {
		CreateInvoiceLink(ctx context.Context, params InvoiceLinkParams) (string, error)
	}

	// YooKassaClient provides the redirect-URL fallback for hosts without
	// native invoice capability.
	YooKassaClient interface {
		CreatePayment(ctx context.Context, amount float64, description string, metadata map[string]string) (*yoopayment.Payment, error)
		GetPaymentStatus(ctx context.Context, paymentID string) (*yoopayment.Payment, error)
	}

	// Catalog validates the merchant/service/tier chain of a checkout.
	Catalog interface {
		TierForCheckout(ctx context.Context, merchantID, serviceID, tierID string) (*catalog.Tier, error)
	}

	// Activator mints the subscription once a checkout is confirmed paid.
	Activator interface {
		Activate(ctx context.Context, params subs.ActivateParams) (*subs.Subscription, error)
	}
)

// InvoiceLinkParams mirrors createInvoiceLink of the Bot API.
type InvoiceLinkParams struct {
	Title       string
	Description string
	Payload     string
	Currency    string
	// Amount in the smallest units of the currency.
	Amount int64
}
