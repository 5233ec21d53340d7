package billing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	yoopayment "github.com/rvinnie/yookassa-sdk-go/yookassa/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"signalmarket/internal/stories/subs"
)

// ErrTierUnavailable is returned when the requested merchant/service/tier
// chain does not resolve to a purchasable tier.
var ErrTierUnavailable = errors.New("tier unavailable")

// Service issues invoices for tier selections and reconciles their
// payment outcomes into subscriptions.
type Service struct {
	storage     Storage
	linker      InvoiceLinker
	yookassa    YooKassaClient
	catalog     Catalog
	activator   Activator
	logger      *slog.Logger
	mockPayment bool
	tracer      trace.Tracer
	issued      metric.Int64Counter
}

// NewService creates a new billing service
func NewService(
	storage Storage,
	linker InvoiceLinker,
	yookassa YooKassaClient,
	catalog Catalog,
	activator Activator,
	mockPayment bool,
	logger *slog.Logger,
) *Service {
	meter := otel.Meter("signalmarket/billing")
	issued, _ := meter.Int64Counter("invoices_issued_total",
		metric.WithDescription("invoices issued for tier selections"))

	return &Service{
		storage:     storage,
		linker:      linker,
		yookassa:    yookassa,
		catalog:     catalog,
		activator:   activator,
		logger:      logger,
		mockPayment: mockPayment,
		tracer:      otel.Tracer("signalmarket/billing"),
		issued:      issued,
	}
}

// CreateInvoice validates the tier selection, persists a pending checkout
// and issues an invoice URL for it. Exactly one invoice is issued per
// checkout row; duplicate confirmations are the client's responsibility
// to suppress, and each call here creates a fresh attempt.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "billing.CreateInvoice")
	defer span.End()

	tier, err := s.catalog.TierForCheckout(ctx, req.MerchantID, req.ServiceID, req.TierID)
	if err != nil {
		return nil, errors.Wrap(ErrTierUnavailable, err.Error())
	}

	checkout, err := s.storage.CreateCheckout(ctx, Checkout{
		ID:         uuid.NewString(),
		MerchantID: req.MerchantID,
		ServiceID:  req.ServiceID,
		TierID:     req.TierID,
		AccountID:  req.AccountID,
		Status:     StatusPending,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout")
	}

	invoiceURL, provider, providerID, err := s.issueInvoice(ctx, checkout, tier.Name, tier.Price, tier.Currency)
	if err != nil {
		s.logger.Error("invoice issuance failed",
			"error", err,
			"checkout_id", checkout.ID,
			"tier_id", tier.ID,
		)
		_, _ = s.storage.UpdateCheckout(ctx, GetCriteria{ID: &checkout.ID}, UpdateParams{
			Status: lo.ToPtr(StatusFailed),
		})
		return nil, errors.Wrap(err, "issue invoice")
	}

	params := UpdateParams{
		Provider:   &provider,
		InvoiceURL: &invoiceURL,
	}
	if providerID != "" {
		params.ProviderPaymentID = &providerID
	}
	if _, err := s.storage.UpdateCheckout(ctx, GetCriteria{ID: &checkout.ID}, params); err != nil {
		return nil, errors.Wrap(err, "update checkout with invoice")
	}

	s.issued.Add(ctx, 1)
	s.logger.Info("invoice issued",
		"checkout_id", checkout.ID,
		"provider", provider,
		"tier_id", tier.ID,
	)

	return &Invoice{CheckoutID: checkout.ID, URL: invoiceURL}, nil
}

func (s *Service) issueInvoice(ctx context.Context, checkout *Checkout, tierName string, price float64, currency string) (url string, provider Provider, providerID string, err error) {
	if s.mockPayment {
		return "https://payment.invalid/mock/" + checkout.ID, ProviderMock, "", nil
	}

	if s.linker != nil {
		link, err := s.linker.CreateInvoiceLink(ctx, InvoiceLinkParams{
			Title:       tierName,
			Description: fmt.Sprintf("Signal subscription: %s", tierName),
			Payload:     checkout.ID,
			Currency:    currency,
			Amount:      int64(math.Round(price * 100)),
		})
		if err != nil {
			return "", "", "", errors.Wrap(err, "telegram invoice link")
		}
		return link, ProviderTelegram, "", nil
	}

	if s.yookassa == nil {
		return "", "", "", errors.New("no invoice provider configured")
	}

	payment, err := s.yookassa.CreatePayment(ctx, price,
		fmt.Sprintf("Signal subscription: %s", tierName),
		map[string]string{"checkout_id": checkout.ID},
	)
	if err != nil {
		return "", "", "", errors.Wrap(err, "yookassa payment")
	}

	confirmationURL := extractConfirmationURL(payment)
	if confirmationURL == "" {
		return "", "", "", errors.New("no confirmation url in provider response")
	}
	return confirmationURL, ProviderYooKassa, payment.ID, nil
}

// ConfirmCheckout marks a checkout paid and activates the subscription.
// Safe to call more than once for the same checkout.
func (s *Service) ConfirmCheckout(ctx context.Context, checkoutID string) error {
	ctx, span := s.tracer.Start(ctx, "billing.ConfirmCheckout")
	defer span.End()

	checkout, err := s.storage.GetCheckout(ctx, GetCriteria{ID: &checkoutID})
	if err != nil {
		return errors.Wrap(err, "get checkout")
	}
	if checkout == nil {
		return errors.Errorf("checkout not found: %s", checkoutID)
	}

	if checkout.Status != StatusApproved {
		now := time.Now().UTC()
		checkout, err = s.storage.UpdateCheckout(ctx, GetCriteria{ID: &checkoutID}, UpdateParams{
			Status:      lo.ToPtr(StatusApproved),
			ProcessedAt: &now,
		})
		if err != nil {
			return errors.Wrap(err, "mark checkout approved")
		}
	}

	if checkout.AccountID == nil {
		// No buyer to attach a subscription to; left for manual reconciliation.
		s.logger.Warn("paid checkout has no account, skipping activation",
			"checkout_id", checkoutID)
		return nil
	}

	tier, err := s.catalog.TierForCheckout(ctx, checkout.MerchantID, checkout.ServiceID, checkout.TierID)
	if err != nil {
		return errors.Wrap(err, "load tier for activation")
	}

	_, err = s.activator.Activate(ctx, subs.ActivateParams{
		AccountID:    *checkout.AccountID,
		MerchantID:   checkout.MerchantID,
		ServiceID:    checkout.ServiceID,
		TierID:       checkout.TierID,
		CheckoutID:   checkout.ID,
		DurationDays: tier.DurationDays,
	})
	if err != nil {
		return errors.Wrap(err, "activate subscription")
	}
	return nil
}

// CheckPending polls the fallback provider for pending checkouts and
// reconciles their statuses. Telegram-issued invoices are confirmed by
// the payment callback path instead, so only YooKassa rows are polled.
func (s *Service) CheckPending(ctx context.Context) error {
	pending, err := s.storage.ListCheckouts(ctx, ListCriteria{
		Status:   lo.ToPtr(StatusPending),
		Provider: lo.ToPtr(ProviderYooKassa),
		Limit:    50,
	})
	if err != nil {
		return errors.Wrap(err, "list pending checkouts")
	}

	for _, checkout := range pending {
		if checkout.ProviderPaymentID == nil {
			continue
		}
		payment, err := s.yookassa.GetPaymentStatus(ctx, *checkout.ProviderPaymentID)
		if err != nil {
			s.logger.Error("payment status check failed",
				"error", err,
				"checkout_id", checkout.ID,
			)
			continue
		}

		switch payment.Status {
		case yoopayment.Succeeded:
			if err := s.ConfirmCheckout(ctx, checkout.ID); err != nil {
				s.logger.Error("checkout confirmation failed",
					"error", err,
					"checkout_id", checkout.ID,
				)
			}
		case yoopayment.Canceled:
			_, err := s.storage.UpdateCheckout(ctx, GetCriteria{ID: &checkout.ID}, UpdateParams{
				Status: lo.ToPtr(StatusCancelled),
			})
			if err != nil {
				s.logger.Error("checkout cancellation failed",
					"error", err,
					"checkout_id", checkout.ID,
				)
			}
		}
	}
	return nil
}

func extractConfirmationURL(payment *yoopayment.Payment) string {
	if payment.Confirmation == nil {
		return ""
	}
	if redirect, ok := payment.Confirmation.(*yoopayment.Redirect); ok {
		return redirect.ConfirmationURL
	}
	// the SDK sometimes returns confirmation as a bare map
	if confMap, ok := payment.Confirmation.(map[string]interface{}); ok {
		if url, exists := confMap["confirmation_url"].(string); exists {
			return url
		}
	}
	return ""
}
