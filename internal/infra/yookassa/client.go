// Package yookassa wraps the YooKassa SDK. It is the invoice fallback for
// sessions running outside a Telegram host, where the native payment
// sheet is unavailable and the user follows a redirect URL instead.
package yookassa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rvinnie/yookassa-sdk-go/yookassa"
	yoocommon "github.com/rvinnie/yookassa-sdk-go/yookassa/common"
	yoopayment "github.com/rvinnie/yookassa-sdk-go/yookassa/payment"
)

// Client wraps the YooKassa SDK client
type Client struct {
	client    *yookassa.Client
	logger    *slog.Logger
	returnURL string
	currency  string
}

// NewClient creates a new YooKassa client wrapper
func NewClient(shopID, secretKey, returnURL string, logger *slog.Logger) (*Client, error) {
	return &Client{
		client:    yookassa.NewClient(shopID, secretKey),
		logger:    logger,
		returnURL: returnURL,
		currency:  "RUB",
	}, nil
}

// CreatePayment creates a redirect-confirmed payment. Each call carries a
// fresh idempotence key; retries of a failed request are the caller's
// decision, never automatic.
func (c *Client) CreatePayment(ctx context.Context, amount float64, description string, metadata map[string]string) (*yoopayment.Payment, error) {
	idempotenceKey := uuid.New().String()

	payment := &yoopayment.Payment{
		Amount: &yoocommon.Amount{
			Value:    fmt.Sprintf("%.2f", amount),
			Currency: c.currency,
		},
		Confirmation: &yoopayment.Redirect{
			Type:      yoopayment.TypeRedirect,
			ReturnURL: c.returnURL,
		},
		Description: description,
		Metadata:    metadata,
		Capture:     true,
	}

	handler := yookassa.NewPaymentHandler(c.client).WithIdempotencyKey(idempotenceKey)
	result, err := handler.CreatePayment(payment)
	if err != nil {
		c.logger.Error("yookassa payment creation failed", "error", err, "amount", amount)
		return nil, fmt.Errorf("create payment: %w", err)
	}

	c.logger.Info("yookassa payment created",
		"payment_id", result.ID,
		"status", result.Status,
	)
	return result, nil
}

// GetPaymentStatus fetches the current provider-side payment state.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*yoopayment.Payment, error) {
	handler := yookassa.NewPaymentHandler(c.client)
	result, err := handler.FindPayment(paymentID)
	if err != nil {
		return nil, fmt.Errorf("find payment %s: %w", paymentID, err)
	}
	return result, nil
}
