// Package apiclient is the Mini-App's HTTP client for the marketplace
// API. It implements the resolver and invoice interfaces the session and
// checkout orchestrators consume.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"

	"signalmarket/internal/stories/accounts"
	"signalmarket/internal/webapp/checkout"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type syncRequest struct {
	TelegramID string `json:"telegramId"`
}

type resolutionData struct {
	AccountID  string  `json:"accountId"`
	MerchantID *string `json:"merchantId,omitempty"`
	Role       string  `json:"role"`
}

// Resolve maps a Telegram id to an account via POST /api/auth/sync.
func (c *Client) Resolve(ctx context.Context, rawTelegramID string) (*accounts.Resolution, error) {
	var data resolutionData
	err := c.post(ctx, "/api/auth/sync", syncRequest{TelegramID: rawTelegramID}, &data)
	if err != nil {
		return nil, err
	}

	return &accounts.Resolution{
		AccountID:  data.AccountID,
		MerchantID: data.MerchantID,
		Role:       accounts.Role(data.Role),
	}, nil
}

type checkoutRequest struct {
	MerchantID string `json:"merchantId"`
	ServiceID  string `json:"serviceId"`
	TierID     string `json:"tierId"`
	AccountID  string `json:"accountId,omitempty"`
}

type invoiceData struct {
	CheckoutID string `json:"checkoutId"`
	InvoiceURL string `json:"invoiceUrl"`
}

// CreateInvoice obtains an invoice via POST /api/payments/checkout.
func (c *Client) CreateInvoice(ctx context.Context, req checkout.InvoiceRequest) (*checkout.Invoice, error) {
	var data invoiceData
	err := c.post(ctx, "/api/payments/checkout", checkoutRequest{
		MerchantID: req.MerchantID,
		ServiceID:  req.ServiceID,
		TierID:     req.TierID,
		AccountID:  req.AccountID,
	}, &data)
	if err != nil {
		return nil, err
	}

	return &checkout.Invoice{
		CheckoutID: data.CheckoutID,
		URL:        data.InvoiceURL,
	}, nil
}

// SubscriptionState is the re-fetched view the app treats as the only
// source of payment truth.
type SubscriptionState struct {
	ID         string     `json:"id"`
	TierID     string     `json:"tierId"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	InviteLink string     `json:"inviteLink,omitempty"`
}

// CurrentSubscription fetches the account's subscription state. A nil
// result means no subscription exists yet.
func (c *Client) CurrentSubscription(ctx context.Context, accountID string) (*SubscriptionState, error) {
	endpoint := "/api/subscriptions/current?accountId=" + url.QueryEscape(accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	var data SubscriptionState
	found, err := c.do(req, &data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &data, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req, out)
	return err
}

// do executes the request and unpacks the envelope. It reports
// found=false for an empty-data OK response.
func (c *Client) do(req *http.Request, out any) (found bool, err error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, errors.Wrap(err, "read response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, errors.Wrapf(err, "decode response, http status %d", resp.StatusCode)
	}

	if env.Status != "OK" {
		c.logger.Warn("api call failed",
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("error", env.Error))
		return false, fmt.Errorf("api error: %s", env.Error)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, errors.Wrap(err, "decode data")
	}
	return true, nil
}
