// Package telegram wraps the Bot API client used to mint native invoice
// links for the Mini-App payment sheet.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"signalmarket/internal/stories/billing"
)

type Client struct {
	api           *tgbotapi.BotAPI
	logger        *slog.Logger
	limiter       *rate.Limiter
	providerToken string
}

func NewClient(botToken, providerToken string, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	// Bot API allows ~30 requests per second
	limiter := rate.NewLimiter(30, 1)

	return &Client{
		api:           bot,
		logger:        logger,
		limiter:       limiter,
		providerToken: providerToken,
	}, nil
}

// SupportsInvoices reports whether the bot can mint native invoice links.
func (c *Client) SupportsInvoices() bool {
	return c.providerToken != ""
}

// CreateInvoiceLink calls the createInvoiceLink Bot API method. The
// library predates the method, so the request goes through MakeRequest.
func (c *Client) CreateInvoiceLink(ctx context.Context, p billing.InvoiceLinkParams) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiting: %w", err)
	}

	prices, err := json.Marshal([]tgbotapi.LabeledPrice{
		{Label: p.Title, Amount: int(p.Amount)},
	})
	if err != nil {
		return "", fmt.Errorf("marshal prices: %w", err)
	}

	params := tgbotapi.Params{
		"title":          p.Title,
		"description":    p.Description,
		"payload":        p.Payload,
		"provider_token": c.providerToken,
		"currency":       p.Currency,
		"prices":         string(prices),
	}

	resp, err := c.api.MakeRequest("createInvoiceLink", params)
	if err != nil {
		c.logger.Error("createInvoiceLink failed",
			slog.String("payload", p.Payload),
			slog.Any("error", err))
		return "", fmt.Errorf("createInvoiceLink: %w", err)
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invoice link: %w", err)
	}

	c.logger.Info("invoice link created", slog.String("payload", p.Payload))
	return link, nil
}

// GetBotAPI returns the underlying BotAPI object
func (c *Client) GetBotAPI() *tgbotapi.BotAPI {
	return c.api
}
