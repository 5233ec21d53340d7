// Package bridge adapts the host Telegram client's WebApp surface. The
// host SDK is callback-style and global per window; the adapter turns it
// into an injected capability object with single-resolution waits, so
// orchestrators can be written as awaited sequences and tested against a
// fake host.
package bridge

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// InvoiceStatus is the host's verdict on an opened payment sheet.
type InvoiceStatus string

const (
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
	InvoiceFailed    InvoiceStatus = "failed"
)

type HapticKind string

const (
	HapticSuccess HapticKind = "success"
	HapticWarning HapticKind = "warning"
	HapticError   HapticKind = "error"
	HapticImpact  HapticKind = "impact"
)

// ErrInvoiceUnsupported is returned when OpenInvoice is called outside a
// Telegram host. Orchestrators must gate on SupportsInvoices instead of
// reaching this.
var ErrInvoiceUnsupported = errors.New("host has no invoice capability")

// MainButtonConfig fully describes the desired button state. Callers
// re-specify everything on every call; nothing carries over.
type MainButtonConfig struct {
	Text         string
	Color        string
	Visible      bool
	Enabled      bool
	ShowProgress bool
	OnClick      func()
}

// MainButtonParams is the raw shape handed to the host.
type MainButtonParams struct {
	Text         string
	Color        string
	IsVisible    bool
	IsActive     bool
	ShowProgress bool
}

// Host mirrors the callback-style WebApp SDK. Implemented by the real
// runtime binding and by fakes in tests.
type Host interface {
	// Ready registers the readiness callback. The host calls it exactly
	// once, with the signed initData blob or "" when there is no
	// Telegram identity.
	Ready(onReady func(initData string))
	SupportsInvoices() bool
	SetMainButton(params MainButtonParams)
	OnMainButtonClick(handler func()) (off func())
	SetBackButton(visible bool)
	OnBackButtonClick(handler func()) (off func())
	HapticImpact(style string)
	HapticNotification(kind string)
	OpenInvoice(url string, callback func(status string))
}

// Adapter is the capability object screens and orchestrators consume.
type Adapter struct {
	host Host

	mu      sync.Mutex
	offMain func()
	offBack func()
}

func New(host Host) *Adapter {
	return &Adapter{host: host}
}

// Ready waits for the host handshake. The wait is bounded by ctx: the
// session bridge passes its ready-timeout so a hung mobile SDK never
// blocks the app.
func (a *Adapter) Ready(ctx context.Context) (*Identity, error) {
	ch := make(chan string, 1)
	var once sync.Once
	a.host.Ready(func(initData string) {
		once.Do(func() { ch <- initData })
	})

	select {
	case raw := <-ch:
		if raw == "" {
			// Host confirmed readiness without a Telegram identity.
			return nil, nil
		}
		identity, err := ParseInitData(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse init data")
		}
		return identity, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) SupportsInvoices() bool {
	return a.host.SupportsInvoices()
}

// SetMainButton replaces the visible state and the click handler
// atomically. The previous handler is deregistered first so a stale
// closure can never fire after the UI has moved on.
func (a *Adapter) SetMainButton(cfg MainButtonConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offMain != nil {
		a.offMain()
		a.offMain = nil
	}

	a.host.SetMainButton(MainButtonParams{
		Text:         cfg.Text,
		Color:        cfg.Color,
		IsVisible:    cfg.Visible,
		IsActive:     cfg.Enabled,
		ShowProgress: cfg.ShowProgress,
	})

	if cfg.OnClick != nil && cfg.Visible {
		a.offMain = a.host.OnMainButtonClick(cfg.OnClick)
	}
}

// SetBackButton is the same upsert contract as SetMainButton.
func (a *Adapter) SetBackButton(visible bool, onClick func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offBack != nil {
		a.offBack()
		a.offBack = nil
	}

	a.host.SetBackButton(visible)

	if onClick != nil && visible {
		a.offBack = a.host.OnBackButtonClick(onClick)
	}
}

func (a *Adapter) Haptic(kind HapticKind) {
	switch kind {
	case HapticImpact:
		a.host.HapticImpact("medium")
	default:
		a.host.HapticNotification(string(kind))
	}
}

// OpenInvoice opens the native payment sheet and waits for the host's
// exactly-once callback.
func (a *Adapter) OpenInvoice(ctx context.Context, url string) (InvoiceStatus, error) {
	if !a.host.SupportsInvoices() {
		return "", ErrInvoiceUnsupported
	}

	ch := make(chan InvoiceStatus, 1)
	var once sync.Once
	a.host.OpenInvoice(url, func(status string) {
		once.Do(func() { ch <- InvoiceStatus(status) })
	})

	select {
	case status := <-ch:
		return status, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close deregisters both button handlers. Called on screen unmount.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offMain != nil {
		a.offMain()
		a.offMain = nil
	}
	if a.offBack != nil {
		a.offBack()
		a.offBack = nil
	}
}
