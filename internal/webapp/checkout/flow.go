// Package checkout drives a single purchase attempt: tier selection,
// invoice issuance and the native payment sheet, with the host main
// button as the confirm control.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"signalmarket/internal/lib/sl"
	"signalmarket/internal/stories/catalog"
	"signalmarket/internal/webapp/bridge"
)

const (
	buttonColorUser     = "#2481cc"
	buttonColorMerchant = "#8774e1"
)

type Flow struct {
	hw       HardwareBridge
	invoices InvoiceClient
	session  SessionReader
	l10n     Localizer
	logger   *slog.Logger

	merchantID string
	serviceID  string
	onPaid     func()
	onBack     func()

	mu          sync.Mutex
	status      Status
	tier        *catalog.Tier
	invoiceURL  string
	fallbackURL string
	lastErr     error
	closed      bool
	onChange    func(Attempt)
}

func NewFlow(
	hw HardwareBridge,
	invoices InvoiceClient,
	sess SessionReader,
	l10n Localizer,
	logger *slog.Logger,
	merchantID, serviceID string,
	onPaid func(),
	onBack func(),
) *Flow {
	f := &Flow{
		hw:         hw,
		invoices:   invoices,
		session:    sess,
		l10n:       l10n,
		logger:     logger,
		merchantID: merchantID,
		serviceID:  serviceID,
		onPaid:     onPaid,
		onBack:     onBack,
		status:     StatusIdle,
	}
	f.hw.SetBackButton(true, f.handleBack)
	f.applyMainButton()
	return f
}

func (f *Flow) OnChange(fn func(Attempt)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Attempt returns the current observable state.
func (f *Flow) Attempt() Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attemptLocked()
}

func (f *Flow) attemptLocked() Attempt {
	return Attempt{
		Status:      f.status,
		Tier:        f.tier,
		InvoiceURL:  f.invoiceURL,
		FallbackURL: f.fallbackURL,
		Err:         f.lastErr,
	}
}

// SelectTier picks or switches the tier. Ignored while an invoice is
// being issued or is on screen; selecting after a failure restarts the
// attempt from scratch.
func (f *Flow) SelectTier(tier catalog.Tier) {
	f.mu.Lock()
	if f.closed || f.status == StatusSubmitting || f.status == StatusInvoiceOpen || f.status == StatusPaid {
		f.mu.Unlock()
		return
	}
	f.tier = &tier
	f.status = StatusTierSelected
	f.invoiceURL = ""
	f.fallbackURL = ""
	f.lastErr = nil
	f.mu.Unlock()

	f.hw.Haptic(bridge.HapticImpact)
	f.applyMainButton()
	f.notify()
}

// Confirm runs the payment attempt for the selected tier. Re-entrant
// calls while one is in flight are no-ops, so a double tap can never
// issue two invoices.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.closed || f.tier == nil {
		f.mu.Unlock()
		return nil
	}
	if f.status != StatusTierSelected && f.status != StatusFailed {
		f.mu.Unlock()
		return nil
	}
	snap := f.session.Snapshot()
	tier := *f.tier
	f.status = StatusSubmitting
	f.lastErr = nil
	f.mu.Unlock()
	f.applyMainButton()
	f.notify()

	invoice, err := f.invoices.CreateInvoice(ctx, InvoiceRequest{
		MerchantID: f.merchantID,
		ServiceID:  f.serviceID,
		TierID:     tier.ID,
		AccountID:  snap.AccountID,
	})
	if err != nil {
		f.logger.Error("invoice request failed", sl.Err(err))
		return f.fail(errors.Wrap(ErrInvoiceRequestFailed, err.Error()), bridge.HapticError)
	}

	if !f.hw.SupportsInvoices() {
		// No native payment sheet on this host. The invoice URL is
		// surfaced as a visible action instead; payment confirmation
		// then comes only from re-fetching the subscription.
		f.mu.Lock()
		f.status = StatusInvoiceOpen
		f.invoiceURL = invoice.URL
		f.fallbackURL = invoice.URL
		f.mu.Unlock()
		f.applyMainButton()
		f.notify()
		return nil
	}

	f.mu.Lock()
	f.status = StatusInvoiceOpen
	f.invoiceURL = invoice.URL
	f.mu.Unlock()
	f.applyMainButton()
	f.notify()

	status, err := f.hw.OpenInvoice(ctx, invoice.URL)
	if err != nil {
		return f.fail(errors.Wrap(ErrPaymentFailed, err.Error()), bridge.HapticError)
	}

	switch status {
	case bridge.InvoicePaid:
		f.mu.Lock()
		f.status = StatusPaid
		f.mu.Unlock()
		f.hw.Haptic(bridge.HapticSuccess)
		f.hw.SetMainButton(bridge.MainButtonConfig{Visible: false})
		f.notify()
		if f.onPaid != nil {
			f.onPaid()
		}
		return nil
	case bridge.InvoiceCancelled:
		return f.fail(ErrPaymentCancelled, bridge.HapticWarning)
	default:
		return f.fail(ErrPaymentFailed, bridge.HapticError)
	}
}

// fail records the error, fires the haptic once and re-enables the
// confirm control.
func (f *Flow) fail(err error, haptic bridge.HapticKind) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return err
	}
	f.status = StatusFailed
	f.invoiceURL = ""
	f.lastErr = err
	f.mu.Unlock()

	f.hw.Haptic(haptic)
	f.applyMainButton()
	f.notify()
	return err
}

// Close tears the flow down on unmount: chrome hidden, handlers
// deregistered, all further events ignored.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.onChange = nil
	f.mu.Unlock()

	f.hw.SetMainButton(bridge.MainButtonConfig{Visible: false})
	f.hw.SetBackButton(false, nil)
}

func (f *Flow) handleBack() {
	if f.onBack != nil {
		f.onBack()
	}
}

// mainButtonConfig derives the button purely from the current attempt
// and auth view. It is recomputed and pushed whole on every transition.
func (f *Flow) mainButtonConfig() bridge.MainButtonConfig {
	f.mu.Lock()
	status := f.status
	tier := f.tier
	fallback := f.fallbackURL
	f.mu.Unlock()

	snap := f.session.Snapshot()
	lang := ""
	if snap.Identity != nil {
		lang = snap.Identity.LanguageCode
	}
	color := buttonColorUser
	if snap.Role.IsMerchant() || snap.Role.IsStaff() {
		color = buttonColorMerchant
	}

	switch {
	case tier == nil:
		return bridge.MainButtonConfig{
			Text:    f.l10n.Get(lang, "checkout.main_button.select_tier", nil),
			Color:   color,
			Visible: true,
			Enabled: false,
		}
	case status == StatusSubmitting:
		return bridge.MainButtonConfig{
			Text:         f.l10n.Get(lang, "checkout.main_button.submitting", nil),
			Color:        color,
			Visible:      true,
			Enabled:      false,
			ShowProgress: true,
		}
	case status == StatusInvoiceOpen && fallback != "":
		return bridge.MainButtonConfig{
			Text:    f.l10n.Get(lang, "checkout.fallback_action", nil),
			Color:   color,
			Visible: true,
			Enabled: false,
		}
	case status == StatusInvoiceOpen || status == StatusPaid:
		return bridge.MainButtonConfig{Visible: false}
	default:
		return bridge.MainButtonConfig{
			Text: f.l10n.Get(lang, "checkout.main_button.activate", map[string]interface{}{
				"tier":     strings.ToUpper(tier.Name),
				"currency": tier.Currency,
				"price":    fmt.Sprintf("%.2f", tier.Price),
			}),
			Color:   color,
			Visible: true,
			Enabled: true,
			OnClick: f.handleConfirmClick,
		}
	}
}

func (f *Flow) handleConfirmClick() {
	go func() {
		_ = f.Confirm(context.Background())
	}()
}

func (f *Flow) applyMainButton() {
	f.hw.SetMainButton(f.mainButtonConfig())
}

func (f *Flow) notify() {
	f.mu.Lock()
	fn := f.onChange
	attempt := f.attemptLocked()
	f.mu.Unlock()

	if fn != nil {
		fn(attempt)
	}
}
