package bridge

// BrowserHost is the degraded host used when the app runs outside
// Telegram. Readiness resolves immediately without an identity, chrome
// calls are no-ops and invoices are unsupported.
type BrowserHost struct{}

func NewBrowserHost() *BrowserHost {
	return &BrowserHost{}
}

func (h *BrowserHost) Ready(onReady func(initData string)) {
	onReady("")
}

func (h *BrowserHost) SupportsInvoices() bool { return false }

func (h *BrowserHost) SetMainButton(_ MainButtonParams) {}

func (h *BrowserHost) OnMainButtonClick(_ func()) (off func()) {
	return func() {}
}

func (h *BrowserHost) SetBackButton(_ bool) {}

func (h *BrowserHost) OnBackButtonClick(_ func()) (off func()) {
	return func() {}
}

func (h *BrowserHost) HapticImpact(_ string)       {}
func (h *BrowserHost) HapticNotification(_ string) {}

func (h *BrowserHost) OpenInvoice(_ string, callback func(status string)) {
	callback(string(InvoiceFailed))
}
