package checkout

import (
	"context"

	"signalmarket/internal/webapp/bridge"
	"signalmarket/internal/webapp/session"
)

// InvoiceClient obtains invoices from the payments API.
type InvoiceClient interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// HardwareBridge is the slice of the host adapter the flow drives.
type HardwareBridge interface {
	SupportsInvoices() bool
	SetMainButton(cfg bridge.MainButtonConfig)
	SetBackButton(visible bool, onClick func())
	Haptic(kind bridge.HapticKind)
	OpenInvoice(ctx context.Context, url string) (bridge.InvoiceStatus, error)
}

// SessionReader exposes the current auth view to the flow.
type SessionReader interface {
	Snapshot() session.Snapshot
}

// Localizer renders user-facing strings for the flow's chrome.
type Localizer interface {
	Get(lang, key string, params map[string]interface{}) string
}
