// Package checkoutcreate handles invoice issuance for the Mini-App
// checkout screen.
package checkoutcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/pkg/errors"

	"signalmarket/internal/http/response"
	"signalmarket/internal/lib/sl"
	"signalmarket/internal/stories/billing"
)

type CheckoutRequest struct {
	MerchantID string `json:"merchantId" validate:"required"`
	ServiceID  string `json:"serviceId" validate:"required"`
	TierID     string `json:"tierId" validate:"required"`
	AccountID  string `json:"accountId"`
}

type InvoiceResponse struct {
	CheckoutID string `json:"checkoutId"`
	InvoiceURL string `json:"invoiceUrl"`
}

// Service issues invoices against the merchant's catalog.
type Service interface {
	CreateInvoice(ctx context.Context, req billing.CreateInvoiceRequest) (*billing.Invoice, error)
}

type Handler struct {
	log      *slog.Logger
	billing  Service
	validate *validator.Validate
}

func New(log *slog.Logger, billingService Service) *Handler {
	return &Handler{
		log:      log,
		billing:  billingService,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkoutcreate"
	log := h.log.With(slog.String("op", op))

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	createReq := billing.CreateInvoiceRequest{
		MerchantID: req.MerchantID,
		ServiceID:  req.ServiceID,
		TierID:     req.TierID,
	}
	if req.AccountID != "" {
		createReq.AccountID = &req.AccountID
	}

	invoice, err := h.billing.CreateInvoice(r.Context(), createReq)
	if err != nil {
		if errors.Is(err, billing.ErrTierUnavailable) {
			log.Warn("rejected checkout for unavailable tier",
				slog.String("merchant_id", req.MerchantID),
				slog.String("tier_id", req.TierID))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("tier is not available"))
			return
		}
		log.Error("failed to create invoice", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("invoice issued", slog.String("checkout_id", invoice.CheckoutID))
	render.JSON(w, r, response.OKWithData(InvoiceResponse{
		CheckoutID: invoice.CheckoutID,
		InvoiceURL: invoice.URL,
	}))
}
