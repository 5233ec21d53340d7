// Package authsync handles identity synchronization from the Mini-App.
package authsync

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
	"signalmarket/internal/stories/accounts"
)

type SyncRequest struct {
	TelegramID string `json:"telegramId" validate:"required"`
}

type ResolutionResponse struct {
	AccountID  string  `json:"accountId"`
	MerchantID *string `json:"merchantId,omitempty"`
	Role       string  `json:"role"`
}

// Resolver maps a raw Telegram id onto an account.
type Resolver interface {
	Resolve(ctx context.Context, rawTelegramID string) (*accounts.Resolution, error)
}

type Handler struct {
	log      *slog.Logger
	accounts Resolver
	validate *validator.Validate
}

func New(log *slog.Logger, resolver Resolver) *Handler {
	return &Handler{
		log:      log,
		accounts: resolver,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.sync"
	log := h.log.With(slog.String("op", op))

	var req SyncRequest
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

	resolution, err := h.accounts.Resolve(r.Context(), req.TelegramID)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidIdentity) {
			log.Warn("rejected malformed identity", slog.String("telegram_id", req.TelegramID))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid telegram id"))
			return
		}
		log.Error("failed to resolve identity", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("identity resolved",
		slog.String("account_id", resolution.AccountID),
		slog.String("role", string(resolution.Role)))
	render.JSON(w, r, response.OKWithData(ResolutionResponse{
		AccountID:  resolution.AccountID,
		MerchantID: resolution.MerchantID,
		Role:       string(resolution.Role),
	}))
}
