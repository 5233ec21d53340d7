// Package subscurrent serves the account's subscription state. The
// Mini-App re-fetches this after every payment attempt instead of
// trusting the payment sheet's verdict.
package subscurrent

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"signalmarket/internal/http/response"
	"signalmarket/internal/lib/sl"
	"signalmarket/internal/stories/subs"
)

type SubscriptionResponse struct {
	ID         string     `json:"id"`
	TierID     string     `json:"tierId"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	InviteLink string     `json:"inviteLink,omitempty"`
}

// Service reads subscription state.
type Service interface {
	Current(ctx context.Context, accountID string) (*subs.Subscription, error)
}

type Handler struct {
	log  *slog.Logger
	subs Service
}

func New(log *slog.Logger, subsService Service) *Handler {
	return &Handler{log: log, subs: subsService}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.current"
	log := h.log.With(slog.String("op", op))

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("accountId is required"))
		return
	}

	subscription, err := h.subs.Current(r.Context(), accountID)
	if err != nil {
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	if subscription == nil {
		render.JSON(w, r, response.OK())
		return
	}

	resp := SubscriptionResponse{
		ID:        subscription.ID,
		TierID:    subscription.TierID,
		Status:    string(subscription.Status),
		ExpiresAt: subscription.ExpiresAt,
	}
	if subscription.InviteLink != nil {
		resp.InviteLink = *subscription.InviteLink
	}
	render.JSON(w, r, response.OKWithData(resp))
}
