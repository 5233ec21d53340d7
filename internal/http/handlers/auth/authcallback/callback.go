// Package authcallback bridges the Mini-App session onto the dashboard
// domain: it mints the dashboard token and redirects the browser there.
package authcallback

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"signalmarket/internal/http/response"
	"signalmarket/internal/lib/jwt"
	"signalmarket/internal/lib/sl"
	"signalmarket/internal/stories/accounts"
)

// Resolver maps a raw Telegram id onto an account.
type Resolver interface {
	Resolve(ctx context.Context, rawTelegramID string) (*accounts.Resolution, error)
}

type Handler struct {
	log          *slog.Logger
	accounts     Resolver
	tokens       jwt.Maker
	dashboardURL string
	cookieName   string
	tokenTTL     time.Duration
}

func New(
	log *slog.Logger,
	resolver Resolver,
	tokens jwt.Maker,
	dashboardURL, cookieName string,
	tokenTTL time.Duration,
) *Handler {
	return &Handler{
		log:          log,
		accounts:     resolver,
		tokens:       tokens,
		dashboardURL: dashboardURL,
		cookieName:   cookieName,
		tokenTTL:     tokenTTL,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.callback"
	log := h.log.With(slog.String("op", op))

	merchantID := r.URL.Query().Get("merchantId")
	telegramID := r.URL.Query().Get("telegramId")
	if merchantID == "" || telegramID == "" {
		// The session bridge has not produced an identity yet. Blocking
		// here beats redirecting the user into a logged-out dashboard.
		log.Warn("redirect requested without identity")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("the system is still synchronizing, please wait"))
		return
	}

	resolution, err := h.accounts.Resolve(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidIdentity) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid telegram id"))
			return
		}
		log.Error("failed to resolve identity", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	if resolution.MerchantID == nil || *resolution.MerchantID != merchantID {
		log.Warn("account does not belong to the requested merchant",
			slog.String("account_id", resolution.AccountID),
			slog.String("merchant_id", merchantID),
		)
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("account is not linked to this merchant"))
		return
	}

	token, err := h.tokens.GenerateToken(resolution.AccountID, merchantID, telegramID, string(resolution.Role))
	if err != nil {
		log.Error("failed to mint dashboard token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("redirecting to dashboard", slog.String("account_id", resolution.AccountID))
	http.Redirect(w, r, h.dashboardURL, http.StatusFound)
}
