package environment

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"signalmarket/internal/config"
	"signalmarket/internal/http/handlers/auth/authcallback"
	"signalmarket/internal/http/handlers/auth/authsync"
	"signalmarket/internal/http/handlers/payment/checkoutcreate"
	"signalmarket/internal/http/handlers/subscription/subscurrent"
	"signalmarket/internal/lib/jwt"
	"signalmarket/internal/localization"
	"signalmarket/internal/storage"
	"signalmarket/internal/stories/accounts"
	"signalmarket/internal/stories/billing"
	"signalmarket/internal/stories/catalog"
	"signalmarket/internal/stories/subs"
)

type Services struct {
	Accounts *accounts.Service
	Catalog  *catalog.Svc
	Subs     *subs.Service
	Billing  *billing.Service
	Tokens   jwt.Maker
	L10n     *localization.Service

	AuthSyncHandler     *authsync.Handler
	AuthCallbackHandler *authcallback.Handler
	CheckoutHandler     *checkoutcreate.Handler
	SubsCurrentHandler  *subscurrent.Handler
}

func newServices(_ context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	storageImpl := storage.New(clients.SQLiteDB.DB)

	var cache accounts.Cache
	if clients.RedisCache != nil {
		cache = clients.RedisCache
	}
	s.Accounts = accounts.NewService(storageImpl, cache, logger)

	s.Catalog = catalog.NewService(storageImpl)
	s.Subs = subs.NewService(storageImpl, logger)

	var linker billing.InvoiceLinker
	if clients.TelegramBot != nil && clients.TelegramBot.SupportsInvoices() {
		linker = clients.TelegramBot
	}
	var yooKassa billing.YooKassaClient
	if clients.YooKassa != nil {
		yooKassa = clients.YooKassa
	}
	if linker == nil && yooKassa == nil && !cfg.YooKassa.MockPayment {
		return nil, errors.New("no invoice provider configured")
	}
	s.Billing = billing.NewService(storageImpl, linker, yooKassa, s.Catalog, s.Subs, cfg.YooKassa.MockPayment, logger)

	s.Tokens = jwt.NewMaker(cfg.Dashboard.JWTSecretKey, cfg.Dashboard.TokenTTL)

	l10n, err := localization.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "load translations")
	}
	s.L10n = l10n

	s.AuthSyncHandler = authsync.New(logger, s.Accounts)
	s.AuthCallbackHandler = authcallback.New(
		logger,
		s.Accounts,
		s.Tokens,
		cfg.Dashboard.BaseURL,
		cfg.Dashboard.CookieName,
		cfg.Dashboard.TokenTTL,
	)
	s.CheckoutHandler = checkoutcreate.New(logger, s.Billing)
	s.SubsCurrentHandler = subscurrent.New(logger, s.Subs)

	return &s, nil
}
