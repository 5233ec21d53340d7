package environment

import (
	"context"
	"log/slog"
	"net/http"

	"signalmarket/internal/config"
	apihttp "signalmarket/internal/http"
	"signalmarket/internal/workers"
	"signalmarket/internal/workers/expiration"
	"signalmarket/internal/workers/paymentwatch"
)

type Servers struct {
	HTTP struct {
		Observability *http.Server
		API           *http.Server
	}
}

func newServers(ctx context.Context, cfg config.Config, logger *slog.Logger, clients *Clients, services *Services) *Servers {
	var servers Servers

	router := apihttp.NewRouter(cfg.API, logger.WithGroup("http"), apihttp.Handlers{
		AuthSync:     services.AuthSyncHandler,
		AuthCallback: services.AuthCallbackHandler,
		Checkout:     services.CheckoutHandler,
		SubsCurrent:  services.SubsCurrentHandler,
	})

	servers.HTTP.API = &http.Server{
		Addr:              cfg.API.ADDR(),
		Handler:           router,
		ReadTimeout:       cfg.API.ReadTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
		IdleTimeout:       cfg.API.IdleTimeout,
		ReadHeaderTimeout: cfg.API.ReadTimeout,
	}
	servers.HTTP.Observability = initObservability(ctx, logger.WithGroup("http"), clients, cfg)

	return &servers
}

func newWorkers(cfg config.Config, logger *slog.Logger, services *Services) *workers.Manager {
	return workers.NewManager(
		logger.WithGroup("workers"),
		paymentwatch.NewWorker(services.Billing, cfg.Workers.PaymentWatchSpec, logger),
		expiration.NewWorker(services.Subs, cfg.Workers.ExpirationSpec, logger),
	)
}
