// Package environment wires configuration, clients, services and servers
// into a runnable application.
package environment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"signalmarket/internal/config"
	"signalmarket/internal/workers"
)

type closer func()

type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Servers  *Servers
	Clients  *Clients
	Services *Services
	Workers  *workers.Manager

	Closers []closer
}

func Setup(ctx context.Context) (*Env, error) {
	// .env is optional; absence is not an error
	_ = godotenv.Load()

	var cfg config.Config
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}

	var e Env

	logger := newLogger(&cfg)

	clients, err := newClients(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("newClients: %w", err)
	}

	services, err := newServices(ctx, clients, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("newServices: %w", err)
	}

	servers := newServers(ctx, cfg, logger, clients, services)

	e.Config = &cfg
	e.Logger = logger
	e.Clients = clients
	e.Services = services
	e.Servers = servers
	e.Workers = newWorkers(cfg, logger, services)
	e.Closers = []closer{clients.close}

	return &e, nil
}
