package environment

import (
	"context"
	"log/slog"
	"time"

	"signalmarket/internal/config"
	"signalmarket/internal/infra/rediscache"
	"signalmarket/internal/infra/sqlite3"
	"signalmarket/internal/infra/telegram"
	"signalmarket/internal/infra/yookassa"
	"signalmarket/internal/migrations"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
	YooKassa    *yookassa.Client
	RedisCache  *rediscache.Cache
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := migrations.Run(sqliteDB.DB.DB); err != nil {
		return nil, err
	}

	telegramBot, err := provideTelegramBot(cfg, logger)
	if err != nil {
		return nil, err
	}

	yooKassa, err := provideYooKassa(cfg, logger)
	if err != nil {
		return nil, err
	}

	redisCache, err := provideRedisCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
		YooKassa:    yooKassa,
		RedisCache:  redisCache,
	}, nil
}

func (c *Clients) close() {
	if c.RedisCache != nil {
		_ = c.RedisCache.Close()
	}
	if c.SQLiteDB != nil {
		_ = c.SQLiteDB.Close()
	}
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithPath(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}

// provideTelegramBot returns nil when no bot token is configured; the
// billing service then falls back to the redirect provider.
func provideTelegramBot(cfg config.Config, logger *slog.Logger) (*telegram.Client, error) {
	if cfg.Telegram.BotToken == "" {
		return nil, nil
	}
	return telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ProviderToken, logger)
}

func provideYooKassa(cfg config.Config, logger *slog.Logger) (*yookassa.Client, error) {
	if cfg.YooKassa.ShopID == "" || cfg.YooKassa.SecretKey == "" {
		return nil, nil
	}
	return yookassa.NewClient(cfg.YooKassa.ShopID, cfg.YooKassa.SecretKey, cfg.YooKassa.ReturnURL, logger)
}

// provideRedisCache is optional: without an address resolutions are
// served straight from SQLite.
func provideRedisCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (*rediscache.Cache, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	cache, err := rediscache.New(ctx, cfg.Redis, cfg.Session.CacheTTL)
	if err != nil {
		// Cache is an accelerator, not a dependency. Log and run without.
		logger.Warn("redis unavailable, continuing without resolution cache", "error", err)
		return nil, nil
	}
	return cache, nil
}
