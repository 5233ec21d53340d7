package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string              `env:"ENV,default=local"`
	Logger           LoggerConfig        `env:",prefix=LOGGER_"`
	Observability    ObservabilityConfig `env:",prefix=OBSERVABILITY_"`
	API              APIServerConfig     `env:",prefix=API_"`
	ShutdownDuration time.Duration       `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig        `env:",prefix=DB_"`
	Redis            RedisConfig         `env:",prefix=REDIS_"`
	Telegram         TelegramConfig      `env:",prefix=TELEGRAM_"`
	YooKassa         YooKassaConfig      `env:",prefix=YOOKASSA_"`
	Session          SessionConfig       `env:",prefix=SESSION_"`
	Dashboard        DashboardConfig     `env:",prefix=DASHBOARD_"`
	Workers          WorkersConfig       `env:",prefix=WORKERS_"`
}

type TelegramConfig struct {
	BotToken string        `env:"BOT_TOKEN"`
	Timeout  time.Duration `env:"TIMEOUT,default=30s"`
	// ProviderToken is the payment-provider token issued by BotFather,
	// required for createInvoiceLink.
	ProviderToken string `env:"PROVIDER_TOKEN"`
}

type YooKassaConfig struct {
	ShopID      string `env:"SHOP_ID"`
	SecretKey   string `env:"SECRET_KEY"`
	ReturnURL   string `env:"RETURN_URL,default=https://example.com/payment/return"`
	MockPayment bool   `env:"MOCK_PAYMENT,default=false"`
}

// SessionConfig tunes the Mini-App session bridge.
type SessionConfig struct {
	// ReadyTimeout bounds the wait for the host SDK handshake. After it
	// fires the session proceeds unauthenticated instead of blocking.
	ReadyTimeout time.Duration `env:"READY_TIMEOUT,default=4s"`
	CacheTTL     time.Duration `env:"CACHE_TTL,default=10m"`
}

type DashboardConfig struct {
	BaseURL      string        `env:"BASE_URL,default=https://example.com/dashboard"`
	JWTSecretKey string        `env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=24h"`
	CookieName   string        `env:"COOKIE_NAME,default=dashboard_session"`
}

type WorkersConfig struct {
	PaymentWatchSpec string `env:"PAYMENT_WATCH_SPEC,default=@every 1m"`
	ExpirationSpec   string `env:"EXPIRATION_SPEC,default=@every 10m"`
}

type APIServerConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         uint16        `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
	RateLimitRPS float64       `env:"RATE_LIMIT_RPS,default=20.0"`
	RateBurst    int           `env:"RATE_BURST,default=40"`
}

func (a APIServerConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/signalmarket.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}

type RedisConfig struct {
	Addr        string        `env:"ADDR"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB,default=0"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT,default=5s"`
}
