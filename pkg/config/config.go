package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "KITARENA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Checkout  CheckoutConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Mollie    MollieConfig
	Mail      MailConfig
	Cache     CacheConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KITARENA_APP_ENV" required:"true"`
	Port         string `envconfig:"KITARENA_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"KITARENA_APP_PUBLIC_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"KITARENA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KITARENA_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"KITARENA_APP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KITARENA_DB_DSN"`
	Driver string `envconfig:"KITARENA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KITARENA_DB_HOST"`
	Port     int    `envconfig:"KITARENA_DB_PORT" default:"5432"`
	User     string `envconfig:"KITARENA_DB_USER"`
	Password string `envconfig:"KITARENA_DB_PASSWORD"`
	Name     string `envconfig:"KITARENA_DB_NAME"`
	SSLMode  string `envconfig:"KITARENA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KITARENA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KITARENA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KITARENA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KITARENA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KITARENA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KITARENA_REDIS_ADDR"`
	Password     string        `envconfig:"KITARENA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KITARENA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KITARENA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KITARENA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KITARENA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KITARENA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KITARENA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KITARENA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KITARENA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KITARENA_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenDays  int    `envconfig:"KITARENA_JWT_REFRESH_TOKEN_DAYS" default:"30"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns how long a refresh session stays valid.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenDays <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

type CheckoutConfig struct {
	Currency           string        `envconfig:"KITARENA_CHECKOUT_CURRENCY" default:"EUR"`
	ProviderTimeout    time.Duration `envconfig:"KITARENA_CHECKOUT_PROVIDER_TIMEOUT" default:"10s"`
	ProviderRetries    int           `envconfig:"KITARENA_CHECKOUT_PROVIDER_RETRIES" default:"3"`
	WebhookGuardTTL    time.Duration `envconfig:"KITARENA_CHECKOUT_WEBHOOK_GUARD_TTL" default:"72h"`
	OrderDetailsWindow time.Duration `envconfig:"KITARENA_CHECKOUT_ORDER_DETAILS_WINDOW" default:"168h"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"KITARENA_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"KITARENA_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"KITARENA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID string `envconfig:"KITARENA_PAYPAL_CLIENT_ID"`
	Secret   string `envconfig:"KITARENA_PAYPAL_SECRET"`
	Live     bool   `envconfig:"KITARENA_PAYPAL_LIVE" default:"false"`
}

type MollieConfig struct {
	APIKey     string `envconfig:"KITARENA_MOLLIE_API_KEY"`
	WebhookURL string `envconfig:"KITARENA_MOLLIE_WEBHOOK_URL"`
}

type MailConfig struct {
	SendgridAPIKey string `envconfig:"KITARENA_SENDGRID_API_KEY"`
	FromAddress    string `envconfig:"KITARENA_MAIL_FROM" default:"ordini@kitarena.it"`
	FromName       string `envconfig:"KITARENA_MAIL_FROM_NAME" default:"KitArena"`
}

type CacheConfig struct {
	ArticleTTL time.Duration `envconfig:"KITARENA_CACHE_ARTICLE_TTL" default:"5m"`
	ProductTTL time.Duration `envconfig:"KITARENA_CACHE_PRODUCT_TTL" default:"1m"`
}

// PasswordConfig tunes the Argon2id hashing parameters.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KITARENA_PASSWORD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KITARENA_PASSWORD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KITARENA_PASSWORD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KITARENA_PASSWORD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KITARENA_PASSWORD_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig throttles authenticated traffic and the auth endpoints.
type RateLimitConfig struct {
	APILimit           int64         `envconfig:"KITARENA_RATELIMIT_API_LIMIT" default:"120"`
	APIWindow          time.Duration `envconfig:"KITARENA_RATELIMIT_API_WINDOW" default:"1m"`
	LoginWindow        time.Duration `envconfig:"KITARENA_RATELIMIT_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit       int           `envconfig:"KITARENA_RATELIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"KITARENA_RATELIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"KITARENA_RATELIMIT_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"KITARENA_RATELIMIT_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"KITARENA_RATELIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"KITARENA_DB_HOST": db.Host,
		"KITARENA_DB_USER": db.User,
		"KITARENA_DB_NAME": db.Name,
	}
	for _, name := range []string{"KITARENA_DB_HOST", "KITARENA_DB_USER", "KITARENA_DB_NAME"} {
		if required[name] == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either KITARENA_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
