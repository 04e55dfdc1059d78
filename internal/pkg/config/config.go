package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	ClientURL string `env:"CLIENT_URL, default=http://localhost:3000"`

	// CookieCrossSite relaxes the refresh cookie to SameSite=None in production
	// when the web client is served from another site.
	CookieCrossSite bool `env:"COOKIE_CROSS_SITE, default=false"`
	BcryptCost      int  `env:"BCRYPT_COST,       default=10"`

	// TrustProxy takes the client IP from X-Forwarded-For set by a proxy on a
	// private network. Otherwise the socket peer address is used.
	TrustProxy bool `env:"TRUST_PROXY, default=false"`

	Tokens    TokenConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	Google    GoogleConfig
	Facebook  FacebookConfig
	S3        S3Config
	RateLimit RateLimitConfig
}

type TokenConfig struct {
	AccessSecret      string        `env:"ACCESS_TOKEN_SECRET,  required"`
	RefreshSecret     string        `env:"REFRESH_TOKEN_SECRET, required"`
	ActivationSecret  string        `env:"ACTIVATION_SECRET,    required"`
	UserAccessTTL     time.Duration `env:"USER_ACCESS_TTL,      default=15m"`
	LandlordAccessTTL time.Duration `env:"LANDLORD_ACCESS_TTL,  default=10m"`
	TenantAccessTTL   time.Duration `env:"TENANT_ACCESS_TTL,    default=10m"`
	AdminAccessTTL    time.Duration `env:"ADMIN_ACCESS_TTL,     default=2m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rental"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,   default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM,   default=no-reply@rental.local"`
	Workers  int    `env:"MAIL_WORKERS, default=4"`
}

// Enabled reports whether an SMTP relay was configured. Without one, mail is
// written to the log instead.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

type GoogleConfig struct {
	ClientID string `env:"GOOGLE_CLIENT_ID"`
}

type FacebookConfig struct {
	ClientID     string `env:"FACEBOOK_CLIENT_ID"`
	ClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	RedirectURL  string `env:"FACEBOOK_REDIRECT_URL"`
}

type S3Config struct {
	Bucket          string        `env:"S3_BUCKET"`
	Region          string        `env:"S3_REGION,  default=us-east-1"`
	Endpoint        string        `env:"S3_ENDPOINT"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string        `env:"S3_PUBLIC_BASE_URL"`
	PresignTTL      time.Duration `env:"S3_PRESIGN_TTL, default=15m"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=1m"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether ENV is "development".
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
