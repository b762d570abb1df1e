package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// Access and refresh tokens are signed with separate secrets. Both are
	// startup requirements.
	JWTSecret             string        `env:"JWT_SECRET, required"`
	JWTExpiresIn          time.Duration `env:"JWT_EXPIRES_IN,           default=1h"`
	RefreshTokenSecret    string        `env:"REFRESH_TOKEN_SECRET, required"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN, default=168h"`

	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=phone_verification"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// RateLimitConfig holds the per-route-class windows and quotas. The generic
// class has no single max: its quota depends on the caller's role tier.
type RateLimitConfig struct {
	GenericWindow       time.Duration `env:"RATE_LIMIT_GENERIC_WINDOW,        default=15m"`
	LoginWindow         time.Duration `env:"RATE_LIMIT_LOGIN_WINDOW,          default=1m"`
	LoginMax            int64         `env:"RATE_LIMIT_LOGIN_MAX,             default=5"`
	SignupWindow        time.Duration `env:"RATE_LIMIT_SIGNUP_WINDOW,         default=1h"`
	SignupMax           int64         `env:"RATE_LIMIT_SIGNUP_MAX,            default=5"`
	PasswordResetWindow time.Duration `env:"RATE_LIMIT_PASSWORD_RESET_WINDOW, default=1h"`
	PasswordResetMax    int64         `env:"RATE_LIMIT_PASSWORD_RESET_MAX,    default=3"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"FROM_EMAIL, default=no-reply@veriphone.local"`
	BaseURL  string `env:"FRONTEND_URL, default=http://localhost:5173"`
}

// IsProduction drives cookie security flags and log formatting.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
// Missing required secrets abort startup.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
