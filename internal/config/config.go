// Package config reads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"librarygql/internal/notify"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string        `validate:"required"`
	DatabaseURI     string        `validate:"required"`
	DatabaseName    string        `validate:"required"`
	JWTSecret       string        `validate:"required"`
	TokenTTL        time.Duration `validate:"gte=0"`
	DefaultPassword string        `validate:"required"`
	StoreTimeout    time.Duration `validate:"gt=0"`
	MongoTx         bool

	NATSURL      string `validate:"omitempty,url"`
	NotifyBuffer int    `validate:"gte=1"`
	NotifyPolicy notify.Policy

	CORSOrigins    []string
	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
	MaxBodyBytes   int64   `validate:"gte=0"`
	MaxDepth       int     `validate:"gte=0"`
	EnableHSTS     bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
}

// LoadEnvFiles loads .env and .env.local. Variables already set in the
// process environment win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads the environment after LoadEnvFiles. Every malformed or
// missing value is reported in one joined error.
func Load() (Config, error) {
	LoadEnvFiles()

	p := &parser{}
	cfg := Config{
		Addr:            getEnv("APP_ADDR", ":4000"),
		DatabaseURI:     os.Getenv("DB_URI"),
		DatabaseName:    getEnv("DB_NAME", "library"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        p.duration("TOKEN_TTL", 0),
		DefaultPassword: getEnv("DEFAULT_USER_PASSWORD", "secret"),
		StoreTimeout:    p.duration("STORE_TIMEOUT", 5*time.Second),
		MongoTx:         p.bool("MONGO_TRANSACTIONS", false),
		NATSURL:         os.Getenv("NATS_URL"),
		NotifyBuffer:    p.int("NOTIFY_BUFFER", notify.DefaultBuffer),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
		RateLimitRPS:    p.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  p.int("RATE_LIMIT_BURST", 40),
		MaxBodyBytes:    int64(p.int("MAX_BODY_BYTES", 1<<20)),
		MaxDepth:        p.int("GRAPHQL_MAX_DEPTH", 12),
		EnableHSTS:      p.bool("ENABLE_HSTS", false),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
	policy, err := notify.ParsePolicy(getEnv("NOTIFY_POLICY", string(notify.PolicyDropOldest)))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("NOTIFY_POLICY: %w", err))
	}
	cfg.NotifyPolicy = policy

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", envName(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

var envNames = map[string]string{
	"Addr":            "APP_ADDR",
	"DatabaseURI":     "DB_URI",
	"DatabaseName":    "DB_NAME",
	"JWTSecret":       "JWT_SECRET",
	"TokenTTL":        "TOKEN_TTL",
	"DefaultPassword": "DEFAULT_USER_PASSWORD",
	"StoreTimeout":    "STORE_TIMEOUT",
	"NATSURL":         "NATS_URL",
	"NotifyBuffer":    "NOTIFY_BUFFER",
	"RateLimitRPS":    "RATE_LIMIT_RPS",
	"RateLimitBurst":  "RATE_LIMIT_BURST",
	"MaxBodyBytes":    "MAX_BODY_BYTES",
	"MaxDepth":        "GRAPHQL_MAX_DEPTH",
	"LogLevel":        "LOG_LEVEL",
	"LogFormat":       "LOG_FORMAT",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return field
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects conversion errors so Load can report all of them.
type parser struct {
	errs []error
}

func (p *parser) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	// Bare integers are seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
