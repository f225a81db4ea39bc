package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment; a .env file is loaded beforehand by main.
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseDSN   string `envconfig:"DATABASE_DSN" default:"root:root@tcp(localhost:3306)/bidding"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"internal/repository/migrations"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"bidding-events"`

	RoundsAutoReopen bool `envconfig:"ROUNDS_AUTO_REOPEN" default:"false"`

	Mpesa    MpesaConfig
	Payments PaymentsConfig
}

// MpesaConfig configures the Daraja STK push client.
type MpesaConfig struct {
	Environment    string        `envconfig:"MPESA_ENVIRONMENT" default:"stub"`
	ConsumerKey    string        `envconfig:"MPESA_CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"MPESA_CONSUMER_SECRET"`
	Shortcode      string        `envconfig:"MPESA_SHORTCODE" default:"174379"`
	Passkey        string        `envconfig:"MPESA_PASSKEY"`
	CallbackURL    string        `envconfig:"MPESA_CALLBACK_URL" default:"http://localhost:8080/payments/mpesa/callback/"`
	RequestTimeout time.Duration `envconfig:"MPESA_REQUEST_TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"MPESA_MAX_ATTEMPTS" default:"3"`
}

// PaymentsConfig tunes the reconciler.
type PaymentsConfig struct {
	CallbackSecret string        `envconfig:"CALLBACK_SECRET"`
	PendingTimeout time.Duration `envconfig:"PAYMENT_PENDING_TIMEOUT" default:"5m"`
	SweepInterval  time.Duration `envconfig:"PAYMENT_SWEEP_INTERVAL" default:"1m"`
	RatePerMinute  int           `envconfig:"PAYMENT_RATE_PER_MINUTE" default:"5"`

	// ParkedRetention bounds how long a callback without a known payment is kept.
	ParkedRetention time.Duration `envconfig:"PAYMENT_PARKED_RETENTION" default:"24h"`

	// DirectJoin lets users join a round without an M-Pesa charge. With it
	// off, POST /participations/ is admin-only and users pay through
	// /payments/mpesa/initiate-participation/.
	DirectJoin bool `envconfig:"PARTICIPATION_DIRECT_JOIN" default:"true"`
}

// Load processes the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "mysql":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Mpesa.Environment {
	case "stub":
	case "sandbox", "production":
		if c.Mpesa.ConsumerKey == "" || c.Mpesa.ConsumerSecret == "" || c.Mpesa.Passkey == "" {
			return fmt.Errorf("config: MPESA_CONSUMER_KEY, MPESA_CONSUMER_SECRET and MPESA_PASSKEY are required for %s", c.Mpesa.Environment)
		}
	default:
		return fmt.Errorf("config: unknown MPESA_ENVIRONMENT %q", c.Mpesa.Environment)
	}

	if c.Mpesa.MaxAttempts < 1 {
		return fmt.Errorf("config: MPESA_MAX_ATTEMPTS must be at least 1")
	}
	if c.Payments.PendingTimeout <= 0 || c.Payments.SweepInterval <= 0 {
		return fmt.Errorf("config: payment timeouts must be positive")
	}
	return nil
}

// Brokers splits KAFKA_BROKERS; an empty list disables the Kafka sink.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
