// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds every tunable of the auction server. All fields have working
// defaults so a bare `go run .` starts an in-memory instance.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// MinIncrement is the amount a new bid must exceed the current highest by.
	MinIncrement     string        `envconfig:"MIN_INCREMENT" default:"50"`
	LedgerTimeout    time.Duration `envconfig:"LEDGER_TIMEOUT" default:"3s"`
	FinalizeInterval time.Duration `envconfig:"FINALIZE_INTERVAL" default:"5s"`
	RecentBidsLimit  int           `envconfig:"RECENT_BIDS_LIMIT" default:"10"`
	TypingTTL        time.Duration `envconfig:"TYPING_TTL" default:"6s"`

	// DatabaseURL selects the Postgres store; empty keeps everything in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// AMQPURL enables mirroring events to a topic exchange; empty disables it.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"auction.events"`

	// RedisAddr enables mirroring events to Redis pub/sub; empty disables it.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// SeedAccounts credits this amount to accounts on first use when the
	// in-memory ledger is active. Zero disables seeding.
	SeedBalance string `envconfig:"SEED_BALANCE" default:"100000"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("AUCTION", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if _, err := decimal.NewFromString(cfg.MinIncrement); err != nil {
		return Config{}, fmt.Errorf("load config: invalid MIN_INCREMENT %q: %w", cfg.MinIncrement, err)
	}
	if cfg.SeedBalance != "" {
		if _, err := decimal.NewFromString(cfg.SeedBalance); err != nil {
			return Config{}, fmt.Errorf("load config: invalid SEED_BALANCE %q: %w", cfg.SeedBalance, err)
		}
	}
	return cfg, nil
}

// MinIncrementDecimal returns the parsed minimum increment.
func (c Config) MinIncrementDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.MinIncrement)
	return d
}

// SeedBalanceDecimal returns the parsed seed balance, zero when disabled.
func (c Config) SeedBalanceDecimal() decimal.Decimal {
	if c.SeedBalance == "" {
		return decimal.Zero
	}
	d, _ := decimal.NewFromString(c.SeedBalance)
	return d
}
