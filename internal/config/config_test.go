package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "50", cfg.MinIncrement)
	require.True(t, cfg.MinIncrementDecimal().Equal(decimal.NewFromInt(50)))
	require.Equal(t, 10, cfg.RecentBidsLimit)
	require.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUCTION_HTTP_ADDR", ":9090")
	t.Setenv("AUCTION_MIN_INCREMENT", "25.5")
	t.Setenv("AUCTION_SEED_BALANCE", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "25.5", cfg.MinIncrementDecimal().String())
	require.True(t, cfg.SeedBalanceDecimal().IsZero())
}

func TestLoad_RejectsBadIncrement(t *testing.T) {
	t.Setenv("AUCTION_MIN_INCREMENT", "lots")

	_, err := Load()
	require.Error(t, err)
}
