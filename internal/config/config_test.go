package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"countersell-bot/internal/uniswap"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PRIVATE_KEY", "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d")
	t.Setenv("TOKEN_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("TARGET_WEI", "1000000000000000000")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, uniswap.DefaultRouter, cfg.Router)
	require.Equal(t, uniswap.DefaultWETH, cfg.WETH)
	require.Equal(t, "10", cfg.SellPercent.RatString())
	require.Equal(t, "1000000000000000000", cfg.TargetWei.String())
	require.Equal(t, int64(3600), int64(cfg.RunDuration.Seconds()))
	require.Equal(t, int64(300), int64(cfg.DeadlineSlack.Seconds()))
	require.True(t, cfg.ApproveOnStart)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FractionalPercentStaysExact(t *testing.T) {
	setRequired(t)
	t.Setenv("SELL_PERCENT", "12.5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "25/2", cfg.SellPercent.RatString())
}

func TestLoad_HexTarget(t *testing.T) {
	setRequired(t)
	t.Setenv("TARGET_WEI", "0xde0b6b3a7640000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", cfg.TargetWei.String())
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"private key", "PRIVATE_KEY"},
		{"token address", "TOKEN_ADDRESS"},
		{"target", "TARGET_WEI"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.unset, "")
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero percent", "SELL_PERCENT", "0"},
		{"negative percent", "SELL_PERCENT", "-1"},
		{"over hundred percent", "SELL_PERCENT", "100.01"},
		{"garbage percent", "SELL_PERCENT", "ten"},
		{"zero target", "TARGET_WEI", "0"},
		{"garbage target", "TARGET_WEI", "1e18"},
		{"malformed token address", "TOKEN_ADDRESS", "0x123"},
		{"malformed router address", "ROUTER_ADDRESS", "not-an-address"},
		{"zero run duration", "RUN_SECONDS", "0"},
		{"zero deadline slack", "DEADLINE_SLACK_SECONDS", "0"},
		{"zero basefee multiplier", "BASEFEE_MUL", "0"},
		{"negative gas buffer", "GAS_BUFFER_PCT", "-5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err, "%s=%s must be rejected", tc.key, tc.value)
		})
	}
}

func TestLoad_OversizedTargetRejected(t *testing.T) {
	setRequired(t)
	// 2^257: one bit past uint256.
	t.Setenv("TARGET_WEI", "0x2"+strings.Repeat("0", 64))
	_, err := Load()
	require.Error(t, err)
}
