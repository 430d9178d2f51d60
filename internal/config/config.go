// Package config reads the run configuration from the environment. All
// values are fixed at process start; there is no runtime reconfiguration.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"countersell-bot/internal/uniswap"
)

// Config is the validated, typed run configuration.
type Config struct {
	RPCURL     string
	PrivateKey string

	Token  common.Address
	Router common.Address
	WETH   common.Address

	// SellPercent in (0, 100], kept rational so fractional percentages stay
	// exact against 256-bit buy amounts.
	SellPercent *big.Rat
	// TargetWei is the cumulative sell target (uint256 domain).
	TargetWei *big.Int

	RunDuration   time.Duration
	DeadlineSlack time.Duration

	TipGwei      int64
	BasefeeMul   int64
	GasBufferPct int64

	ApproveOnStart bool

	LogLevel  string
	LogFormat string
}

// Load reads and validates configuration from environment variables
// (RPC_URL, PRIVATE_KEY, TOKEN_ADDRESS, SELL_PERCENT, TARGET_WEI, ...).
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("rpc_url", "wss://eth.llamarpc.com")
	v.SetDefault("router_address", uniswap.DefaultRouter.Hex())
	v.SetDefault("weth_address", uniswap.DefaultWETH.Hex())
	v.SetDefault("sell_percent", "10")
	v.SetDefault("run_seconds", 3600)
	v.SetDefault("deadline_slack_seconds", 300)
	v.SetDefault("tip_gwei", 3)
	v.SetDefault("basefee_mul", 2)
	v.SetDefault("gas_buffer_pct", 15)
	v.SetDefault("approve_on_start", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	cfg := &Config{
		RPCURL:         strings.TrimSpace(v.GetString("rpc_url")),
		PrivateKey:     strings.TrimSpace(v.GetString("private_key")),
		RunDuration:    time.Duration(v.GetInt64("run_seconds")) * time.Second,
		DeadlineSlack:  time.Duration(v.GetInt64("deadline_slack_seconds")) * time.Second,
		TipGwei:        v.GetInt64("tip_gwei"),
		BasefeeMul:     v.GetInt64("basefee_mul"),
		GasBufferPct:   v.GetInt64("gas_buffer_pct"),
		ApproveOnStart: v.GetBool("approve_on_start"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("config: rpc_url is required")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("config: private_key is required")
	}

	var err error
	if cfg.Token, err = parseAddress(v.GetString("token_address"), "token_address"); err != nil {
		return nil, err
	}
	if cfg.Router, err = parseAddress(v.GetString("router_address"), "router_address"); err != nil {
		return nil, err
	}
	if cfg.WETH, err = parseAddress(v.GetString("weth_address"), "weth_address"); err != nil {
		return nil, err
	}

	if cfg.SellPercent, err = parsePercent(v.GetString("sell_percent")); err != nil {
		return nil, err
	}
	if cfg.TargetWei, err = parseWei(v.GetString("target_wei")); err != nil {
		return nil, err
	}

	if cfg.RunDuration <= 0 {
		return nil, fmt.Errorf("config: run_seconds must be positive")
	}
	if cfg.DeadlineSlack <= 0 {
		return nil, fmt.Errorf("config: deadline_slack_seconds must be positive")
	}
	if cfg.BasefeeMul <= 0 {
		return nil, fmt.Errorf("config: basefee_mul must be positive")
	}
	if cfg.GasBufferPct < 0 {
		return nil, fmt.Errorf("config: gas_buffer_pct must be non-negative")
	}
	return cfg, nil
}

func parseAddress(s, key string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, fmt.Errorf("config: %s is required", key)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("config: %s: invalid address %q", key, s)
	}
	return common.HexToAddress(s), nil
}

// parsePercent accepts a decimal like "10" or "12.5"; bound 0 < p <= 100.
func parsePercent(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("config: sell_percent: invalid value %q", s)
	}
	if r.Sign() <= 0 || r.Cmp(big.NewRat(100, 1)) > 0 {
		return nil, fmt.Errorf("config: sell_percent must be in (0, 100], got %s", s)
	}
	return r, nil
}

// parseWei accepts decimal or 0x-hex; must fit uint256 and be positive.
func parseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("config: target_wei is required")
	}
	z := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = z.SetString(s[2:], 16)
	} else {
		_, ok = z.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("config: target_wei: invalid value %q", s)
	}
	if z.Sign() <= 0 || z.BitLen() > 256 {
		return nil, fmt.Errorf("config: target_wei must be a positive uint256, got %q", s)
	}
	return z, nil
}
