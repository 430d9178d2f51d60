package trade

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"countersell-bot/internal/uniswap"
)

func pct(t *testing.T, s string) *big.Rat {
	t.Helper()
	r, ok := new(big.Rat).SetString(s)
	require.True(t, ok, "bad percent literal %q", s)
	return r
}

func TestSellAmount(t *testing.T) {
	cases := []struct {
		buy  string
		pct  string
		want string
	}{
		{"1000", "10", "100"},
		{"100", "50", "50"},
		{"1000", "12.5", "125"},
		{"999", "10", "99"}, // floors
		{"1", "10", "0"},
		{"0", "10", "0"},
		{"7", "100", "7"},
	}
	for _, tc := range cases {
		buy, _ := new(big.Int).SetString(tc.buy, 10)
		got := SellAmount(buy, pct(t, tc.pct))
		require.Equal(t, tc.want, got.String(), "%s%% of %s", tc.pct, tc.buy)
	}
}

func TestSellAmount_ExactAtFullMagnitude(t *testing.T) {
	// 12.5% of 2^255 must come out exact; float math cannot represent this.
	buy := new(big.Int).Lsh(big.NewInt(1), 255)
	want := new(big.Int).Div(new(big.Int).Mul(buy, big.NewInt(125)), big.NewInt(1000))
	got := SellAmount(buy, pct(t, "12.5"))
	require.Zero(t, want.Cmp(got))
}

func TestSellAmount_NilInputs(t *testing.T) {
	require.Equal(t, "0", SellAmount(nil, pct(t, "10")).String())
	require.Equal(t, "0", SellAmount(big.NewInt(100), nil).String())
	require.Equal(t, "0", SellAmount(big.NewInt(-5), pct(t, "10")).String())
}

func testTradeConfig() Config {
	return Config{
		Token:         common.HexToAddress("0x1111111111111111111111111111111111111111"),
		WETH:          common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		Router:        common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		Recipient:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		SellPercent:   big.NewRat(10, 1),
		DeadlineSlack: 5 * time.Minute,
	}
}

func TestBuildSellCall_RoundTrip(t *testing.T) {
	cfg := testTradeConfig()
	now := time.Unix(1_800_000_000, 0)

	data, err := BuildSellCall(big.NewInt(12345), now, cfg)
	require.NoError(t, err)

	m := uniswap.SellMethod()
	require.Equal(t, m.ID, data[:4])

	args, err := m.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 5)

	require.Equal(t, "12345", args[0].(*big.Int).String())
	require.Equal(t, "0", args[1].(*big.Int).String(), "no slippage floor")
	require.Equal(t, []common.Address{cfg.Token, cfg.WETH}, args[2].([]common.Address))
	require.Equal(t, cfg.Recipient, args[3].(common.Address))
	require.Equal(t, now.Add(cfg.DeadlineSlack).Unix(), args[4].(*big.Int).Int64())
}

func TestBuildSellCall_RejectsBadAmounts(t *testing.T) {
	cfg := testTradeConfig()
	now := time.Now()

	var encErr *EncodeError
	_, err := BuildSellCall(nil, now, cfg)
	require.ErrorAs(t, err, &encErr)

	_, err = BuildSellCall(big.NewInt(-1), now, cfg)
	require.ErrorAs(t, err, &encErr)

	over := new(big.Int).Lsh(big.NewInt(1), 257)
	_, err = BuildSellCall(over, now, cfg)
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "amountIn", encErr.Op)
}

func TestEncodeError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &EncodeError{Op: "pack", Err: inner}
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "pack")
}
