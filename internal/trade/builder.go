// Package trade sizes and assembles the countertrade.
package trade

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"countersell-bot/internal/uniswap"
)

// EncodeError marks a calldata-encoding defect. It is always a logic bug
// (parameter out of its declared ABI range), never a transient condition, and
// is surfaced as its own type so callers can tell it from network faults.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string { return "trade: encode " + e.Op + ": " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

// Config fixes the trade parameters for the run's lifetime.
type Config struct {
	Token     common.Address
	WETH      common.Address
	Router    common.Address
	Recipient common.Address

	// SellPercent is the fraction of each detected buy to counter-sell,
	// 0 < p <= 100. A rational keeps fractional percentages exact at any
	// 256-bit magnitude.
	SellPercent *big.Rat

	// DeadlineSlack is added to the current wall clock to form the absolute
	// unix deadline of the sell call.
	DeadlineSlack time.Duration

	TipGwei      int64
	BasefeeMul   int64
	GasBufferPct int64
}

// SellAmount computes floor(buy * pct / 100) entirely in integer arithmetic.
// A nil or non-positive buy yields zero.
func SellAmount(buy *big.Int, pct *big.Rat) *big.Int {
	if buy == nil || buy.Sign() <= 0 || pct == nil {
		return new(big.Int)
	}
	num := new(big.Int).Mul(buy, pct.Num())
	den := new(big.Int).Mul(pct.Denom(), big.NewInt(100))
	return num.Div(num, den)
}

// BuildSellCall encodes the sell of amount tokens for native currency through
// the router: path [token, WETH], recipient from config, amountOutMin zero
// (no slippage floor; the accepted price risk is reported at startup),
// deadline an absolute near-future unix timestamp.
func BuildSellCall(amount *big.Int, now time.Time, cfg Config) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, &EncodeError{Op: "amountIn", Err: fmt.Errorf("negative or nil amount")}
	}
	if amount.BitLen() > 256 {
		return nil, &EncodeError{Op: "amountIn", Err: fmt.Errorf("amount exceeds uint256")}
	}
	deadline := big.NewInt(now.Add(cfg.DeadlineSlack).Unix())
	path := []common.Address{cfg.Token, cfg.WETH}
	data, err := uniswap.PackSell(amount, new(big.Int), path, cfg.Recipient, deadline)
	if err != nil {
		return nil, &EncodeError{Op: "pack", Err: err}
	}
	return data, nil
}
