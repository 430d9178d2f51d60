package uniswap

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SwapKind tags the recognized buy variants.
type SwapKind int

const (
	BuyWithETH SwapKind = iota
	BuyWithTokens
)

func (k SwapKind) String() string {
	switch k {
	case BuyWithETH:
		return "eth_for_tokens"
	case BuyWithTokens:
		return "tokens_for_tokens"
	}
	return "unknown"
}

// DecodedSwap is the result of classifying a pending router call.
// AmountIn is the economically relevant input quantity: the attached value for
// the ETH variant, the declared amountIn calldata field for the token variant
// (the attached value carries no meaning on a nonpayable call).
type DecodedSwap struct {
	Kind     SwapKind
	Path     []common.Address
	AmountIn *big.Int
}

// Params narrows classification to one router and one tracked token.
type Params struct {
	Router common.Address
	Token  common.Address
}

// Classify inspects a pending transaction and reports whether it is a buy of
// the tracked token through the configured router. Pure; malformed or
// truncated calldata yields (nil, false), never a panic. Arguments are
// decoded through the ABI parameter schema rather than fixed byte offsets,
// so any canonical-or-not ABI-valid encoding is read correctly.
func Classify(tx *types.Transaction, p Params) (*DecodedSwap, bool) {
	if tx == nil || tx.To() == nil || *tx.To() != p.Router {
		return nil, false
	}
	data := tx.Data()
	if len(data) < 4 {
		return nil, false
	}

	switch {
	case bytes.Equal(data[:4], routerABI.Methods[methodBuyWithETH].ID):
		args, err := routerABI.Methods[methodBuyWithETH].Inputs.Unpack(data[4:])
		if err != nil || len(args) != 4 {
			return nil, false
		}
		path, ok := args[1].([]common.Address)
		if !ok || !buysToken(path, p.Token) {
			return nil, false
		}
		return &DecodedSwap{
			Kind:     BuyWithETH,
			Path:     path,
			AmountIn: new(big.Int).Set(tx.Value()),
		}, true

	case bytes.Equal(data[:4], routerABI.Methods[methodBuyWithTokens].ID):
		args, err := routerABI.Methods[methodBuyWithTokens].Inputs.Unpack(data[4:])
		if err != nil || len(args) != 5 {
			return nil, false
		}
		amountIn, ok := args[0].(*big.Int)
		if !ok {
			return nil, false
		}
		path, ok := args[2].([]common.Address)
		if !ok || !buysToken(path, p.Token) {
			return nil, false
		}
		return &DecodedSwap{
			Kind:     BuyWithTokens,
			Path:     path,
			AmountIn: new(big.Int).Set(amountIn),
		}, true
	}

	return nil, false
}

// buysToken reports whether the swap path ends at the tracked token. Address
// comparison is byte-level, so checksum casing of the configured hex never
// matters.
func buysToken(path []common.Address, token common.Address) bool {
	return len(path) >= 2 && path[len(path)-1] == token
}
