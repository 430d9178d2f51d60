// Package erc20 carries the minimal token surface the bot needs: reading
// allowance and balance, and encoding an approval for the router.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],
	 "name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var erc20ABI abi.ABI

// MaxUint256 is the unlimited-approval amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func init() {
	ab, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("erc20: bad ABI: " + err.Error())
	}
	erc20ABI = ab
}

// Caller performs a read-only contract call. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// PackApprove encodes approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("approve", spender, amount)
}

// Allowance reads allowance(owner, spender) on token.
func Allowance(ctx context.Context, c Caller, token, owner, spender common.Address) (*big.Int, error) {
	return readUint(ctx, c, token, "allowance", owner, spender)
}

// BalanceOf reads balanceOf(owner) on token.
func BalanceOf(ctx context.Context, c Caller, token, owner common.Address) (*big.Int, error) {
	return readUint(ctx, c, token, "balanceOf", owner)
}

func readUint(ctx context.Context, c Caller, token common.Address, method string, args ...interface{}) (*big.Int, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("erc20: pack %s: %w", method, err)
	}
	ret, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("erc20: call %s: %w", method, err)
	}
	vals, err := erc20ABI.Methods[method].Outputs.Unpack(ret)
	if err != nil {
		return nil, fmt.Errorf("erc20: decode %s return: %w", method, err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("erc20: %s returned %d values, want 1", method, len(vals))
	}
	out, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("erc20: %s returned non-uint", method)
	}
	return out, nil
}
