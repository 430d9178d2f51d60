package trade

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"countersell-bot/internal/erc20"
)

// approveThreshold: re-approve only when the remaining allowance has dropped
// below half of unlimited.
var approveThreshold = new(big.Int).Rsh(erc20.MaxUint256, 1)

// EnsureAllowance makes sure the router can spend the tracked token from the
// executing account, submitting an unlimited approve and waiting for it to
// mine when it cannot. Without this the very first countertrade would revert.
func (e *Executor) EnsureAllowance(ctx context.Context, c erc20.Caller) error {
	cur, err := erc20.Allowance(ctx, c, e.cfg.Token, e.wallet.Address(), e.cfg.Router)
	if err != nil {
		return fmt.Errorf("allowance: %w", err)
	}
	if cur.Cmp(approveThreshold) >= 0 {
		e.log.Debug("router allowance already sufficient")
		return nil
	}

	data, err := erc20.PackApprove(e.cfg.Router, erc20.MaxUint256)
	if err != nil {
		return &EncodeError{Op: "approve", Err: err}
	}
	nonce, err := e.backend.PendingNonceAt(ctx, e.wallet.Address())
	if err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	tip, feeCap, err := e.backend.SuggestFees(ctx, e.cfg.TipGwei, e.cfg.BasefeeMul)
	if err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	gas, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: e.wallet.Address(),
		To:   &e.cfg.Token,
		Data: data,
	}, e.cfg.GasBufferPct)
	if err != nil {
		return fmt.Errorf("estimate gas: %w", err)
	}

	signed, err := e.wallet.SignTx(newCallTx(e.wallet.ChainID(), nonce, e.cfg.Token, gas, tip, feeCap, data))
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	e.log.WithField("tx", signed.Hash().Hex()).Info("approving router to spend tracked token")
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	receipt, err := e.backend.WaitMined(ctx, signed.Hash())
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approve reverted in block %s", receipt.BlockNumber)
	}
	return nil
}
