package trade

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"countersell-bot/internal/wallet"
)

// Backend is the slice of node capability the executor needs. *chain.Client
// satisfies it; tests substitute a fake.
type Backend interface {
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	SuggestFees(ctx context.Context, tipGwei, baseMul int64) (tip, feeCap *big.Int, err error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg, bufferPct int64) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Result describes one completed sell.
type Result struct {
	Hash       common.Hash
	SellAmount *big.Int
	GasUsed    uint64
}

// Executor turns a detected buy amount into a sized, signed, broadcast and
// mined countertrade.
type Executor struct {
	backend Backend
	wallet  *wallet.Wallet
	cfg     Config
	log     *logrus.Entry
}

func NewExecutor(backend Backend, w *wallet.Wallet, cfg Config, log *logrus.Logger) *Executor {
	return &Executor{
		backend: backend,
		wallet:  w,
		cfg:     cfg,
		log:     log.WithField("component", "executor"),
	}
}

// ExecuteSell sells the configured fraction of buyAmount and blocks until the
// transaction mines. A fraction that floors to zero is skipped and returns
// (nil, nil). A mined-but-reverted sell is an error and does not count as
// sold volume.
func (e *Executor) ExecuteSell(ctx context.Context, buyAmount *big.Int) (*Result, error) {
	sell := SellAmount(buyAmount, e.cfg.SellPercent)
	if sell.Sign() == 0 {
		e.log.WithField("buy_amount", bigStr(buyAmount)).Debug("sell rounds to zero, skipping")
		return nil, nil
	}

	data, err := BuildSellCall(sell, time.Now(), e.cfg)
	if err != nil {
		return nil, err
	}

	nonce, err := e.backend.PendingNonceAt(ctx, e.wallet.Address())
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	tip, feeCap, err := e.backend.SuggestFees(ctx, e.cfg.TipGwei, e.cfg.BasefeeMul)
	if err != nil {
		return nil, fmt.Errorf("fees: %w", err)
	}
	gas, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: e.wallet.Address(),
		To:   &e.cfg.Router,
		Data: data,
	}, e.cfg.GasBufferPct)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	signed, err := e.wallet.SignTx(newCallTx(e.wallet.ChainID(), nonce, e.cfg.Router, gas, tip, feeCap, data))
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"tx":          signed.Hash().Hex(),
		"sell_amount": sell.String(),
		"buy_amount":  bigStr(buyAmount),
		"gas":         gas,
	}).Info("submitting countertrade")

	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	receipt, err := e.backend.WaitMined(ctx, signed.Hash())
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("sell reverted in block %s", receipt.BlockNumber)
	}

	return &Result{Hash: signed.Hash(), SellAmount: sell, GasUsed: receipt.GasUsed}, nil
}

func bigStr(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}
