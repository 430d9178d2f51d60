// Package chain adapts an Ethereum node endpoint to the narrow capabilities
// the monitoring loop needs: a pending-transaction stream, lookup by hash,
// broadcast, and receipt waiting.
package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client bundles the eth and geth RPC namespaces over one connection.
type Client struct {
	rpc  *rpc.Client
	eth  *ethclient.Client
	geth *gethclient.Client

	receiptPoll time.Duration
}

// Dial connects to the node. The endpoint must support the
// newPendingTransactions subscription (ws:// or ipc).
func Dial(ctx context.Context, url string) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:         rc,
		eth:         ethclient.NewClient(rc),
		geth:        gethclient.New(rc),
		receiptPoll: 2 * time.Second,
	}, nil
}

func (c *Client) Close() { c.rpc.Close() }

// Eth exposes the underlying ethclient for read-only helpers.
func (c *Client) Eth() *ethclient.Client { return c.eth }

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// SubscribePending streams hashes of transactions entering the mempool.
func (c *Client) SubscribePending(ctx context.Context, ch chan<- common.Hash) (ethereum.Subscription, error) {
	return c.geth.SubscribePendingTransactions(ctx, ch)
}

// TransactionByHash fetches a transaction's full content. A transaction the
// node no longer knows (evicted, already dropped) reports ok=false with a nil
// error: absence is not a fault.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	tx, _, err := c.eth.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return tx, true, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.eth.SendTransaction(ctx, tx)
}

// WaitMined polls for the receipt until it lands or ctx ends.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()
	for {
		r, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, ethereum.NotFound) && !Transient(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return c.eth.PendingNonceAt(ctx, addr)
}

// SuggestFees derives EIP-1559 caps from the current head:
// feeCap = baseFee*baseMul + tip.
func (c *Client) SuggestFees(ctx context.Context, tipGwei, baseMul int64) (tip, feeCap *big.Int, err error) {
	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}
	tip = new(big.Int).Mul(big.NewInt(tipGwei), big.NewInt(1_000_000_000))
	feeCap = new(big.Int).Mul(baseFee, big.NewInt(baseMul))
	feeCap.Add(feeCap, tip)
	return tip, feeCap, nil
}

// EstimateGas estimates with retry and applies a percentage buffer; on a
// persistent estimation failure it falls back to a constant generous enough
// for a fee-on-transfer swap.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg, bufferPct int64) (uint64, error) {
	const fallbackGas = 350_000
	est, err := estimateWithRetry(ctx, c.eth, msg)
	if err != nil {
		return fallbackGas, nil
	}
	return est + est*uint64(bufferPct)/100, nil
}

// CallContract performs eth_call with bounded retry.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return callWithRetry(ctx, c.eth, msg)
}

func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, addr, nil)
}

// --- retry helpers ---

func callWithRetry(ctx context.Context, ec *ethclient.Client, msg ethereum.CallMsg) ([]byte, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ret, err := ec.CallContract(ctx, msg, nil)
		if err == nil {
			return ret, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			time.Sleep(backoff)
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return nil, lastErr
}

func estimateWithRetry(ctx context.Context, ec *ethclient.Client, msg ethereum.CallMsg) (uint64, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		g, err := ec.EstimateGas(ctx, msg)
		if err == nil {
			return g, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			time.Sleep(backoff)
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return 0, lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// Transient reports whether an RPC fault looks like congestion or connectivity
// rather than a defect; transient faults abort one cycle, not the run.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	s := err.Error()
	for _, frag := range []string{
		"Too Many Requests", "-32005",
		"connection reset", "connection refused", "broken pipe",
		"i/o timeout", "EOF", "websocket", "temporarily unavailable",
	} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
