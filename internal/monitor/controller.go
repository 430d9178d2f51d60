// Package monitor runs the watch-classify-execute loop over injected
// capabilities.
package monitor

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"countersell-bot/internal/chain"
	"countersell-bot/internal/trade"
	"countersell-bot/internal/uniswap"
	"countersell-bot/internal/volume"
)

// PendingSource yields hashes of transactions entering the mempool.
type PendingSource interface {
	SubscribePending(ctx context.Context, ch chan<- common.Hash) (ethereum.Subscription, error)
}

// TxReader resolves a hash to full transaction content. ok=false means the
// node no longer knows the transaction; that is not a fault.
type TxReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// Seller executes one countertrade to completion. A nil result with nil error
// means the sell was skipped (sized to zero).
type Seller interface {
	ExecuteSell(ctx context.Context, buyAmount *big.Int) (*trade.Result, error)
}

type state int

const (
	stateMonitoring state = iota
	stateClassifying
	stateExecuting
	stateExpired
)

func (s state) String() string {
	return [...]string{"monitoring", "classifying", "executing", "expired"}[s]
}

// Summary is the run outcome; it is reportable however the run ends.
type Summary struct {
	TotalSold  *big.Int
	Sells      int
	Candidates int
	Matches    int
	Reason     string
}

// Controller owns the sequential monitoring loop: one candidate at a time,
// and an in-flight sell blocks consumption until it resolves.
type Controller struct {
	source  PendingSource
	txs     TxReader
	seller  Seller
	tracker *volume.Tracker

	params   uniswap.Params
	deadline time.Time

	state      state
	candidates int
	matches    int
	sells      int
	log        *logrus.Entry
}

func New(source PendingSource, txs TxReader, seller Seller, tracker *volume.Tracker, params uniswap.Params, deadline time.Time, log *logrus.Logger) *Controller {
	return &Controller{
		source:   source,
		txs:      txs,
		seller:   seller,
		tracker:  tracker,
		params:   params,
		deadline: deadline,
		state:    stateMonitoring,
		log:      log.WithField("component", "monitor"),
	}
}

// Run consumes the pending stream until the deadline passes, the cumulative
// target is reached, the stream ends, or ctx is canceled. Per-cycle faults
// (lookup, broadcast, confirmation) are logged and skipped. A broken stream
// is also recoverable: a blocking sell can hold the loop long enough to
// overflow the subscription queue, which closes the subscription; the loop
// resubscribes and keeps going. Only initial subscription failure or a failed
// resubscribe ends the run with an error. The summary is valid in every case.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	runCtx, cancel := context.WithDeadline(ctx, c.deadline)
	defer cancel()

	hashes := make(chan common.Hash, 256)
	sub, err := c.source.SubscribePending(runCtx, hashes)
	if err != nil {
		return c.summary("subscribe failed"), err
	}
	defer func() {
		if sub != nil {
			sub.Unsubscribe()
		}
	}()

	c.log.WithFields(logrus.Fields{
		"router":   c.params.Router.Hex(),
		"token":    c.params.Token.Hex(),
		"deadline": c.deadline.Format(time.RFC3339),
		"target":   c.tracker.Target().String(),
	}).Info("monitoring mempool")

	for {
		select {
		case <-runCtx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return c.summary("canceled"), nil
			}
			c.setState(stateExpired)
			return c.summary("deadline expired"), nil

		case err := <-sub.Err():
			if err == nil {
				return c.summary("stream closed"), nil
			}
			c.log.WithError(err).Warn("pending stream broke, resubscribing")
			sub.Unsubscribe()
			sub, err = c.source.SubscribePending(runCtx, hashes)
			if err != nil {
				return c.summary("resubscribe failed"), err
			}

		case hash := <-hashes:
			if !time.Now().Before(c.deadline) {
				c.setState(stateExpired)
				return c.summary("deadline expired"), nil
			}
			if done := c.handleCandidate(runCtx, hash); done {
				return c.summary("target reached"), nil
			}
		}
	}
}

// handleCandidate runs one classification cycle. It returns true once the
// cumulative target is reached, which stops the loop: continuing to sell past
// the configured target serves no purpose and only adds price risk.
func (c *Controller) handleCandidate(ctx context.Context, hash common.Hash) bool {
	c.state = stateClassifying
	defer c.setState(stateMonitoring)
	c.candidates++
	log := c.log.WithField("candidate", hash.Hex())

	tx, ok, err := c.txs.TransactionByHash(ctx, hash)
	if err != nil {
		if chain.Transient(err) {
			log.WithError(err).Debug("candidate lookup failed, skipping")
		} else {
			log.WithError(err).Warn("candidate lookup failed, skipping")
		}
		return false
	}
	if !ok {
		// Evicted or already mined; treated as no match.
		return false
	}

	swap, match := uniswap.Classify(tx, c.params)
	if !match {
		return false
	}
	c.matches++
	log = log.WithFields(logrus.Fields{
		"kind":       swap.Kind.String(),
		"buy_amount": swap.AmountIn.String(),
		"path_len":   len(swap.Path),
	})
	log.Info("buy of tracked token detected")

	c.setState(stateExecuting)
	res, err := c.seller.ExecuteSell(ctx, swap.AmountIn)
	if err != nil {
		var encErr *trade.EncodeError
		if errors.As(err, &encErr) {
			// Logic defect in this trade's parameters; not a network condition.
			log.WithError(err).Error("countertrade encoding defect, trade abandoned")
		} else {
			log.WithError(err).Warn("countertrade failed, resuming monitoring")
		}
		return false
	}
	if res == nil {
		return false
	}

	c.sells++
	total, reached := c.tracker.Add(res.SellAmount)
	log.WithFields(logrus.Fields{
		"tx":             res.Hash.Hex(),
		"sold":           res.SellAmount.String(),
		"total_sold":     total.String(),
		"target_reached": reached,
	}).Info("countertrade mined")
	return reached
}

func (c *Controller) setState(s state) {
	if c.state != s {
		c.log.WithFields(logrus.Fields{"from": c.state.String(), "to": s.String()}).Debug("state transition")
		c.state = s
	}
}

func (c *Controller) summary(reason string) *Summary {
	return &Summary{
		TotalSold:  c.tracker.Total(),
		Sells:      c.sells,
		Candidates: c.candidates,
		Matches:    c.matches,
		Reason:     reason,
	}
}
