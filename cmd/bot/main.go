package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"countersell-bot/internal/chain"
	"countersell-bot/internal/config"
	"countersell-bot/internal/erc20"
	"countersell-bot/internal/logger"
	"countersell-bot/internal/monitor"
	"countersell-bot/internal/trade"
	"countersell-bot/internal/uniswap"
	"countersell-bot/internal/volume"
	"countersell-bot/internal/wallet"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		log.WithError(err).Fatal("dial node")
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		log.WithError(err).Fatal("read chain id")
	}
	w, err := wallet.FromHex(cfg.PrivateKey, chainID)
	if err != nil {
		log.WithError(err).Fatal("load signing key")
	}

	log.WithFields(logrus.Fields{
		"chain_id":     chainID.String(),
		"account":      w.Address().Hex(),
		"router":       cfg.Router.Hex(),
		"token":        cfg.Token.Hex(),
		"sell_percent": cfg.SellPercent.RatString(),
		"target_wei":   cfg.TargetWei.String(),
		"run_duration": cfg.RunDuration.String(),
	}).Info("starting countersell bot")
	log.Warn("countertrades carry no slippage floor (amountOutMin=0): unlimited price risk is accepted")

	if ethBal, err := client.BalanceAt(ctx, w.Address()); err == nil {
		log.WithField("eth_wei", ethBal.String()).Info("account native balance")
	}
	if tokBal, err := erc20.BalanceOf(ctx, client, cfg.Token, w.Address()); err == nil {
		log.WithField("token_wei", tokBal.String()).Info("account token balance")
	}

	exec := trade.NewExecutor(client, w, trade.Config{
		Token:         cfg.Token,
		WETH:          cfg.WETH,
		Router:        cfg.Router,
		Recipient:     w.Address(),
		SellPercent:   cfg.SellPercent,
		DeadlineSlack: cfg.DeadlineSlack,
		TipGwei:       cfg.TipGwei,
		BasefeeMul:    cfg.BasefeeMul,
		GasBufferPct:  cfg.GasBufferPct,
	}, log)

	if cfg.ApproveOnStart {
		if err := exec.EnsureAllowance(ctx, client); err != nil {
			log.WithError(err).Fatal("router allowance preflight")
		}
	}

	tracker := volume.NewTracker(cfg.TargetWei)
	ctrl := monitor.New(client, client, exec, tracker,
		uniswap.Params{Router: cfg.Router, Token: cfg.Token},
		time.Now().Add(cfg.RunDuration), log)

	summary, runErr := ctrl.Run(ctx)

	// Partial progress is reported however the run ended.
	fields := logrus.Fields{
		"reason":     summary.Reason,
		"total_sold": summary.TotalSold.String(),
		"target":     cfg.TargetWei.String(),
		"sells":      summary.Sells,
		"matches":    summary.Matches,
		"candidates": summary.Candidates,
	}
	if runErr != nil {
		log.WithError(runErr).WithFields(fields).Error("run ended with error")
		os.Exit(1)
	}
	log.WithFields(fields).Info("run complete")
}
