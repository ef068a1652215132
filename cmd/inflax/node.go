package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inflaxprotocol/inflax/amm"
	"github.com/inflaxprotocol/inflax/broker"
	"github.com/inflaxprotocol/inflax/collateral"
	"github.com/inflaxprotocol/inflax/config"
	"github.com/inflaxprotocol/inflax/fee"
	"github.com/inflaxprotocol/inflax/funding"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/metrics"
	"github.com/inflaxprotocol/inflax/oracle"
	"github.com/inflaxprotocol/inflax/risk"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

// networkLiquidator is the party name the node liquidates under when its
// own keeper loop closes out unhealthy positions.
const networkLiquidator = "network"

// liquidationCheckInterval is how often the keeper loop scans for
// positions below maintenance margin.
const liquidationCheckInterval = 10 * time.Second

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run the inflax node",
	RunE:  runNode,
}

// clock is the wall-clock time service handed to the risk engine.
type clock struct{}

func (clock) Now() time.Time { return time.Now() }

func runNode(_ *cobra.Command, _ []string) error {
	cfg, err := config.Read(rootPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		defaults := config.NewDefaultConfig()
		cfg = &defaults
	}

	log := logging.NewLoggerFromEnv(os.Getenv("INFLAX_ENV"))
	defer log.AtExit()

	bkr := broker.New(log, cfg.Broker)
	vault := collateral.New(log, cfg.Collateral, bkr)
	if cfg.Collateral.InitialInsuranceFund > 0 {
		if err := vault.Deposit(context.Background(), cfg.Risk.InsuranceRecipient,
			types.Scale(cfg.Collateral.InitialInsuranceFund)); err != nil {
			return err
		}
	}

	market, err := amm.New(log, cfg.AMM,
		types.Scale(cfg.AMM.InitialBaseReserve),
		types.Scale(cfg.AMM.InitialQuoteReserve),
	)
	if err != nil {
		return err
	}

	now := time.Now()
	cpiFeed := oracle.NewStaticSource(num.DecimalFromFloat(cfg.Oracle.BaseCPI), now)
	yieldFeed := oracle.NewStaticSource(num.DecimalFromFloat(cfg.Oracle.BaseYield), now)
	index := oracle.New(log, cfg.Oracle, cpiFeed, yieldFeed)

	fund := funding.New(log, cfg.Funding, bkr, now)

	fees, err := fee.New(log, cfg.Fee)
	if err != nil {
		return err
	}

	engine := risk.New(log, cfg.Risk, vault, market, fund, fees, bkr, clock{})
	engine.RegisterLiquidator(networkLiquidator)

	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = metrics.Start(log, cfg.Metrics)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fundingLoop(ctx, log, cfg.Funding.FundingInterval.Get(), market, index, fund)
	go liquidationLoop(ctx, log, engine)

	log.Info("inflax node started")

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Info("shutting down", logging.String("signal", sig.String()))

	cancel()
	if srv != nil {
		return srv.Close()
	}
	return nil
}

// liquidationLoop scans for positions below maintenance margin and closes
// them out under the network liquidator.
func liquidationLoop(ctx context.Context, log *logging.Logger, engine *risk.Engine) {
	ticker := time.NewTicker(liquidationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := engine.UnhealthyPositions()
			if err != nil {
				log.Error("unable to scan positions", logging.Error(err))
				continue
			}
			for _, id := range ids {
				if err := engine.LiquidatePosition(ctx, networkLiquidator, id); err != nil {
					log.Error("liquidation failed",
						logging.String("position-id", id),
						logging.Error(err),
					)
				}
			}
		}
	}
}

// fundingLoop drives the funding rate engine, reading the live mark and
// index prices once per funding interval.
func fundingLoop(
	ctx context.Context,
	log *logging.Logger,
	interval time.Duration,
	market *amm.Engine,
	index *oracle.Engine,
	fund *funding.Engine,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			mark, err := market.MarkPrice()
			if err != nil {
				log.Error("unable to read mark price", logging.Error(err))
				continue
			}
			indexPrice, err := index.IndexPrice(now)
			if err != nil {
				log.Error("unable to read index price", logging.Error(err))
				continue
			}
			if err := fund.Update(ctx, mark, indexPrice, now); err != nil {
				if errors.Is(err, funding.ErrUpdateTooSoon) {
					// ticker jitter, the next tick catches up
					continue
				}
				log.Error("funding update failed", logging.Error(err))
				continue
			}
			metrics.SetFundingRate(fund.Rate().InexactFloat64())
			metrics.SetMarkPrice(num.DecimalFromUint(mark).Div(types.PrecisionDec()).InexactFloat64())
			long, short := market.OpenInterest()
			metrics.SetOpenInterest(
				num.DecimalFromUint(long).Div(types.PrecisionDec()).InexactFloat64(),
				num.DecimalFromUint(short).Div(types.PrecisionDec()).InexactFloat64(),
			)
		}
	}
}
