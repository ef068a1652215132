package fee

import (
	"errors"

	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

// Fee factors are capped far below 100% so no fee schedule can confiscate a
// position outright.
const (
	maxTradingFeeBps     uint64 = 500
	maxLiquidationFeeBps uint64 = 2000
)

var (
	// ErrFeeOutOfBounds is returned when a fee factor exceeds its cap.
	ErrFeeOutOfBounds = errors.New("fee factor out of bounds")
)

// Engine computes the trading fee taken on opens and closes and the
// liquidation split between the liquidator reward and the insurance capture.
type Engine struct {
	log *logging.Logger
	cfg Config

	tradingFeeBps     uint64
	liquidationFeeBps uint64
}

// New creates a fee engine, validating the configured factors.
func New(log *logging.Logger, cfg Config) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	e := &Engine{
		log: log,
		cfg: cfg,
	}
	if err := e.UpdateFactors(cfg.TradingFeeBps, cfg.LiquidationFeeBps); err != nil {
		return nil, err
	}
	return e, nil
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.cfg = cfg
}

// UpdateFactors replaces the fee factors, rejecting values above their caps.
func (e *Engine) UpdateFactors(tradingFeeBps, liquidationFeeBps uint64) error {
	if tradingFeeBps > maxTradingFeeBps || liquidationFeeBps > maxLiquidationFeeBps {
		return ErrFeeOutOfBounds
	}
	e.tradingFeeBps = tradingFeeBps
	e.liquidationFeeBps = liquidationFeeBps
	return nil
}

// TradeFee returns the fee charged on a trade of the given notional size,
// size * tradingFee / basisPoints. Used both on open and on close.
func (e *Engine) TradeFee(size *num.Uint) *num.Uint {
	f := num.UintZero().Mul(size, num.NewUint(e.tradingFeeBps))
	return f.Div(f, num.NewUint(types.BasisPoints))
}

// LiquidationSplit splits a liquidated position's collateral into the
// liquidator reward, collateral * liquidationFee / basisPoints, and the
// remainder captured by the insurance pool.
func (e *Engine) LiquidationSplit(collateral *num.Uint) (reward, remaining *num.Uint) {
	reward = num.UintZero().Mul(collateral, num.NewUint(e.liquidationFeeBps))
	reward.Div(reward, num.NewUint(types.BasisPoints))
	remaining = num.UintZero()
	if collateral.GT(reward) {
		remaining.Sub(collateral, reward)
	}
	return reward, remaining
}

// TradingFeeBps returns the current trading fee factor.
func (e *Engine) TradingFeeBps() uint64 {
	return e.tradingFeeBps
}

// LiquidationFeeBps returns the current liquidation fee factor.
func (e *Engine) LiquidationFeeBps() uint64 {
	return e.liquidationFeeBps
}
