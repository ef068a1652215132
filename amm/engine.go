package amm

import (
	"errors"
	"sync"

	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

var (
	// ErrNoLiquidity is returned when the base reserve is zero and no mark
	// price can be derived.
	ErrNoLiquidity = errors.New("no liquidity in virtual reserves")
	// ErrInsufficientLiquidity is returned when a trade would zero out or
	// invert a reserve.
	ErrInsufficientLiquidity = errors.New("insufficient virtual liquidity for trade")
	// ErrPriceImpactTooLarge is returned when a trade would move the mark
	// price beyond the configured cap.
	ErrPriceImpactTooLarge = errors.New("trade price impact exceeds maximum")
	// ErrInvalidReserves is returned on zero reserves at creation or
	// rebalance.
	ErrInvalidReserves = errors.New("virtual reserves must be non-zero")
	// ErrInvalidTradeSize is returned for zero-size trades.
	ErrInvalidTradeSize = errors.New("trade size must be positive")
)

// Quote is the result of simulating a trade against the virtual reserves.
type Quote struct {
	BaseReserve  *num.Uint
	QuoteReserve *num.Uint
	MarkPrice    *num.Uint
}

// Engine maintains the constant-product virtual reserve pair used for price
// discovery. The reserves back no real assets, they only encode the mark
// price and its sensitivity to trades. Reserve updates are reserved to the
// risk engine, which is the engine's only caller for state changes.
type Engine struct {
	log *logging.Logger
	cfg Config

	mu           sync.Mutex
	baseReserve  *num.Uint
	quoteReserve *num.Uint
	// k is the reserve product, constant between trades, recomputed on
	// rebalance.
	k *num.Uint

	longOpenInterest  *num.Uint
	shortOpenInterest *num.Uint

	maxPriceImpactBps uint64
}

// New creates a market maker engine with the given initial virtual reserves.
func New(log *logging.Logger, cfg Config, baseReserve, quoteReserve *num.Uint) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	if baseReserve == nil || quoteReserve == nil || baseReserve.IsZero() || quoteReserve.IsZero() {
		return nil, ErrInvalidReserves
	}
	return &Engine{
		log:               log,
		cfg:               cfg,
		baseReserve:       baseReserve.Clone(),
		quoteReserve:      quoteReserve.Clone(),
		k:                 num.UintZero().Mul(baseReserve, quoteReserve),
		longOpenInterest:  num.UintZero(),
		shortOpenInterest: num.UintZero(),
		maxPriceImpactBps: cfg.MaxPriceImpactBps,
	}, nil
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

// MarkPrice returns the current synthetic trading price,
// quoteReserve * precision / baseReserve.
func (e *Engine) MarkPrice() (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markPrice(e.baseReserve, e.quoteReserve)
}

func (e *Engine) markPrice(base, quote *num.Uint) (*num.Uint, error) {
	if base.IsZero() {
		return nil, ErrNoLiquidity
	}
	p := num.UintZero().Mul(quote, types.Precision())
	return p.Div(p, base), nil
}

// PreviewTrade simulates the constant-product shift a trade of the given
// size and direction would cause, without committing anything. Long is buy
// pressure on the quote reserve, short is sell pressure.
func (e *Engine) PreviewTrade(size *num.Uint, side types.Side) (*Quote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previewTrade(size, side)
}

func (e *Engine) previewTrade(size *num.Uint, side types.Side) (*Quote, error) {
	if size == nil || size.IsZero() {
		return nil, ErrInvalidTradeSize
	}
	prior, err := e.markPrice(e.baseReserve, e.quoteReserve)
	if err != nil {
		return nil, err
	}

	newQuote := num.UintZero()
	if side.IsLong() {
		newQuote.Add(e.quoteReserve, size)
	} else {
		if size.GTE(e.quoteReserve) {
			return nil, ErrInsufficientLiquidity
		}
		newQuote.Sub(e.quoteReserve, size)
	}
	newBase := num.UintZero().Div(e.k, newQuote)
	if newBase.IsZero() {
		return nil, ErrInsufficientLiquidity
	}

	newMark, err := e.markPrice(newBase, newQuote)
	if err != nil {
		return nil, err
	}

	move, _ := num.UintZero().Delta(newMark, prior)
	impact := move.Mul(move, num.NewUint(types.BasisPoints))
	impact.Div(impact, prior)
	if impact.GTUint64(e.maxPriceImpactBps) {
		return nil, ErrPriceImpactTooLarge
	}

	return &Quote{
		BaseReserve:  newBase,
		QuoteReserve: newQuote,
		MarkPrice:    newMark,
	}, nil
}

// UpdateReserves commits the reserve shift for a trade of the given size and
// direction, and nets the trade into the open interest aggregates. The whole
// update is rejected, leaving state untouched, when the trade would exceed
// the price impact cap or exhaust a reserve.
func (e *Engine) UpdateReserves(size *num.Uint, side types.Side) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.previewTrade(size, side)
	if err != nil {
		return err
	}
	e.baseReserve = q.BaseReserve
	e.quoteReserve = q.QuoteReserve
	e.netOpenInterest(size, side)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("reserves updated",
			logging.String("side", side.String()),
			logging.String("size", size.String()),
			logging.String("mark-price", q.MarkPrice.String()),
		)
	}
	return nil
}

// ReverseUpdate undoes the directional pressure a position of the given size
// and side created, used when a position is closed or liquidated.
func (e *Engine) ReverseUpdate(size *num.Uint, side types.Side) error {
	return e.UpdateReserves(size, side.Opposite())
}

// netOpenInterest applies a trade delta to the open interest aggregates. A
// buy delta first reduces standing short open interest before adding to the
// long side, and symmetrically for a sell delta, so aggregate exposure is
// never double counted.
func (e *Engine) netOpenInterest(size *num.Uint, side types.Side) {
	reduce, grow := e.longOpenInterest, e.shortOpenInterest
	if side.IsLong() {
		reduce, grow = e.shortOpenInterest, e.longOpenInterest
	}
	netted := num.Min(size, reduce)
	reduce.Sub(reduce, netted)
	grow.Add(grow, num.UintZero().Sub(size, netted))
}

// Reserves returns the current virtual reserve pair.
func (e *Engine) Reserves() (base, quote *num.Uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseReserve.Clone(), e.quoteReserve.Clone()
}

// K returns the last committed reserve product.
func (e *Engine) K() *num.Uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.k.Clone()
}

// OpenInterest returns the aggregate long and short open interest.
func (e *Engine) OpenInterest() (long, short *num.Uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.longOpenInterest.Clone(), e.shortOpenInterest.Clone()
}

// Rebalance reprices the pool by replacing both reserves, recomputing the
// product invariant. Privileged, admin only.
func (e *Engine) Rebalance(baseReserve, quoteReserve *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if baseReserve == nil || quoteReserve == nil || baseReserve.IsZero() || quoteReserve.IsZero() {
		return ErrInvalidReserves
	}
	e.baseReserve = baseReserve.Clone()
	e.quoteReserve = quoteReserve.Clone()
	e.k = num.UintZero().Mul(baseReserve, quoteReserve)

	e.log.Info("virtual reserves rebalanced",
		logging.String("base-reserve", baseReserve.String()),
		logging.String("quote-reserve", quoteReserve.String()),
	)
	return nil
}

// OnMaxPriceImpactUpdate updates the per-trade price impact cap.
func (e *Engine) OnMaxPriceImpactUpdate(bps uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxPriceImpactBps = bps
}
