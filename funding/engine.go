package funding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/inflaxprotocol/inflax/events"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types/num"
)

var (
	// ErrUpdateTooSoon is returned when a funding update is attempted
	// before a full funding interval has elapsed.
	ErrUpdateTooSoon = errors.New("funding interval has not elapsed")
	// ErrInvalidIndexPrice is returned for a zero index price.
	ErrInvalidIndexPrice = errors.New("index price must be positive")
)

// Broker sends events out to the rest of the system.
type Broker interface {
	Send(event events.Event)
}

// Engine computes the bounded funding rate from the mark/index premium and
// accrues the opposing cumulative funding indices for longs and shorts. The
// two indices are strict mirror images: every accrual moves the long index
// by +delta and the short index by -delta.
type Engine struct {
	log    *logging.Logger
	cfg    Config
	broker Broker

	mu         sync.Mutex
	rate       num.Decimal
	longIndex  num.Decimal
	shortIndex num.Decimal
	lastUpdate time.Time

	interval    time.Duration
	coefficient num.Decimal
	maxRate     num.Decimal
	minRate     num.Decimal
}

// New creates a funding rate engine, with indices starting at zero and the
// accrual clock starting at now.
func New(log *logging.Logger, cfg Config, broker Broker, now time.Time) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:         log,
		cfg:         cfg,
		broker:      broker,
		rate:        num.DecimalZero(),
		longIndex:   num.DecimalZero(),
		shortIndex:  num.DecimalZero(),
		lastUpdate:  now,
		interval:    cfg.FundingInterval.Get(),
		coefficient: num.DecimalFromFloat(cfg.Coefficient),
		maxRate:     num.DecimalFromFloat(cfg.MaxRate),
		minRate:     num.DecimalFromFloat(cfg.MinRate),
	}
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

// Update accrues funding for the elapsed time at the previous rate, then
// recomputes the rate from the mark/index premium. Privileged, and rate
// limited to at most once per funding interval. The accrue-then-recompute
// order is essential: the new rate never applies to time that already
// elapsed under the old rate.
func (e *Engine) Update(ctx context.Context, markPrice, indexPrice *num.Uint, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if indexPrice == nil || indexPrice.IsZero() {
		return ErrInvalidIndexPrice
	}
	elapsed := now.Sub(e.lastUpdate)
	if elapsed < e.interval {
		return ErrUpdateTooSoon
	}

	delta := e.accrualDelta(elapsed)
	e.longIndex = e.longIndex.Add(delta)
	e.shortIndex = e.shortIndex.Sub(delta)

	premium := num.DecimalFromUint(markPrice).Sub(num.DecimalFromUint(indexPrice)).
		Div(num.DecimalFromUint(indexPrice))
	rate := premium.Mul(e.coefficient)
	e.rate = num.MaxD(e.minRate.Neg(), num.MinD(rate, e.maxRate))
	e.lastUpdate = now

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("funding rate updated",
			logging.String("rate", e.rate.String()),
			logging.String("long-index", e.longIndex.String()),
			logging.String("short-index", e.shortIndex.String()),
		)
	}
	if e.broker != nil {
		e.broker.Send(events.NewFundingUpdate(ctx, e.rate, e.longIndex, e.shortIndex, now.UnixNano()))
	}
	return nil
}

// accrualDelta is the index movement for the elapsed time at the current
// rate, rate * elapsed / fundingInterval.
func (e *Engine) accrualDelta(elapsed time.Duration) num.Decimal {
	if elapsed <= 0 {
		return num.DecimalZero()
	}
	return e.rate.
		Mul(num.DecimalFromInt64(elapsed.Nanoseconds())).
		Div(num.DecimalFromInt64(e.interval.Nanoseconds()))
}

// PreviewIndices extrapolates the not-yet-committed accrual for the time
// elapsed since the last update, so P&L reads reflect funding continuously
// rather than only at update boundaries. Nothing is committed.
func (e *Engine) PreviewIndices(now time.Time) (long, short num.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delta := e.accrualDelta(now.Sub(e.lastUpdate))
	return e.longIndex.Add(delta), e.shortIndex.Sub(delta)
}

// Rate returns the current bounded funding rate.
func (e *Engine) Rate() num.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// Indices returns the committed cumulative funding indices.
func (e *Engine) Indices() (long, short num.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.longIndex, e.shortIndex
}

// LastUpdate returns the time funding was last committed.
func (e *Engine) LastUpdate() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUpdate
}
