package oracle

import (
	"errors"
	"sync"
	"time"

	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

var (
	// ErrStaleData is returned when a feed has not been refreshed within
	// the configured maximum age.
	ErrStaleData = errors.New("oracle feed data is stale")
	// ErrPriceDeviation is returned when a fresh index deviates from the
	// last accepted one by more than the configured bound.
	ErrPriceDeviation = errors.New("index price deviation exceeds maximum")
	// ErrNoHistory is returned when a TWAP is requested before any index
	// observation was accepted.
	ErrNoHistory = errors.New("no index observations available")
)

// DataSource is an external real-world data feed, reporting its latest value
// and the time it was observed.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/data_source_mock.go -package mocks github.com/inflaxprotocol/inflax/oracle DataSource
type DataSource interface {
	Value() (num.Decimal, time.Time, error)
}

type observation struct {
	price *num.Uint
	ts    time.Time
}

// Engine maintains a synthetic index price derived from a CPI feed and a
// treasury-yield feed. It enforces staleness and deviation bounds on every
// read and retains accepted observations for time-weighted averages.
type Engine struct {
	log *logging.Logger
	cfg Config

	cpi   DataSource
	yield DataSource

	mu      sync.Mutex
	last    *num.Uint
	history []observation

	basePrice   num.Decimal
	baseCPI     num.Decimal
	baseYield   num.Decimal
	yieldWeight num.Decimal
}

// New creates an index oracle over the given CPI and treasury-yield feeds.
func New(log *logging.Logger, cfg Config, cpi, yield DataSource) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:         log,
		cfg:         cfg,
		cpi:         cpi,
		yield:       yield,
		basePrice:   num.DecimalFromFloat(cfg.BasePrice),
		baseCPI:     num.DecimalFromFloat(cfg.BaseCPI),
		baseYield:   num.DecimalFromFloat(cfg.BaseYield),
		yieldWeight: num.DecimalFromFloat(cfg.YieldWeight),
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

// IndexPrice computes the current synthetic index price:
// basePrice * (cpi / baseCPI) * (1 + yieldWeight * (yield - baseYield)),
// in fixed-point representation. It fails when either feed is stale or the
// result deviates too far from the last accepted index.
func (e *Engine) IndexPrice(now time.Time) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cpi, err := e.read(e.cpi, now)
	if err != nil {
		return nil, err
	}
	yield, err := e.read(e.yield, now)
	if err != nil {
		return nil, err
	}

	tilt := num.DecimalOne().Add(e.yieldWeight.Mul(yield.Sub(e.baseYield)))
	index := e.basePrice.Mul(cpi.Div(e.baseCPI)).Mul(tilt)
	price := types.ScaledFromDecimal(index)

	if e.last != nil {
		move, _ := num.UintZero().Delta(price, e.last)
		deviation := move.Mul(move, num.NewUint(types.BasisPoints))
		deviation.Div(deviation, e.last)
		if deviation.GTUint64(e.cfg.MaxDeviationBps) {
			e.log.Warn("index price deviation rejected",
				logging.String("last", e.last.String()),
				logging.String("computed", price.String()),
			)
			return nil, ErrPriceDeviation
		}
	}

	e.last = price.Clone()
	e.record(price, now)
	return price, nil
}

func (e *Engine) read(src DataSource, now time.Time) (num.Decimal, error) {
	v, ts, err := src.Value()
	if err != nil {
		return num.DecimalZero(), err
	}
	if now.Sub(ts) > e.cfg.MaxAge.Get() {
		return num.DecimalZero(), ErrStaleData
	}
	return v, nil
}

func (e *Engine) record(price *num.Uint, now time.Time) {
	e.history = append(e.history, observation{price: price.Clone(), ts: now})
	cutoff := now.Add(-e.cfg.HistoryRetention.Get())
	trim := 0
	for trim < len(e.history)-1 && e.history[trim].ts.Before(cutoff) {
		trim++
	}
	e.history = e.history[trim:]
}

// TWAP returns the time-weighted average index over the given window ending
// at now. Each observation is weighted by the time until the next one, the
// most recent by the time until now.
func (e *Engine) TWAP(now time.Time, window time.Duration) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return nil, ErrNoHistory
	}
	from := now.Add(-window)

	var weighted, totalWeight num.Decimal
	for i, obs := range e.history {
		start := obs.ts
		if start.Before(from) {
			start = from
		}
		end := now
		if i+1 < len(e.history) {
			end = e.history[i+1].ts
		}
		if !end.After(start) {
			continue
		}
		w := num.DecimalFromInt64(end.Sub(start).Nanoseconds())
		weighted = weighted.Add(num.DecimalFromUint(obs.price).Mul(w))
		totalWeight = totalWeight.Add(w)
	}
	if totalWeight.IsZero() {
		// everything in history predates the window, fall back to the
		// latest accepted index
		return e.history[len(e.history)-1].price.Clone(), nil
	}
	avg, _ := num.UintFromDecimal(weighted.Div(totalWeight).Floor())
	return avg, nil
}

// LastIndex returns the last accepted index price, nil when no observation
// was accepted yet.
func (e *Engine) LastIndex() *num.Uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil
	}
	return e.last.Clone()
}
