package risk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inflaxprotocol/inflax/amm"
	"github.com/inflaxprotocol/inflax/crypto"
	"github.com/inflaxprotocol/inflax/events"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

var (
	// ErrEnginePaused is returned when opening positions while the engine
	// is paused.
	ErrEnginePaused = errors.New("risk engine is paused")
	// ErrPositionNotFound is returned for unknown position IDs. Closed and
	// liquidated positions are erased, so they are indistinguishable from
	// positions that never existed.
	ErrPositionNotFound = errors.New("position not found")
	// ErrNotPositionOwner is returned when a party operates on a position
	// it does not own.
	ErrNotPositionOwner = errors.New("not the position owner")
	// ErrNotLiquidator is returned when an unregistered party attempts a
	// liquidation.
	ErrNotLiquidator = errors.New("not a registered liquidator")
	// ErrInvalidCollateralAmount is returned when collateral on open is
	// below the configured minimum.
	ErrInvalidCollateralAmount = errors.New("collateral amount below minimum")
	// ErrInvalidLeverage is returned for leverage outside the allowed
	// range.
	ErrInvalidLeverage = errors.New("leverage out of range")
	// ErrSlippageExceeded is returned when the pre-trade mark price is
	// outside the caller's bounds. The caller may resubmit with new
	// bounds.
	ErrSlippageExceeded = errors.New("mark price outside slippage bounds")
	// ErrTooManyPositions is returned when a party hits the per-trader
	// open position ceiling.
	ErrTooManyPositions = errors.New("too many open positions")
	// ErrNotionalTooLarge is returned when a position's notional size
	// exceeds the ceiling.
	ErrNotionalTooLarge = errors.New("position notional above maximum")
	// ErrInvalidMarginAmount is returned for zero margin changes, and for
	// removals of the full collateral: only close or liquidate may zero
	// out a position's collateral.
	ErrInvalidMarginAmount = errors.New("invalid margin amount")
	// ErrMarginRemovalUnsafe is returned when removing margin would drop a
	// position's health below maintenance margin. State is untouched.
	ErrMarginRemovalUnsafe = errors.New("margin removal would make position unhealthy")
	// ErrPositionHealthy is returned on liquidation attempts against a
	// position whose health is at or above maintenance margin.
	ErrPositionHealthy = errors.New("position is not liquidatable")
	// ErrInvalidRiskParameter is returned by parameter setters for values
	// outside their sane bounds.
	ErrInvalidRiskParameter = errors.New("risk parameter out of bounds")
)

// Leverage bounds, fixed-point. The configurable ceiling may never exceed
// the absolute maximum.
var (
	minLeverage         = types.Scale(1)
	absoluteMaxLeverage = types.Scale(20)
)

// Maintenance margin must stay within a sane band, 1% to 50%.
const (
	minMaintenanceMarginBps uint64 = 100
	maxMaintenanceMarginBps uint64 = 5000
)

// Collateral is the vault surface consumed by the risk engine. Only the
// risk engine is authorised to move locked balances.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/collateral_mock.go -package mocks github.com/inflaxprotocol/inflax/risk Collateral
type Collateral interface {
	LockCollateral(ctx context.Context, party, positionID string, amount *num.Uint) error
	UnlockCollateral(ctx context.Context, party, positionID string, amount *num.Uint) error
	Transfer(ctx context.Context, from, to string, amount *num.Uint) error
	TransferLocked(ctx context.Context, party, positionID, to string, amount *num.Uint) error
	WriteOff(ctx context.Context, party, positionID string, amount *num.Uint) error
}

// MarketMaker is the vAMM surface consumed by the risk engine.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/market_maker_mock.go -package mocks github.com/inflaxprotocol/inflax/risk MarketMaker
type MarketMaker interface {
	MarkPrice() (*num.Uint, error)
	PreviewTrade(size *num.Uint, side types.Side) (*amm.Quote, error)
	UpdateReserves(size *num.Uint, side types.Side) error
	ReverseUpdate(size *num.Uint, side types.Side) error
}

// FundingEngine exposes the continuously extrapolated funding indices.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/funding_mock.go -package mocks github.com/inflaxprotocol/inflax/risk FundingEngine
type FundingEngine interface {
	PreviewIndices(now time.Time) (long, short num.Decimal)
}

// Fees computes trading fees and liquidation splits.
type Fees interface {
	TradeFee(size *num.Uint) *num.Uint
	LiquidationSplit(collateral *num.Uint) (reward, remaining *num.Uint)
}

// Broker sends events out to the rest of the system.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks github.com/inflaxprotocol/inflax/risk Broker
type Broker interface {
	Send(event events.Event)
}

// TimeService gives the engine its clock.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/time_service_mock.go -package mocks github.com/inflaxprotocol/inflax/risk TimeService
type TimeService interface {
	Now() time.Time
}

// parameters are the live risk parameters, seeded from config and mutated
// through the validated setters.
type parameters struct {
	maxLeverage           *num.Uint
	maintenanceMarginBps  uint64
	minCollateral         *num.Uint
	maxPositionsPerTrader uint64
	// nil disables the notional ceiling
	maxPositionNotional *num.Uint
}

// Engine owns the position lifecycle: open, close, margin adjustment and
// liquidation, and the P&L and health read paths. Every entry point holds
// the engine lock for its duration, position and collateral state is
// mutated across multiple collaborator calls and no interleaving is
// allowed.
type Engine struct {
	log *logging.Logger
	cfg Config

	collateral Collateral
	mm         MarketMaker
	funding    FundingEngine
	fees       Fees
	broker     Broker
	timeSvc    TimeService

	mu        sync.Mutex
	paused    bool
	params    parameters
	positions map[string]*types.Position
	// per-trader ordered IDs for iteration, and membership set
	traderOrder      map[string][]string
	traderMembership map[string]map[string]struct{}
	liquidators      map[string]struct{}

	globalCounter uint64
	nonces        map[string]uint64

	feeRecipient       string
	insuranceRecipient string
}

// New creates a position risk engine wired to its collaborators.
func New(
	log *logging.Logger,
	cfg Config,
	collateral Collateral,
	mm MarketMaker,
	funding FundingEngine,
	fees Fees,
	broker Broker,
	timeSvc TimeService,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	params := parameters{
		maxLeverage:          types.Scale(cfg.MaxLeverage),
		maintenanceMarginBps: cfg.MaintenanceMarginBps,
		minCollateral:        types.Scale(cfg.MinCollateral),
	}
	params.maxPositionsPerTrader = cfg.MaxPositionsPerTrader
	if cfg.MaxPositionNotional > 0 {
		params.maxPositionNotional = types.Scale(cfg.MaxPositionNotional)
	}

	return &Engine{
		log:                log,
		cfg:                cfg,
		collateral:         collateral,
		mm:                 mm,
		funding:            funding,
		fees:               fees,
		broker:             broker,
		timeSvc:            timeSvc,
		params:             params,
		positions:          map[string]*types.Position{},
		traderOrder:        map[string][]string{},
		traderMembership:   map[string]map[string]struct{}{},
		liquidators:        map[string]struct{}{},
		nonces:             map[string]uint64{},
		feeRecipient:       cfg.FeeRecipient,
		insuranceRecipient: cfg.InsuranceRecipient,
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

// positionID derives a globally unique identifier from the trader, the
// creation time, the global position counter, the direction and the
// per-trader nonce, so two opens in the same instant still get distinct
// IDs.
func (e *Engine) positionID(party string, ts time.Time, side types.Side) string {
	key := fmt.Sprintf("%s|%d|%d|%s|%d", party, ts.UnixNano(), e.globalCounter, side, e.nonces[party])
	return crypto.HashToHex([]byte(key))
}

// Pause stops new positions from being opened. Existing positions can still
// be closed, adjusted and liquidated.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	e.log.Info("risk engine paused")
}

// Unpause resumes position opening.
func (e *Engine) Unpause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	e.log.Info("risk engine unpaused")
}

// RegisterLiquidator grants a party the liquidator role.
func (e *Engine) RegisterLiquidator(party string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.liquidators[party] = struct{}{}
}

// UnregisterLiquidator revokes a party's liquidator role.
func (e *Engine) UnregisterLiquidator(party string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.liquidators, party)
}

// OnMaxLeverageUpdate replaces the leverage ceiling, which must stay within
// [minLeverage, absoluteMaxLeverage].
func (e *Engine) OnMaxLeverageUpdate(leverage *num.Uint) error {
	if leverage == nil || leverage.LT(minLeverage) || leverage.GT(absoluteMaxLeverage) {
		return ErrInvalidRiskParameter
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.maxLeverage = leverage.Clone()
	return nil
}

// OnMaintenanceMarginUpdate replaces the maintenance margin, which must stay
// within its sane band.
func (e *Engine) OnMaintenanceMarginUpdate(bps uint64) error {
	if bps < minMaintenanceMarginBps || bps > maxMaintenanceMarginBps {
		return ErrInvalidRiskParameter
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.maintenanceMarginBps = bps
	return nil
}

// OnMinCollateralUpdate replaces the minimum collateral required on open.
func (e *Engine) OnMinCollateralUpdate(amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidRiskParameter
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.minCollateral = amount.Clone()
	return nil
}

// OnMaxPositionsPerTraderUpdate replaces the per-trader position ceiling,
// 0 disables it.
func (e *Engine) OnMaxPositionsPerTraderUpdate(max uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.maxPositionsPerTrader = max
}

// OnMaxPositionNotionalUpdate replaces the notional ceiling, nil disables
// it.
func (e *Engine) OnMaxPositionNotionalUpdate(max *num.Uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if max == nil || max.IsZero() {
		e.params.maxPositionNotional = nil
		return
	}
	e.params.maxPositionNotional = max.Clone()
}

// MaintenanceMarginBps returns the current maintenance margin.
func (e *Engine) MaintenanceMarginBps() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.maintenanceMarginBps
}
