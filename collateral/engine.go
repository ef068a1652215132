package collateral

import (
	"context"
	"errors"
	"sync"

	"github.com/inflaxprotocol/inflax/events"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types/num"
)

var (
	// ErrInvalidAmount is returned for zero amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientFunds is returned when a party's available balance
	// cannot cover a withdrawal, lock or transfer.
	ErrInsufficientFunds = errors.New("insufficient available balance")
	// ErrInsufficientLocked is returned when a position's locked balance
	// cannot cover an unlock, transfer or write-off.
	ErrInsufficientLocked = errors.New("insufficient locked balance")
	// ErrAccountNotFound is returned when operating on a party with no
	// account.
	ErrAccountNotFound = errors.New("account not found")
)

// Broker sends events out to the rest of the system.
type Broker interface {
	Send(event events.Event)
}

type account struct {
	general *num.Uint
	// locked balances are tagged by the position they margin
	locked map[string]*num.Uint
}

func (a *account) totalLocked() *num.Uint {
	total := num.UintZero()
	for _, l := range a.locked {
		total.Add(total, l)
	}
	return total
}

// Engine is the vault: it custodies collateral as per-party available
// balances and per-position locked balances. Locks, unlocks and transfers
// between locked and available balances are reserved to the risk engine.
type Engine struct {
	log    *logging.Logger
	cfg    Config
	broker Broker

	mu       sync.Mutex
	accounts map[string]*account
}

// New creates an empty collateral engine.
func New(log *logging.Logger, cfg Config, broker Broker) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:      log,
		cfg:      cfg,
		broker:   broker,
		accounts: map[string]*account{},
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

func (e *Engine) account(party string) *account {
	acc, ok := e.accounts[party]
	if !ok {
		acc = &account{
			general: num.UintZero(),
			locked:  map[string]*num.Uint{},
		}
		e.accounts[party] = acc
	}
	return acc
}

func (e *Engine) emit(ctx context.Context, party string) {
	if e.broker == nil {
		return
	}
	acc := e.account(party)
	e.broker.Send(events.NewAccountEvent(ctx, party, acc.general, acc.totalLocked()))
}

// Deposit credits a party's available balance.
func (e *Engine) Deposit(ctx context.Context, party string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc := e.account(party)
	acc.general.Add(acc.general, amount)
	e.emit(ctx, party)
	return nil
}

// Withdraw debits a party's available balance, failing when the balance
// cannot cover the amount.
func (e *Engine) Withdraw(ctx context.Context, party string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return ErrAccountNotFound
	}
	if acc.general.LT(amount) {
		return ErrInsufficientFunds
	}
	acc.general.Sub(acc.general, amount)
	e.emit(ctx, party)
	return nil
}

// LockCollateral moves amount from the party's available balance into the
// balance locked for the given position.
func (e *Engine) LockCollateral(ctx context.Context, party, positionID string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc := e.account(party)
	if acc.general.LT(amount) {
		return ErrInsufficientFunds
	}
	acc.general.Sub(acc.general, amount)
	lock, ok := acc.locked[positionID]
	if !ok {
		lock = num.UintZero()
		acc.locked[positionID] = lock
	}
	lock.Add(lock, amount)
	e.emit(ctx, party)
	return nil
}

// UnlockCollateral reverses a lock, crediting the amount back to the party's
// available balance.
func (e *Engine) UnlockCollateral(ctx context.Context, party, positionID string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return ErrAccountNotFound
	}
	lock, ok := acc.locked[positionID]
	if !ok || lock.LT(amount) {
		return ErrInsufficientLocked
	}
	lock.Sub(lock, amount)
	if lock.IsZero() {
		delete(acc.locked, positionID)
	}
	acc.general.Add(acc.general, amount)
	e.emit(ctx, party)
	return nil
}

// Transfer moves amount between two parties' available balances, used for
// fees paid out of free collateral.
func (e *Engine) Transfer(ctx context.Context, from, to string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.account(from)
	if src.general.LT(amount) {
		return ErrInsufficientFunds
	}
	src.general.Sub(src.general, amount)
	dst := e.account(to)
	dst.general.Add(dst.general, amount)
	e.emit(ctx, from)
	e.emit(ctx, to)
	return nil
}

// TransferLocked moves amount from a position's locked balance into another
// party's available balance, used for closing fees and liquidation payouts.
func (e *Engine) TransferLocked(ctx context.Context, party, positionID, to string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return ErrAccountNotFound
	}
	lock, ok := acc.locked[positionID]
	if !ok || lock.LT(amount) {
		return ErrInsufficientLocked
	}
	lock.Sub(lock, amount)
	if lock.IsZero() {
		delete(acc.locked, positionID)
	}
	dst := e.account(to)
	dst.general.Add(dst.general, amount)
	e.emit(ctx, party)
	e.emit(ctx, to)
	return nil
}

// WriteOff burns amount from a position's locked balance with no outgoing
// transfer, reconciling realised losses absorbed by the protocol.
func (e *Engine) WriteOff(ctx context.Context, party, positionID string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return ErrAccountNotFound
	}
	lock, ok := acc.locked[positionID]
	if !ok || lock.LT(amount) {
		return ErrInsufficientLocked
	}
	lock.Sub(lock, amount)
	if lock.IsZero() {
		delete(acc.locked, positionID)
	}
	e.log.Info("collateral written off",
		logging.String("party", party),
		logging.String("position-id", positionID),
		logging.String("amount", amount.String()),
	)
	e.emit(ctx, party)
	return nil
}

// GeneralBalance returns a party's available balance.
func (e *Engine) GeneralBalance(party string) *num.Uint {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return num.UintZero()
	}
	return acc.general.Clone()
}

// LockedBalance returns the balance locked for a given position.
func (e *Engine) LockedBalance(party, positionID string) *num.Uint {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return num.UintZero()
	}
	lock, ok := acc.locked[positionID]
	if !ok {
		return num.UintZero()
	}
	return lock.Clone()
}

// TotalLocked returns the sum of all balances locked for a party's
// positions.
func (e *Engine) TotalLocked(party string) *num.Uint {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[party]
	if !ok {
		return num.UintZero()
	}
	return acc.totalLocked()
}
