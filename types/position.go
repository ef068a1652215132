package types

import (
	"fmt"

	"github.com/inflaxprotocol/inflax/types/num"
)

// Position represents one open leveraged trade. Position records are owned
// exclusively by the risk engine, every other package only ever sees copies.
type Position struct {
	// ID is a globally unique identifier, never reused.
	ID string
	// Trader is the owning party, immutable after creation.
	Trader string
	// Side is the direction of the position, immutable.
	Side Side
	// Size is the notional exposure, collateral * leverage / precision,
	// fixed at entry.
	Size *num.Uint
	// Collateral is the locked margin, mutated by margin changes and
	// zeroed at close.
	Collateral *num.Uint
	// Leverage is the fixed-point multiplier, immutable after creation.
	Leverage *num.Uint
	// EntryPrice is the mark price snapshot at open, immutable.
	EntryPrice *num.Uint
	// EntryFundingIndex is the funding index snapshot at open, immutable,
	// used to compute accrued funding on close and health checks.
	EntryFundingIndex num.Decimal
	// LiquidationPrice is cached for display, recomputed on every margin
	// change. Liquidation eligibility is always recomputed live, never
	// read from this field.
	LiquidationPrice *num.Uint
	// Timestamp is the creation time in unix nanoseconds, immutable.
	Timestamp int64
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	cpy := *p
	cpy.Size = p.Size.Clone()
	cpy.Collateral = p.Collateral.Clone()
	cpy.Leverage = p.Leverage.Clone()
	cpy.EntryPrice = p.EntryPrice.Clone()
	cpy.LiquidationPrice = p.LiquidationPrice.Clone()
	return &cpy
}

func (p *Position) String() string {
	return fmt.Sprintf("id:%s, trader:%s, side:%s, size:%s, collateral:%s, entryPrice:%s",
		p.ID, p.Trader, p.Side, p.Size, p.Collateral, p.EntryPrice)
}
