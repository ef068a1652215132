package events

import (
	"context"

	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

// PositionOpened is emitted once a new position has been fully minted.
type PositionOpened struct {
	*Base
	position *types.Position
}

func NewPositionOpened(ctx context.Context, p *types.Position) *PositionOpened {
	return &PositionOpened{
		Base:     newBase(ctx, PositionOpenedEvent),
		position: p.Clone(),
	}
}

// Position returns a copy of the position as it was minted.
func (e PositionOpened) Position() *types.Position {
	return e.position.Clone()
}

// IsTrader returns whether the event belongs to the given party.
func (e PositionOpened) IsTrader(id string) bool {
	return e.position.Trader == id
}

// PositionClosed is emitted on trader-initiated full settlement.
type PositionClosed struct {
	*Base
	positionID  string
	trader      string
	pnl         num.Decimal
	finalAmount *num.Uint
	closingFee  *num.Uint
}

func NewPositionClosed(ctx context.Context, positionID, trader string, pnl num.Decimal, finalAmount, closingFee *num.Uint) *PositionClosed {
	return &PositionClosed{
		Base:        newBase(ctx, PositionClosedEvent),
		positionID:  positionID,
		trader:      trader,
		pnl:         pnl,
		finalAmount: finalAmount.Clone(),
		closingFee:  closingFee.Clone(),
	}
}

func (e PositionClosed) PositionID() string {
	return e.positionID
}

func (e PositionClosed) Trader() string {
	return e.trader
}

// PnL returns the gross, pre-fee P&L realised by the close.
func (e PositionClosed) PnL() num.Decimal {
	return e.pnl
}

// FinalAmount returns the net amount released to the trader.
func (e PositionClosed) FinalAmount() *num.Uint {
	return e.finalAmount.Clone()
}

func (e PositionClosed) ClosingFee() *num.Uint {
	return e.closingFee.Clone()
}

// PositionLiquidated is emitted on forced settlement of an unhealthy
// position.
type PositionLiquidated struct {
	*Base
	positionID string
	trader     string
	liquidator string
	reward     *num.Uint
	remaining  *num.Uint
}

func NewPositionLiquidated(ctx context.Context, positionID, trader, liquidator string, reward, remaining *num.Uint) *PositionLiquidated {
	return &PositionLiquidated{
		Base:       newBase(ctx, PositionLiquidatedEvent),
		positionID: positionID,
		trader:     trader,
		liquidator: liquidator,
		reward:     reward.Clone(),
		remaining:  remaining.Clone(),
	}
}

func (e PositionLiquidated) PositionID() string {
	return e.positionID
}

func (e PositionLiquidated) Trader() string {
	return e.trader
}

func (e PositionLiquidated) Liquidator() string {
	return e.liquidator
}

// Reward returns the share of collateral paid to the liquidator.
func (e PositionLiquidated) Reward() *num.Uint {
	return e.reward.Clone()
}

// Remaining returns the share of collateral captured by the insurance pool.
func (e PositionLiquidated) Remaining() *num.Uint {
	return e.remaining.Clone()
}

// MarginUpdated is emitted when collateral is added to or removed from an
// open position.
type MarginUpdated struct {
	*Base
	positionID       string
	trader           string
	collateral       *num.Uint
	liquidationPrice *num.Uint
}

func NewMarginUpdated(ctx context.Context, positionID, trader string, collateral, liquidationPrice *num.Uint) *MarginUpdated {
	return &MarginUpdated{
		Base:             newBase(ctx, MarginUpdatedEvent),
		positionID:       positionID,
		trader:           trader,
		collateral:       collateral.Clone(),
		liquidationPrice: liquidationPrice.Clone(),
	}
}

func (e MarginUpdated) PositionID() string {
	return e.positionID
}

func (e MarginUpdated) Trader() string {
	return e.trader
}

func (e MarginUpdated) Collateral() *num.Uint {
	return e.collateral.Clone()
}

func (e MarginUpdated) LiquidationPrice() *num.Uint {
	return e.liquidationPrice.Clone()
}
