package risk

import (
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

// positionPnL computes the gross unrealised P&L of a position at the given
// mark price and cumulative funding index, in fixed-point units.
//
// The price leg computes the relative price move first, in decimal, before
// multiplying by the notional size, so small deltas lose no precision. The
// funding leg floors the index delta at zero: a position that entered when
// the cumulative index was higher than it currently is shows no funding
// effect rather than a negative one. Longs pay a positive funding delta,
// shorts receive it.
func positionPnL(p *types.Position, markPrice *num.Uint, fundingIndex num.Decimal) num.Decimal {
	entry := num.DecimalFromUint(p.EntryPrice)
	mark := num.DecimalFromUint(markPrice)
	size := num.DecimalFromUint(p.Size)

	ratio := mark.Sub(entry).Div(entry)
	if p.Side == types.SideShort {
		ratio = ratio.Neg()
	}
	pricePnL := ratio.Mul(size)

	fundingDelta := num.MaxD(fundingIndex.Sub(p.EntryFundingIndex), num.DecimalZero())
	fundingPnL := fundingDelta.Mul(size)
	if p.Side == types.SideShort {
		return pricePnL.Add(fundingPnL)
	}
	return pricePnL.Sub(fundingPnL)
}

// healthRatio computes a position's health in basis points: equity over the
// margin posted at entry (size * precision / leverage). The denominator is
// the collateral committed when the position opened, not the live notional,
// so health sits exactly at the maintenance margin when the mark reaches
// the liquidation price. A bankrupt position, equity at or below zero,
// reports zero, never a negative value.
func healthRatio(p *types.Position, markPrice *num.Uint, fundingIndex num.Decimal) uint64 {
	pnl := positionPnL(p, markPrice, fundingIndex)
	equity := num.DecimalFromUint(p.Collateral).Add(pnl)
	if !equity.IsPositive() {
		return 0
	}
	positionValue := num.DecimalFromUint(p.Size).
		Mul(types.PrecisionDec()).
		Div(num.DecimalFromUint(p.Leverage))
	health := equity.Mul(num.DecimalFromInt64(int64(types.BasisPoints))).Div(positionValue)
	return uint64(health.IntPart())
}

// liquidationPrice computes the advisory liquidation price cached on the
// position record:
//
//	lossThreshold      = basisPoints - maintenanceMargin
//	priceChangePercent = lossThreshold / leverage
//	long:  entryPrice * (1 - priceChangePercent)
//	short: entryPrice * (1 + priceChangePercent)
//
// Liquidation eligibility is always recomputed live from the health ratio,
// never read back from this value.
func liquidationPrice(entryPrice, leverage *num.Uint, side types.Side, maintenanceMarginBps uint64) *num.Uint {
	bp := num.DecimalFromInt64(int64(types.BasisPoints))
	lossThreshold := bp.Sub(num.DecimalFromInt64(int64(maintenanceMarginBps))).Div(bp)
	lev := num.DecimalFromUint(leverage).Div(types.PrecisionDec())
	change := lossThreshold.Div(lev)

	entry := num.DecimalFromUint(entryPrice)
	var price num.Decimal
	if side == types.SideLong {
		price = entry.Mul(num.DecimalOne().Sub(change))
		if price.IsNegative() {
			price = num.DecimalZero()
		}
	} else {
		price = entry.Mul(num.DecimalOne().Add(change))
	}
	u, _ := num.UintFromDecimal(price.Floor())
	return u
}

// liveState reads the current mark price and extrapolated funding index,
// the inputs every P&L and health computation depends on.
func (e *Engine) liveState() (*num.Uint, num.Decimal, error) {
	mark, err := e.mm.MarkPrice()
	if err != nil {
		return nil, num.DecimalZero(), err
	}
	longIndex, _ := e.funding.PreviewIndices(e.timeSvc.Now())
	return mark, longIndex, nil
}

// Position returns a copy of an open position, or ErrPositionNotFound for
// IDs that are unknown, closed or liquidated.
func (e *Engine) Position(id string) (*types.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[id]
	if !ok {
		return nil, ErrPositionNotFound
	}
	return p.Clone(), nil
}

// Positions returns copies of a party's open positions in opening order.
func (e *Engine) Positions(party string) []*types.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := e.traderOrder[party]
	out := make([]*types.Position, 0, len(ids))
	for _, id := range ids {
		if p, ok := e.positions[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// OpenPositionCount returns the number of currently open positions.
func (e *Engine) OpenPositionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions)
}

// PositionPnL returns the gross unrealised P&L of an open position at the
// live mark price and extrapolated funding index.
func (e *Engine) PositionPnL(id string) (num.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[id]
	if !ok {
		return num.DecimalZero(), ErrPositionNotFound
	}
	mark, fundingIndex, err := e.liveState()
	if err != nil {
		return num.DecimalZero(), err
	}
	return positionPnL(p, mark, fundingIndex), nil
}

// HealthRatio returns the live health of an open position in basis points.
func (e *Engine) HealthRatio(id string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[id]
	if !ok {
		return 0, ErrPositionNotFound
	}
	mark, fundingIndex, err := e.liveState()
	if err != nil {
		return 0, err
	}
	return healthRatio(p, mark, fundingIndex), nil
}

// UnhealthyPositions scans every open position and returns the IDs of those
// whose live health is below the maintenance margin.
func (e *Engine) UnhealthyPositions() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mark, fundingIndex, err := e.liveState()
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, p := range e.positions {
		if healthRatio(p, mark, fundingIndex) < e.params.maintenanceMarginBps {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IsLiquidatable reports whether a position's live health is below the
// maintenance margin.
func (e *Engine) IsLiquidatable(id string) (bool, error) {
	h, err := e.HealthRatio(id)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return h < e.params.maintenanceMarginBps, nil
}
