package risk

import (
	"context"

	"github.com/pkg/errors"

	"github.com/inflaxprotocol/inflax/events"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/metrics"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

// OpenPosition opens a leveraged position for the party and returns its ID.
// minPrice and maxPrice are optional slippage bounds checked against the
// pre-trade mark price, nil disables them. Validation happens before any
// funds move or reserves shift, and the reserve update is previewed before
// collateral is locked so the commit cannot fail halfway.
func (e *Engine) OpenPosition(
	ctx context.Context,
	party string,
	side types.Side,
	collateralAmount, leverage *num.Uint,
	minPrice, maxPrice *num.Uint,
) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return "", ErrEnginePaused
	}
	if collateralAmount == nil || collateralAmount.LT(e.params.minCollateral) {
		return "", ErrInvalidCollateralAmount
	}
	if leverage == nil || leverage.LT(minLeverage) || leverage.GT(e.params.maxLeverage) {
		return "", ErrInvalidLeverage
	}

	size := num.UintZero().Mul(collateralAmount, leverage)
	size.Div(size, types.Precision())
	if e.params.maxPositionNotional != nil && size.GT(e.params.maxPositionNotional) {
		return "", ErrNotionalTooLarge
	}
	if max := e.params.maxPositionsPerTrader; max > 0 && uint64(len(e.traderOrder[party])) >= max {
		return "", ErrTooManyPositions
	}

	entryPrice, err := e.mm.MarkPrice()
	if err != nil {
		return "", err
	}
	if side == types.SideLong && maxPrice != nil && entryPrice.GT(maxPrice) {
		return "", ErrSlippageExceeded
	}
	if side == types.SideShort && minPrice != nil && entryPrice.LT(minPrice) {
		return "", ErrSlippageExceeded
	}

	// run the reserve shift as a dry run now so the committing call below
	// cannot reject the trade after funds have moved
	if _, err := e.mm.PreviewTrade(size, side); err != nil {
		return "", err
	}

	now := e.timeSvc.Now()
	id := e.positionID(party, now, side)

	if err := e.collateral.LockCollateral(ctx, party, id, collateralAmount); err != nil {
		return "", errors.Wrap(err, "locking collateral")
	}
	fee := e.fees.TradeFee(size)
	if !fee.IsZero() {
		if err := e.collateral.Transfer(ctx, party, e.feeRecipient, fee); err != nil {
			e.compensate(ctx, party, id, collateralAmount, nil)
			return "", errors.Wrap(err, "collecting trading fee")
		}
	}
	if err := e.mm.UpdateReserves(size, side); err != nil {
		e.compensate(ctx, party, id, collateralAmount, fee)
		return "", errors.Wrap(err, "updating reserves")
	}

	entryFundingIndex, _ := e.funding.PreviewIndices(now)

	p := &types.Position{
		ID:                id,
		Trader:            party,
		Side:              side,
		Size:              size,
		Collateral:        collateralAmount.Clone(),
		Leverage:          leverage.Clone(),
		EntryPrice:        entryPrice,
		EntryFundingIndex: entryFundingIndex,
		LiquidationPrice:  liquidationPrice(entryPrice, leverage, side, e.params.maintenanceMarginBps),
		Timestamp:         now.UnixNano(),
	}
	e.insert(p)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("position opened",
			logging.String("position-id", id),
			logging.String("party", party),
			logging.String("side", side.String()),
			logging.BigUint("size", size),
			logging.BigUint("entry-price", entryPrice),
		)
	}
	metrics.PositionOpenedInc()
	metrics.SetOpenPositions(len(e.positions))
	e.broker.Send(events.NewPositionOpened(ctx, p))
	return id, nil
}

// compensate undoes the fund movements of a partially executed open. A nil
// fee means the fee transfer never happened.
func (e *Engine) compensate(ctx context.Context, party, id string, collateralAmount, fee *num.Uint) {
	if fee != nil && !fee.IsZero() {
		if err := e.collateral.Transfer(ctx, e.feeRecipient, party, fee); err != nil {
			e.log.Error("unable to refund trading fee",
				logging.String("party", party),
				logging.Error(err),
			)
		}
	}
	if err := e.collateral.UnlockCollateral(ctx, party, id, collateralAmount); err != nil {
		e.log.Error("unable to unlock collateral",
			logging.String("party", party),
			logging.Error(err),
		)
	}
}

// ClosePosition closes a party's position at the live mark price and returns
// the gross P&L, before the closing fee. The payout actually released to the
// trader is net of the fee and clamped at zero on total loss.
func (e *Engine) ClosePosition(ctx context.Context, party, positionID string) (num.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[positionID]
	if !ok {
		return num.DecimalZero(), ErrPositionNotFound
	}
	if p.Trader != party {
		return num.DecimalZero(), ErrNotPositionOwner
	}

	mark, fundingIndex, err := e.liveState()
	if err != nil {
		return num.DecimalZero(), err
	}
	pnl := positionPnL(p, mark, fundingIndex)

	if err := e.mm.ReverseUpdate(p.Size, p.Side); err != nil {
		return num.DecimalZero(), errors.Wrap(err, "reversing reserves")
	}

	closingFee := e.fees.TradeFee(p.Size)
	finalAmount := settlementAmount(p.Collateral, pnl, closingFee)

	// fee first, then the payout from the remaining lock, then write off
	// whatever locked collateral the loss consumed
	feePaid := num.Min(closingFee, p.Collateral).Clone()
	remaining := num.UintZero().Sub(p.Collateral, feePaid)
	fromLock := num.Min(finalAmount, remaining).Clone()
	var shortfall, residual *num.Uint
	if finalAmount.GT(fromLock) {
		shortfall = num.UintZero().Sub(finalAmount, fromLock)
	}
	if remaining.GT(fromLock) {
		residual = num.UintZero().Sub(remaining, fromLock)
	}

	// the insurance draw is the one settlement leg that can run out of
	// funds, so it settles before the position's own collateral moves.
	// any failure unwinds the legs already applied and restores the
	// reserve update, leaving the position open
	if shortfall != nil {
		if err := e.collateral.Transfer(ctx, e.insuranceRecipient, party, shortfall); err != nil {
			e.rollbackClose(ctx, p, nil, nil, nil)
			return num.DecimalZero(), errors.Wrap(err, "drawing payout shortfall from insurance")
		}
	}
	if !feePaid.IsZero() {
		if err := e.collateral.TransferLocked(ctx, party, positionID, e.feeRecipient, feePaid); err != nil {
			e.rollbackClose(ctx, p, shortfall, nil, nil)
			return num.DecimalZero(), errors.Wrap(err, "collecting closing fee")
		}
	}
	if !fromLock.IsZero() {
		if err := e.collateral.UnlockCollateral(ctx, party, positionID, fromLock); err != nil {
			e.rollbackClose(ctx, p, shortfall, feePaid, nil)
			return num.DecimalZero(), errors.Wrap(err, "releasing settlement from locked collateral")
		}
	}
	if residual != nil {
		if err := e.collateral.WriteOff(ctx, party, positionID, residual); err != nil {
			e.rollbackClose(ctx, p, shortfall, feePaid, fromLock)
			return num.DecimalZero(), errors.Wrap(err, "writing off loss residual")
		}
	}

	e.erase(p)

	metrics.PositionClosedInc()
	metrics.SetOpenPositions(len(e.positions))
	e.broker.Send(events.NewPositionClosed(ctx, positionID, party, pnl, finalAmount, closingFee))
	return pnl, nil
}

// settlementAmount computes the net amount owed to the trader on close:
// collateral plus P&L minus the closing fee, clamped at zero.
func settlementAmount(collateral *num.Uint, pnl num.Decimal, closingFee *num.Uint) *num.Uint {
	equity := num.DecimalFromUint(collateral).
		Add(pnl).
		Sub(num.DecimalFromUint(closingFee))
	if !equity.IsPositive() {
		return num.UintZero()
	}
	amount, _ := num.UintFromDecimal(equity.Floor())
	return amount
}

// rollbackClose undoes the settlement legs a failed close already applied
// and restores the reserve update, leaving the position open. Nil legs
// never ran. Failures here are logged, there is no further recourse.
func (e *Engine) rollbackClose(ctx context.Context, p *types.Position, shortfall, feePaid, fromLock *num.Uint) {
	if fromLock != nil && !fromLock.IsZero() {
		if err := e.collateral.LockCollateral(ctx, p.Trader, p.ID, fromLock); err != nil {
			e.log.Error("unable to relock released settlement",
				logging.String("position-id", p.ID),
				logging.Error(err),
			)
		}
	}
	if feePaid != nil && !feePaid.IsZero() {
		if err := e.collateral.Transfer(ctx, e.feeRecipient, p.Trader, feePaid); err != nil {
			e.log.Error("unable to refund closing fee",
				logging.String("position-id", p.ID),
				logging.Error(err),
			)
		} else if err := e.collateral.LockCollateral(ctx, p.Trader, p.ID, feePaid); err != nil {
			e.log.Error("unable to relock refunded closing fee",
				logging.String("position-id", p.ID),
				logging.Error(err),
			)
		}
	}
	if shortfall != nil && !shortfall.IsZero() {
		if err := e.collateral.Transfer(ctx, p.Trader, e.insuranceRecipient, shortfall); err != nil {
			e.log.Error("unable to return insurance draw",
				logging.String("position-id", p.ID),
				logging.Error(err),
			)
		}
	}
	e.restoreReserves(p)
}

// restoreReserves re-applies the directional pressure a failed close or
// liquidation had reversed.
func (e *Engine) restoreReserves(p *types.Position) {
	if err := e.mm.UpdateReserves(p.Size, p.Side); err != nil {
		e.log.Error("unable to restore reserves",
			logging.String("position-id", p.ID),
			logging.Error(err),
		)
	}
}

// AddMargin locks additional collateral into an open position and refreshes
// the cached liquidation price.
func (e *Engine) AddMargin(ctx context.Context, party, positionID string, amount *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[positionID]
	if !ok {
		return ErrPositionNotFound
	}
	if p.Trader != party {
		return ErrNotPositionOwner
	}
	if amount == nil || amount.IsZero() {
		return ErrInvalidMarginAmount
	}

	if err := e.collateral.LockCollateral(ctx, party, positionID, amount); err != nil {
		return err
	}
	p.Collateral.AddSum(amount)
	p.LiquidationPrice = e.refreshLiquidationPrice(p)

	e.broker.Send(events.NewMarginUpdated(ctx, positionID, party, p.Collateral.Clone(), p.LiquidationPrice.Clone()))
	return nil
}

// RemoveMargin releases part of a position's collateral back to the trader.
// The removal is checked provisionally first and rejected outright if the
// reduced position would fall below maintenance margin, the full collateral
// can never be withdrawn through this path.
func (e *Engine) RemoveMargin(ctx context.Context, party, positionID string, amount *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[positionID]
	if !ok {
		return ErrPositionNotFound
	}
	if p.Trader != party {
		return ErrNotPositionOwner
	}
	if amount == nil || amount.IsZero() || amount.GTE(p.Collateral) {
		return ErrInvalidMarginAmount
	}

	mark, fundingIndex, err := e.liveState()
	if err != nil {
		return err
	}
	trial := p.Clone()
	trial.Collateral.Sub(trial.Collateral, amount)
	if healthRatio(trial, mark, fundingIndex) < e.params.maintenanceMarginBps {
		return ErrMarginRemovalUnsafe
	}

	if err := e.collateral.UnlockCollateral(ctx, party, positionID, amount); err != nil {
		return err
	}
	p.Collateral.Sub(p.Collateral, amount)
	p.LiquidationPrice = e.refreshLiquidationPrice(p)

	e.broker.Send(events.NewMarginUpdated(ctx, positionID, party, p.Collateral.Clone(), p.LiquidationPrice.Clone()))
	return nil
}

// LiquidatePosition forcibly closes an unhealthy position. The remaining
// collateral is forfeited in full, split between the liquidator's reward and
// the insurance account. Only registered liquidators may call this.
func (e *Engine) LiquidatePosition(ctx context.Context, liquidator, positionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.liquidators[liquidator]; !ok {
		return ErrNotLiquidator
	}
	p, ok := e.positions[positionID]
	if !ok {
		return ErrPositionNotFound
	}

	mark, fundingIndex, err := e.liveState()
	if err != nil {
		return err
	}
	if healthRatio(p, mark, fundingIndex) >= e.params.maintenanceMarginBps {
		return ErrPositionHealthy
	}

	if err := e.mm.ReverseUpdate(p.Size, p.Side); err != nil {
		return errors.Wrap(err, "reversing reserves")
	}

	reward, remaining := e.fees.LiquidationSplit(p.Collateral)
	if !reward.IsZero() {
		if err := e.collateral.TransferLocked(ctx, p.Trader, positionID, liquidator, reward); err != nil {
			e.restoreReserves(p)
			return errors.Wrap(err, "paying liquidation reward")
		}
	}
	if !remaining.IsZero() {
		if err := e.collateral.TransferLocked(ctx, p.Trader, positionID, e.insuranceRecipient, remaining); err != nil {
			if !reward.IsZero() {
				if rerr := e.collateral.Transfer(ctx, liquidator, p.Trader, reward); rerr != nil {
					e.log.Error("unable to reclaim liquidation reward", logging.Error(rerr))
				} else if rerr := e.collateral.LockCollateral(ctx, p.Trader, positionID, reward); rerr != nil {
					e.log.Error("unable to relock reclaimed reward", logging.Error(rerr))
				}
			}
			e.restoreReserves(p)
			return errors.Wrap(err, "forwarding forfeited collateral")
		}
	}

	trader := p.Trader
	e.erase(p)

	e.log.Warn("position liquidated",
		logging.String("position-id", positionID),
		logging.String("trader", trader),
		logging.String("liquidator", liquidator),
	)
	metrics.PositionLiquidatedInc()
	metrics.SetOpenPositions(len(e.positions))
	e.broker.Send(events.NewPositionLiquidated(ctx, positionID, trader, liquidator, reward, remaining))
	return nil
}

// refreshLiquidationPrice recomputes the cached liquidation price after a
// margin change, lowering the effective leverage as collateral grows.
func (e *Engine) refreshLiquidationPrice(p *types.Position) *num.Uint {
	// effective leverage = size * precision / collateral
	lev := num.UintZero().Mul(p.Size, types.Precision())
	lev.Div(lev, p.Collateral)
	if lev.IsZero() {
		lev = minLeverage.Clone()
	}
	return liquidationPrice(p.EntryPrice, lev, p.Side, e.params.maintenanceMarginBps)
}

// insert registers a freshly minted position in all indexes.
func (e *Engine) insert(p *types.Position) {
	e.positions[p.ID] = p
	e.traderOrder[p.Trader] = append(e.traderOrder[p.Trader], p.ID)
	if e.traderMembership[p.Trader] == nil {
		e.traderMembership[p.Trader] = map[string]struct{}{}
	}
	e.traderMembership[p.Trader][p.ID] = struct{}{}
	e.globalCounter++
	e.nonces[p.Trader]++
}

// erase removes a position from all indexes. Closed and liquidated positions
// leave no trace beyond the event history.
func (e *Engine) erase(p *types.Position) {
	delete(e.positions, p.ID)
	delete(e.traderMembership[p.Trader], p.ID)
	if len(e.traderMembership[p.Trader]) == 0 {
		delete(e.traderMembership, p.Trader)
	}
	ids := e.traderOrder[p.Trader]
	for i, id := range ids {
		if id == p.ID {
			e.traderOrder[p.Trader] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(e.traderOrder[p.Trader]) == 0 {
		delete(e.traderOrder, p.Trader)
	}
}
