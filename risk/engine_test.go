package risk_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inflaxprotocol/inflax/amm"
	"github.com/inflaxprotocol/inflax/fee"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/risk"
	"github.com/inflaxprotocol/inflax/risk/mocks"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

const (
	trader     = "trader-1"
	liquidator = "liquidator-1"
	feePool    = "fee-pool"
	insurance  = "insurance-pool"
)

var t0 = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type testEngine struct {
	*risk.Engine
	ctrl    *gomock.Controller
	vault   *mocks.MockCollateral
	mm      *mocks.MockMarketMaker
	funding *mocks.MockFundingEngine
	broker  *mocks.MockBroker
	timeSvc *mocks.MockTimeService
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	vault := mocks.NewMockCollateral(ctrl)
	mm := mocks.NewMockMarketMaker(ctrl)
	fund := mocks.NewMockFundingEngine(ctrl)
	broker := mocks.NewMockBroker(ctrl)
	timeSvc := mocks.NewMockTimeService(ctrl)

	timeSvc.EXPECT().Now().AnyTimes().Return(t0)
	broker.EXPECT().Send(gomock.Any()).AnyTimes()

	fees, err := fee.New(logging.NewTestLogger(), fee.NewDefaultConfig())
	require.NoError(t, err)

	e := risk.New(logging.NewTestLogger(), risk.NewDefaultConfig(), vault, mm, fund, fees, broker, timeSvc)
	return &testEngine{
		Engine:  e,
		ctrl:    ctrl,
		vault:   vault,
		mm:      mm,
		funding: fund,
		broker:  broker,
		timeSvc: timeSvc,
	}
}

// expectOpen wires the collaborator calls a successful open performs: mark
// price read, trade preview, collateral lock, fee transfer, reserve update
// and funding snapshot.
func (te *testEngine) expectOpen(party string, side types.Side, collateral, size uint64, fee *num.Uint, mark uint64, entryIndex num.Decimal) {
	te.mm.EXPECT().MarkPrice().Times(1).Return(types.Scale(mark), nil)
	te.mm.EXPECT().PreviewTrade(types.Scale(size), side).Times(1).Return(&amm.Quote{}, nil)
	te.vault.EXPECT().LockCollateral(gomock.Any(), party, gomock.Any(), types.Scale(collateral)).Times(1).Return(nil)
	te.vault.EXPECT().Transfer(gomock.Any(), party, feePool, fee).Times(1).Return(nil)
	te.mm.EXPECT().UpdateReserves(types.Scale(size), side).Times(1).Return(nil)
	te.funding.EXPECT().PreviewIndices(gomock.Any()).Times(1).Return(entryIndex, entryIndex.Neg())
}

// expectState wires a single read of the live mark price and funding index.
func (te *testEngine) expectState(mark uint64, fundingIndex num.Decimal) {
	te.mm.EXPECT().MarkPrice().Times(1).Return(types.Scale(mark), nil)
	te.funding.EXPECT().PreviewIndices(gomock.Any()).Times(1).Return(fundingIndex, fundingIndex.Neg())
}

func (te *testEngine) openLong(t *testing.T) string {
	t.Helper()
	te.expectOpen(trader, types.SideLong, 1000, 5000, types.Scale(5), 2000, num.DecimalZero())
	id, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	require.NoError(t, err)
	return id
}

func TestOpenPosition(t *testing.T) {
	t.Run("open mints a position with the pre-trade mark as entry", testOpenPosition)
	t.Run("collateral below the minimum is rejected", testOpenMinCollateral)
	t.Run("leverage outside the allowed range is rejected", testOpenLeverageBounds)
	t.Run("opening while paused is rejected", testOpenPaused)
	t.Run("slippage bounds are checked against the pre-trade mark", testOpenSlippage)
	t.Run("per-trader position ceiling is enforced", testOpenPositionCeiling)
	t.Run("notional ceiling is enforced", testOpenNotionalCeiling)
	t.Run("failed reserve update is fully compensated", testOpenCompensation)
}

func TestClosePosition(t *testing.T) {
	t.Run("profitable close pays out collateral plus pnl minus fee", testCloseProfit)
	t.Run("losing short close deducts loss and fee", testCloseShortLoss)
	t.Run("total loss pays the fee and forfeits everything", testCloseTotalLoss)
	t.Run("failed insurance draw aborts the close and restores state", testCloseInsuranceShortfallFails)
	t.Run("failed fee leg refunds the insurance draw", testCloseFeeLegFails)
	t.Run("closing an unknown position fails", testCloseNotFound)
	t.Run("closing twice fails the second time", testCloseTwice)
	t.Run("only the owner may close", testCloseNotOwner)
	t.Run("open then immediate close nets to zero pnl", testOpenCloseRoundTrip)
}

func TestMargin(t *testing.T) {
	t.Run("adding margin grows collateral and lowers the liquidation price", testAddMargin)
	t.Run("removing margin within safety succeeds", testRemoveMargin)
	t.Run("unsafe removal is rejected and leaves state untouched", testRemoveMarginUnsafe)
	t.Run("removing the full collateral is rejected", testRemoveFullCollateral)
}

func TestLiquidation(t *testing.T) {
	t.Run("unhealthy position is liquidated and collateral split", testLiquidate)
	t.Run("failed collateral transfer aborts the liquidation", testLiquidatePayoutFails)
	t.Run("healthy position cannot be liquidated", testLiquidateHealthy)
	t.Run("unregistered liquidator is rejected", testLiquidateUnauthorized)
}

func TestHealthAndPnL(t *testing.T) {
	t.Run("health at the liquidation price equals maintenance margin", testHealthAtLiquidationPrice)
	t.Run("bankrupt position reports zero health", testHealthBankrupt)
	t.Run("health reads are deterministic", testHealthDeterminism)
	t.Run("funding delta below entry is floored at zero", testFundingFloor)
	t.Run("long and short funding pnl mirror each other", testFundingSymmetry)
}

func testOpenPosition(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	id := te.openLong(t)
	require.NotEmpty(t, id)

	p, err := te.Position(id)
	require.NoError(t, err)
	assert.Equal(t, trader, p.Trader)
	assert.Equal(t, types.SideLong, p.Side)
	assert.True(t, types.Scale(5000).EQ(p.Size))
	assert.True(t, types.Scale(1000).EQ(p.Collateral))
	assert.True(t, types.Scale(2000).EQ(p.EntryPrice))
	assert.True(t, types.Scale(1620).EQ(p.LiquidationPrice))
	assert.Equal(t, 1, te.OpenPositionCount())
}

func testOpenMinCollateral(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	_, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(99), types.Scale(5), nil, nil)
	assert.ErrorIs(t, err, risk.ErrInvalidCollateralAmount)

	// the exact minimum is accepted
	te.expectOpen(trader, types.SideLong, 100, 1000, types.Scale(1), 2000, num.DecimalZero())
	_, err = te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(100), types.Scale(10), nil, nil)
	assert.NoError(t, err)
}

func testOpenLeverageBounds(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	_, err := te.OpenPosition(ctx, trader, types.SideLong, types.Scale(1000), num.UintZero(), nil, nil)
	assert.ErrorIs(t, err, risk.ErrInvalidLeverage)

	_, err = te.OpenPosition(ctx, trader, types.SideLong, types.Scale(1000), types.Scale(11), nil, nil)
	assert.ErrorIs(t, err, risk.ErrInvalidLeverage)

	// the configured ceiling itself is accepted
	te.expectOpen(trader, types.SideLong, 1000, 10000, types.Scale(10), 2000, num.DecimalZero())
	_, err = te.OpenPosition(ctx, trader, types.SideLong, types.Scale(1000), types.Scale(10), nil, nil)
	assert.NoError(t, err)
}

func testOpenPaused(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	te.Pause()
	_, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	assert.ErrorIs(t, err, risk.ErrEnginePaused)

	te.Unpause()
	te.openLong(t)
}

func testOpenSlippage(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	// a long entering above its max price is rejected
	te.mm.EXPECT().MarkPrice().Times(1).Return(types.Scale(2000), nil)
	_, err := te.OpenPosition(ctx, trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, types.Scale(1990))
	assert.ErrorIs(t, err, risk.ErrSlippageExceeded)

	// a short entering below its min price is rejected
	te.mm.EXPECT().MarkPrice().Times(1).Return(types.Scale(2000), nil)
	_, err = te.OpenPosition(ctx, trader, types.SideShort, types.Scale(1000), types.Scale(5), types.Scale(2010), nil)
	assert.ErrorIs(t, err, risk.ErrSlippageExceeded)

	assert.Equal(t, 0, te.OpenPositionCount())
}

func testOpenPositionCeiling(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	te.OnMaxPositionsPerTraderUpdate(1)
	te.openLong(t)

	_, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	assert.ErrorIs(t, err, risk.ErrTooManyPositions)
}

func testOpenNotionalCeiling(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	te.OnMaxPositionNotionalUpdate(types.Scale(4000))
	_, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	assert.ErrorIs(t, err, risk.ErrNotionalTooLarge)
}

func testOpenCompensation(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	downstream := errors.New("reserves exhausted")
	te.mm.EXPECT().MarkPrice().Times(1).Return(types.Scale(2000), nil)
	te.mm.EXPECT().PreviewTrade(types.Scale(5000), types.SideLong).Times(1).Return(&amm.Quote{}, nil)
	te.vault.EXPECT().LockCollateral(gomock.Any(), trader, gomock.Any(), types.Scale(1000)).Times(1).Return(nil)
	te.vault.EXPECT().Transfer(gomock.Any(), trader, feePool, types.Scale(5)).Times(1).Return(nil)
	te.mm.EXPECT().UpdateReserves(types.Scale(5000), types.SideLong).Times(1).Return(downstream)

	// the fee is refunded and the collateral unlocked
	te.vault.EXPECT().Transfer(gomock.Any(), feePool, trader, types.Scale(5)).Times(1).Return(nil)
	te.vault.EXPECT().UnlockCollateral(gomock.Any(), trader, gomock.Any(), types.Scale(1000)).Times(1).Return(nil)

	_, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	assert.ErrorIs(t, err, downstream)
	assert.Equal(t, 0, te.OpenPositionCount())
}

func testCloseProfit(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	// mark rises 10%, pnl is +500 on a 5000 notional
	te.expectState(2200, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, feePool, types.Scale(5)).Times(1).Return(nil)
	te.vault.EXPECT().UnlockCollateral(gomock.Any(), trader, id, types.Scale(995)).Times(1).Return(nil)
	// the profit above the remaining lock is paid from insurance
	te.vault.EXPECT().Transfer(gomock.Any(), insurance, trader, types.Scale(500)).Times(1).Return(nil)

	pnl, err := te.ClosePosition(context.Background(), trader, id)
	require.NoError(t, err)
	assert.True(t, pnl.Equal(num.DecimalFromUint(types.Scale(500))))
	assert.Equal(t, 0, te.OpenPositionCount())
}

func testCloseShortLoss(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	te.expectOpen(trader, types.SideShort, 500, 1500, scaleTenths(15), 2000, num.DecimalZero())
	id, err := te.OpenPosition(context.Background(), trader, types.SideShort, types.Scale(500), types.Scale(3), nil, nil)
	require.NoError(t, err)

	// mark rises 5%, adverse for the short: pnl is -75 on a 1500 notional
	te.expectState(2100, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(1500), types.SideShort).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, feePool, scaleTenths(15)).Times(1).Return(nil)
	te.vault.EXPECT().UnlockCollateral(gomock.Any(), trader, id, scaleTenths(4235)).Times(1).Return(nil)
	te.vault.EXPECT().WriteOff(gomock.Any(), trader, id, types.Scale(75)).Times(1).Return(nil)

	pnl, err := te.ClosePosition(context.Background(), trader, id)
	require.NoError(t, err)
	assert.True(t, pnl.Equal(num.DecimalFromUint(types.Scale(75)).Neg()))
}

func testCloseTotalLoss(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	// mark drops 22%, the 1100 loss exceeds the 1000 collateral
	te.expectState(1560, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	// the closing fee is still collected before the total loss check
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, feePool, types.Scale(5)).Times(1).Return(nil)
	te.vault.EXPECT().WriteOff(gomock.Any(), trader, id, types.Scale(995)).Times(1).Return(nil)

	pnl, err := te.ClosePosition(context.Background(), trader, id)
	require.NoError(t, err)
	assert.True(t, pnl.Equal(num.DecimalFromUint(types.Scale(1100)).Neg()))
}

func testCloseInsuranceShortfallFails(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	// profitable close, the 500 above the lock comes from insurance
	downstream := errors.New("insurance pool empty")
	te.expectState(2200, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().Transfer(gomock.Any(), insurance, trader, types.Scale(500)).Times(1).Return(downstream)
	// the reserve update is restored, no collateral moved
	te.mm.EXPECT().UpdateReserves(types.Scale(5000), types.SideLong).Times(1).Return(nil)

	_, err := te.ClosePosition(context.Background(), trader, id)
	assert.ErrorIs(t, err, downstream)
	assert.Equal(t, 1, te.OpenPositionCount())

	p, perr := te.Position(id)
	require.NoError(t, perr)
	assert.True(t, p.Collateral.EQ(types.Scale(1000)))
}

func testCloseFeeLegFails(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	downstream := errors.New("vault rejected transfer")
	te.expectState(2200, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().Transfer(gomock.Any(), insurance, trader, types.Scale(500)).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, feePool, types.Scale(5)).Times(1).Return(downstream)
	// the insurance draw is returned and the reserve update restored
	te.vault.EXPECT().Transfer(gomock.Any(), trader, insurance, types.Scale(500)).Times(1).Return(nil)
	te.mm.EXPECT().UpdateReserves(types.Scale(5000), types.SideLong).Times(1).Return(nil)

	_, err := te.ClosePosition(context.Background(), trader, id)
	assert.ErrorIs(t, err, downstream)
	assert.Equal(t, 1, te.OpenPositionCount())
}

func testCloseNotFound(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	_, err := te.ClosePosition(context.Background(), trader, "no-such-position")
	assert.ErrorIs(t, err, risk.ErrPositionNotFound)
}

func testCloseTwice(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	te.expectState(2000, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, feePool, types.Scale(5)).Times(1).Return(nil)
	te.vault.EXPECT().UnlockCollateral(gomock.Any(), trader, id, types.Scale(995)).Times(1).Return(nil)

	_, err := te.ClosePosition(context.Background(), trader, id)
	require.NoError(t, err)

	_, err = te.ClosePosition(context.Background(), trader, id)
	assert.ErrorIs(t, err, risk.ErrPositionNotFound)
}

func testCloseNotOwner(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	_, err := te.ClosePosition(context.Background(), "somebody-else", id)
	assert.ErrorIs(t, err, risk.ErrNotPositionOwner)
}

func testOpenCloseRoundTrip(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	// unchanged mark and funding index: pnl is exactly zero, the trader
	// gets the collateral back minus the closing fee
	te.expectState(2000, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, feePool, types.Scale(5)).Times(1).Return(nil)
	te.vault.EXPECT().UnlockCollateral(gomock.Any(), trader, id, types.Scale(995)).Times(1).Return(nil)

	pnl, err := te.ClosePosition(context.Background(), trader, id)
	require.NoError(t, err)
	assert.True(t, pnl.IsZero())
}

func testAddMargin(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	before, err := te.Position(id)
	require.NoError(t, err)

	te.vault.EXPECT().LockCollateral(gomock.Any(), trader, id, types.Scale(500)).Times(1).Return(nil)
	require.NoError(t, te.AddMargin(context.Background(), trader, id, types.Scale(500)))

	after, err := te.Position(id)
	require.NoError(t, err)
	assert.True(t, types.Scale(1500).EQ(after.Collateral))
	// more collateral means a lower effective leverage and a liquidation
	// price further from the entry
	assert.True(t, after.LiquidationPrice.LT(before.LiquidationPrice))
	// size never drifts on margin changes
	assert.True(t, before.Size.EQ(after.Size))
}

func testRemoveMargin(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	te.expectOpen(trader, types.SideLong, 1000, 2000, types.Scale(2), 2000, num.DecimalZero())
	id, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(2), nil, nil)
	require.NoError(t, err)

	te.expectState(2000, num.DecimalZero())
	te.vault.EXPECT().UnlockCollateral(gomock.Any(), trader, id, types.Scale(400)).Times(1).Return(nil)
	require.NoError(t, te.RemoveMargin(context.Background(), trader, id, types.Scale(400)))

	p, err := te.Position(id)
	require.NoError(t, err)
	assert.True(t, types.Scale(600).EQ(p.Collateral))
}

func testRemoveMarginUnsafe(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	before, err := te.Position(id)
	require.NoError(t, err)

	// at mark 1650 the position has lost 875 of its 1000 collateral,
	// removing 900 more would leave it bankrupt
	te.expectState(1650, num.DecimalZero())
	err = te.RemoveMargin(context.Background(), trader, id, types.Scale(900))
	assert.ErrorIs(t, err, risk.ErrMarginRemovalUnsafe)

	after, err := te.Position(id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func testRemoveFullCollateral(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	err := te.RemoveMargin(context.Background(), trader, id, types.Scale(1000))
	assert.ErrorIs(t, err, risk.ErrInvalidMarginAmount)

	err = te.RemoveMargin(context.Background(), trader, id, num.UintZero())
	assert.ErrorIs(t, err, risk.ErrInvalidMarginAmount)
}

func testLiquidate(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)
	te.RegisterLiquidator(liquidator)

	// at mark 1500 equity is negative, health is zero
	te.expectState(1500, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, liquidator, types.Scale(50)).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, insurance, types.Scale(950)).Times(1).Return(nil)

	require.NoError(t, te.LiquidatePosition(context.Background(), liquidator, id))
	assert.Equal(t, 0, te.OpenPositionCount())

	_, err := te.Position(id)
	assert.ErrorIs(t, err, risk.ErrPositionNotFound)
}

func testLiquidatePayoutFails(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)
	te.RegisterLiquidator(liquidator)

	downstream := errors.New("vault rejected transfer")
	te.expectState(1500, num.DecimalZero())
	te.mm.EXPECT().ReverseUpdate(types.Scale(5000), types.SideLong).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, liquidator, types.Scale(50)).Times(1).Return(nil)
	te.vault.EXPECT().TransferLocked(gomock.Any(), trader, id, insurance, types.Scale(950)).Times(1).Return(downstream)
	// the reward already paid is reclaimed and relocked, reserves restored
	te.vault.EXPECT().Transfer(gomock.Any(), liquidator, trader, types.Scale(50)).Times(1).Return(nil)
	te.vault.EXPECT().LockCollateral(gomock.Any(), trader, id, types.Scale(50)).Times(1).Return(nil)
	te.mm.EXPECT().UpdateReserves(types.Scale(5000), types.SideLong).Times(1).Return(nil)

	err := te.LiquidatePosition(context.Background(), liquidator, id)
	assert.ErrorIs(t, err, downstream)
	assert.Equal(t, 1, te.OpenPositionCount())
}

func testLiquidateHealthy(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)
	te.RegisterLiquidator(liquidator)

	te.expectState(2000, num.DecimalZero())
	err := te.LiquidatePosition(context.Background(), liquidator, id)
	assert.ErrorIs(t, err, risk.ErrPositionHealthy)
	assert.Equal(t, 1, te.OpenPositionCount())
}

func testLiquidateUnauthorized(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	err := te.LiquidatePosition(context.Background(), trader, id)
	assert.ErrorIs(t, err, risk.ErrNotLiquidator)
}

func testHealthAtLiquidationPrice(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	// at the cached liquidation price of 1620 the health sits exactly on
	// the 500 bp maintenance margin
	te.expectState(1620, num.DecimalZero())
	h, err := te.HealthRatio(id)
	require.NoError(t, err)
	assert.EqualValues(t, 500, h)
}

func testHealthBankrupt(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	te.expectState(1500, num.DecimalZero())
	h, err := te.HealthRatio(id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, h)
}

func testHealthDeterminism(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	id := te.openLong(t)

	te.expectState(1900, num.DecimalZero())
	h1, err := te.HealthRatio(id)
	require.NoError(t, err)

	te.expectState(1900, num.DecimalZero())
	h2, err := te.HealthRatio(id)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func testFundingFloor(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()

	// the position enters at a cumulative index of 0.005
	entryIndex := num.MustDecimalFromString("0.005")
	te.expectOpen(trader, types.SideLong, 1000, 5000, types.Scale(5), 2000, entryIndex)
	id, err := te.OpenPosition(context.Background(), trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	require.NoError(t, err)

	// the index has gone backwards since entry, the funding delta floors
	// at zero rather than crediting the long
	te.expectState(2000, num.DecimalZero())
	pnl, err := te.PositionPnL(id)
	require.NoError(t, err)
	assert.True(t, pnl.IsZero())
}

func testFundingSymmetry(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	te.expectOpen(trader, types.SideLong, 1000, 5000, types.Scale(5), 2000, num.DecimalZero())
	longID, err := te.OpenPosition(ctx, trader, types.SideLong, types.Scale(1000), types.Scale(5), nil, nil)
	require.NoError(t, err)

	te.expectOpen(trader, types.SideShort, 1000, 5000, types.Scale(5), 2000, num.DecimalZero())
	shortID, err := te.OpenPosition(ctx, trader, types.SideShort, types.Scale(1000), types.Scale(5), nil, nil)
	require.NoError(t, err)

	// one full interval at a 0.75% rate accrued, mark unchanged: the two
	// funding legs are exact mirror images, size times rate
	rate := num.MustDecimalFromString("0.0075")
	te.expectState(2000, rate)
	longPnL, err := te.PositionPnL(longID)
	require.NoError(t, err)

	te.expectState(2000, rate)
	shortPnL, err := te.PositionPnL(shortID)
	require.NoError(t, err)

	expected := rate.Mul(num.DecimalFromUint(types.Scale(5000)))
	assert.True(t, longPnL.Equal(expected.Neg()))
	assert.True(t, shortPnL.Equal(expected))
	assert.True(t, longPnL.Equal(shortPnL.Neg()))
}

// scaleTenths builds a fixed point value from tenths of a unit, for amounts
// like 1.5 that Scale cannot express.
func scaleTenths(v uint64) *num.Uint {
	u := num.UintZero().Mul(num.NewUint(v), types.Precision())
	return u.Div(u, num.NewUint(10))
}
