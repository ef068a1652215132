package amm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inflaxprotocol/inflax/amm"
	"github.com/inflaxprotocol/inflax/logging"
	"github.com/inflaxprotocol/inflax/types"
	"github.com/inflaxprotocol/inflax/types/num"
)

func getTestEngine(t *testing.T) *amm.Engine {
	t.Helper()
	e, err := amm.New(
		logging.NewTestLogger(),
		amm.NewDefaultConfig(),
		types.Scale(1000),
		types.Scale(2_000_000),
	)
	require.NoError(t, err)
	return e
}

func TestEngineCreation(t *testing.T) {
	t.Run("zero reserves are rejected", testNewZeroReserves)
	t.Run("initial mark price is quote over base", testInitialMarkPrice)
}

func TestTrading(t *testing.T) {
	t.Run("preview does not mutate reserves", testPreviewIsReadOnly)
	t.Run("zero size trade is rejected", testZeroSizeTrade)
	t.Run("long pressure raises the mark price", testLongRaisesMark)
	t.Run("short pressure lowers the mark price", testShortLowersMark)
	t.Run("product invariant holds after update", testProductInvariant)
	t.Run("short exceeding quote reserve is rejected", testInsufficientLiquidity)
	t.Run("price impact cap rejects large trades", testPriceImpactCap)
	t.Run("reverse update restores the mark price", testReverseUpdate)
}

func TestOpenInterest(t *testing.T) {
	t.Run("trades net against the opposite side first", testOpenInterestNetting)
}

func TestRebalance(t *testing.T) {
	t.Run("rebalance replaces reserves and recomputes k", testRebalance)
	t.Run("rebalance rejects zero reserves", testRebalanceZero)
}

func testNewZeroReserves(t *testing.T) {
	log := logging.NewTestLogger()
	cfg := amm.NewDefaultConfig()

	_, err := amm.New(log, cfg, num.UintZero(), types.Scale(100))
	assert.ErrorIs(t, err, amm.ErrInvalidReserves)

	_, err = amm.New(log, cfg, types.Scale(100), num.UintZero())
	assert.ErrorIs(t, err, amm.ErrInvalidReserves)

	_, err = amm.New(log, cfg, nil, types.Scale(100))
	assert.ErrorIs(t, err, amm.ErrInvalidReserves)
}

func testInitialMarkPrice(t *testing.T) {
	e := getTestEngine(t)
	mark, err := e.MarkPrice()
	require.NoError(t, err)
	assert.True(t, types.Scale(2000).EQ(mark))
}

func testPreviewIsReadOnly(t *testing.T) {
	e := getTestEngine(t)
	baseBefore, quoteBefore := e.Reserves()

	q, err := e.PreviewTrade(types.Scale(5000), types.SideLong)
	require.NoError(t, err)
	assert.True(t, q.MarkPrice.GT(types.Scale(2000)))

	base, quote := e.Reserves()
	assert.True(t, baseBefore.EQ(base))
	assert.True(t, quoteBefore.EQ(quote))
}

func testZeroSizeTrade(t *testing.T) {
	e := getTestEngine(t)
	_, err := e.PreviewTrade(num.UintZero(), types.SideLong)
	assert.ErrorIs(t, err, amm.ErrInvalidTradeSize)
	_, err = e.PreviewTrade(nil, types.SideShort)
	assert.ErrorIs(t, err, amm.ErrInvalidTradeSize)
}

func testLongRaisesMark(t *testing.T) {
	e := getTestEngine(t)
	require.NoError(t, e.UpdateReserves(types.Scale(5000), types.SideLong))

	mark, err := e.MarkPrice()
	require.NoError(t, err)
	assert.True(t, mark.GT(types.Scale(2000)))
}

func testShortLowersMark(t *testing.T) {
	e := getTestEngine(t)
	require.NoError(t, e.UpdateReserves(types.Scale(5000), types.SideShort))

	mark, err := e.MarkPrice()
	require.NoError(t, err)
	assert.True(t, mark.LT(types.Scale(2000)))
}

func testProductInvariant(t *testing.T) {
	e := getTestEngine(t)
	require.NoError(t, e.UpdateReserves(types.Scale(5000), types.SideLong))

	base, quote := e.Reserves()
	product := num.UintZero().Mul(base, quote)
	k := e.K()

	// base is floored on division so the committed product may fall short
	// of k by strictly less than one quote unit
	assert.True(t, product.LTE(k))
	diff := num.UintZero().Sub(k, product)
	assert.True(t, diff.LT(quote))
}

func testInsufficientLiquidity(t *testing.T) {
	e := getTestEngine(t)
	err := e.UpdateReserves(types.Scale(2_000_000), types.SideShort)
	assert.ErrorIs(t, err, amm.ErrInsufficientLiquidity)

	err = e.UpdateReserves(types.Scale(3_000_000), types.SideShort)
	assert.ErrorIs(t, err, amm.ErrInsufficientLiquidity)
}

func testPriceImpactCap(t *testing.T) {
	e := getTestEngine(t)
	baseBefore, quoteBefore := e.Reserves()

	// a 10% shift of the quote reserve moves the mark by over 20%, far
	// beyond the default 10% cap
	err := e.UpdateReserves(types.Scale(200_000), types.SideLong)
	assert.ErrorIs(t, err, amm.ErrPriceImpactTooLarge)

	base, quote := e.Reserves()
	assert.True(t, baseBefore.EQ(base))
	assert.True(t, quoteBefore.EQ(quote))
}

func testReverseUpdate(t *testing.T) {
	e := getTestEngine(t)
	size := types.Scale(5000)
	require.NoError(t, e.UpdateReserves(size, types.SideLong))
	require.NoError(t, e.ReverseUpdate(size, types.SideLong))

	mark, err := e.MarkPrice()
	require.NoError(t, err)
	// quote reserve round-trips exactly, base may drift by at most one
	// unit of truncation which is invisible at this scale
	assert.True(t, types.Scale(2000).EQ(mark))
}

func testOpenInterestNetting(t *testing.T) {
	e := getTestEngine(t)

	require.NoError(t, e.UpdateReserves(types.Scale(5000), types.SideLong))
	long, short := e.OpenInterest()
	assert.True(t, types.Scale(5000).EQ(long))
	assert.True(t, short.IsZero())

	// sell pressure nets against standing long interest first
	require.NoError(t, e.UpdateReserves(types.Scale(2000), types.SideShort))
	long, short = e.OpenInterest()
	assert.True(t, types.Scale(3000).EQ(long))
	assert.True(t, short.IsZero())

	// and the excess opens short interest
	require.NoError(t, e.UpdateReserves(types.Scale(4000), types.SideShort))
	long, short = e.OpenInterest()
	assert.True(t, long.IsZero())
	assert.True(t, types.Scale(1000).EQ(short))
}

func testRebalance(t *testing.T) {
	e := getTestEngine(t)
	require.NoError(t, e.Rebalance(types.Scale(2000), types.Scale(5_000_000)))

	mark, err := e.MarkPrice()
	require.NoError(t, err)
	assert.True(t, types.Scale(2500).EQ(mark))

	expectedK := num.UintZero().Mul(types.Scale(2000), types.Scale(5_000_000))
	assert.True(t, expectedK.EQ(e.K()))
}

func testRebalanceZero(t *testing.T) {
	e := getTestEngine(t)
	err := e.Rebalance(num.UintZero(), types.Scale(100))
	assert.ErrorIs(t, err, amm.ErrInvalidReserves)
}
