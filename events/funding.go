package events

import (
	"context"

	"github.com/inflaxprotocol/inflax/types/num"
)

// FundingUpdate is emitted every time the funding rate is recomputed.
type FundingUpdate struct {
	*Base
	rate       num.Decimal
	longIndex  num.Decimal
	shortIndex num.Decimal
	ts         int64
}

func NewFundingUpdate(ctx context.Context, rate, longIndex, shortIndex num.Decimal, ts int64) *FundingUpdate {
	return &FundingUpdate{
		Base:       newBase(ctx, FundingUpdateEvent),
		rate:       rate,
		longIndex:  longIndex,
		shortIndex: shortIndex,
		ts:         ts,
	}
}

// Rate returns the newly committed funding rate.
func (e FundingUpdate) Rate() num.Decimal {
	return e.rate
}

// LongIndex returns the cumulative long funding index after accrual.
func (e FundingUpdate) LongIndex() num.Decimal {
	return e.longIndex
}

// ShortIndex returns the cumulative short funding index after accrual.
func (e FundingUpdate) ShortIndex() num.Decimal {
	return e.shortIndex
}

// Timestamp returns the update time in unix nanoseconds.
func (e FundingUpdate) Timestamp() int64 {
	return e.ts
}
