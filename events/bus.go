package events

import (
	"context"
	"fmt"
	"time"

	"github.com/inflaxprotocol/inflax/crypto"
)

// Type is the type of an event emitted on the bus.
type Type int

const (
	// All is used by subscribers to receive every event, it has no
	// corresponding event payload.
	All Type = iota
	// PositionOpenedEvent is emitted when a new position is minted.
	PositionOpenedEvent
	// PositionClosedEvent is emitted on trader-initiated settlement.
	PositionClosedEvent
	// PositionLiquidatedEvent is emitted on forced settlement.
	PositionLiquidatedEvent
	// MarginUpdatedEvent is emitted when collateral is added to or removed
	// from an open position.
	MarginUpdatedEvent
	// FundingUpdateEvent is emitted when the funding rate is recomputed.
	FundingUpdateEvent
	// AccountEvent is emitted when a collateral account balance changes.
	AccountEvent
)

var eventStrings = map[Type]string{
	All:                     "ALL",
	PositionOpenedEvent:     "PositionOpened",
	PositionClosedEvent:     "PositionClosed",
	PositionLiquidatedEvent: "PositionLiquidated",
	MarginUpdatedEvent:      "MarginUpdated",
	FundingUpdateEvent:      "FundingUpdate",
	AccountEvent:            "Account",
}

func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
	return s
}

// Event is the common denominator all bus events share.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
}

type traceIDKey struct{}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFromContext(ctx context.Context) (context.Context, string) {
	if tID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return ctx, tID
	}
	tID := crypto.HashToHex([]byte(time.Now().String()))
	return WithTraceID(ctx, tID), tID
}

// Base common fields for all events, a base event holds no payload so the
// constructor is never called directly.
type Base struct {
	ctx     context.Context
	traceID string
	et      Type
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := traceIDFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		et:      t,
	}
}

// TraceID returns the trace ID of the event.
func (b Base) TraceID() string {
	return b.traceID
}

// Context returns the context the event was emitted with.
func (b Base) Context() context.Context {
	return b.ctx
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}
