package oracle

import (
	"sync"
	"time"

	"github.com/inflaxprotocol/inflax/types/num"
)

// StaticSource is a DataSource backed by an in-memory value, refreshed by
// whoever owns it. Used for wiring and testing.
type StaticSource struct {
	mu  sync.Mutex
	val num.Decimal
	ts  time.Time
}

// NewStaticSource creates a static source with an initial reading.
func NewStaticSource(val num.Decimal, ts time.Time) *StaticSource {
	return &StaticSource{val: val, ts: ts}
}

// SetValue replaces the reading.
func (s *StaticSource) SetValue(val num.Decimal, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val, s.ts = val, ts
}

// Value implements DataSource.
func (s *StaticSource) Value() (num.Decimal, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val, s.ts, nil
}
