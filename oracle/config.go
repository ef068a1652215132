package oracle

import (
	"time"

	"github.com/inflaxprotocol/inflax/config/encoding"
	"github.com/inflaxprotocol/inflax/logging"
)

const namedLogger = "oracle"

// Config represents the configuration of the index oracle.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// MaxAge is how old feed data may be before it is considered stale.
	MaxAge encoding.Duration `long:"max-age"`
	// MaxDeviationBps bounds the move of the index between two successive
	// accepted observations, in basis points.
	MaxDeviationBps uint64 `long:"max-deviation-bps"`
	// HistoryRetention is how long accepted observations are retained for
	// time-weighted averages.
	HistoryRetention encoding.Duration `long:"history-retention"`
	// BasePrice is the index value, in natural units, at the reference CPI
	// and yield readings.
	BasePrice float64 `long:"base-price"`
	// BaseCPI is the reference CPI reading the index is normalised
	// against.
	BaseCPI float64 `long:"base-cpi"`
	// BaseYield is the reference treasury yield.
	BaseYield float64 `long:"base-yield"`
	// YieldWeight tilts the index by the yield premium over the reference.
	YieldWeight float64 `long:"yield-weight"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:            encoding.LogLevel{Level: logging.InfoLevel},
		MaxAge:           encoding.Duration{Duration: time.Hour},
		MaxDeviationBps:  500,
		HistoryRetention: encoding.Duration{Duration: 24 * time.Hour},
		BasePrice:        2000,
		BaseCPI:          100,
		BaseYield:        0.04,
		YieldWeight:      0.5,
	}
}
