package funding

import (
	"time"

	"github.com/inflaxprotocol/inflax/config/encoding"
	"github.com/inflaxprotocol/inflax/logging"
)

const namedLogger = "funding"

// Config represents the configuration of the funding rate engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// FundingInterval is the minimum time between rate updates, and the
	// period one full funding rate accrues over.
	FundingInterval encoding.Duration `long:"funding-interval"`
	// Coefficient scales the mark/index premium into a funding rate.
	Coefficient float64 `long:"coefficient"`
	// MaxRate caps the funding rate on the upside.
	MaxRate float64 `long:"max-rate"`
	// MinRate caps the funding rate magnitude on the downside.
	MinRate float64 `long:"min-rate"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		FundingInterval: encoding.Duration{Duration: 8 * time.Hour},
		Coefficient:     0.125,
		MaxRate:         0.0075,
		MinRate:         0.0075,
	}
}
