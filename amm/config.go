package amm

import (
	"github.com/inflaxprotocol/inflax/config/encoding"
	"github.com/inflaxprotocol/inflax/logging"
)

const namedLogger = "amm"

// Config represents the configuration of the virtual market maker.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// MaxPriceImpactBps caps the mark price move a single trade may cause,
	// in basis points of the pre-trade mark price.
	MaxPriceImpactBps uint64 `long:"max-price-impact-bps"`
	// InitialBaseReserve seeds the virtual base reserve, in natural units.
	InitialBaseReserve uint64 `long:"initial-base-reserve"`
	// InitialQuoteReserve seeds the virtual quote reserve, in natural
	// units.
	InitialQuoteReserve uint64 `long:"initial-quote-reserve"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:               encoding.LogLevel{Level: logging.InfoLevel},
		MaxPriceImpactBps:   1000,
		InitialBaseReserve:  1000,
		InitialQuoteReserve: 2_000_000,
	}
}
