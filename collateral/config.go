package collateral

import (
	"github.com/inflaxprotocol/inflax/config/encoding"
	"github.com/inflaxprotocol/inflax/logging"
)

const namedLogger = "collateral"

// Config represents the configuration of the collateral engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// InitialInsuranceFund seeds the insurance pool's available balance
	// at startup, in natural units. Profitable closes draw their payout
	// shortfall from this account and fail when it runs dry.
	InitialInsuranceFund uint64 `long:"initial-insurance-fund"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		InitialInsuranceFund: 1_000_000,
	}
}
