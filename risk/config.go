package risk

import (
	"github.com/inflaxprotocol/inflax/config/encoding"
	"github.com/inflaxprotocol/inflax/logging"
)

const namedLogger = "risk"

// Config represents the configuration of the position risk engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// FeeRecipient is the account credited with trading and closing fees.
	FeeRecipient string `long:"fee-recipient"`
	// InsuranceRecipient is the account capturing liquidated collateral
	// and funding profit payouts.
	InsuranceRecipient string `long:"insurance-recipient"`
	// MaxLeverage is the leverage ceiling, as a plain multiplier.
	MaxLeverage uint64 `long:"max-leverage"`
	// MaintenanceMarginBps is the health ratio floor under which a
	// position becomes liquidatable.
	MaintenanceMarginBps uint64 `long:"maintenance-margin-bps"`
	// MinCollateral is the minimum collateral on open, in natural units.
	MinCollateral uint64 `long:"min-collateral"`
	// MaxPositionsPerTrader caps open positions per party, 0 disables.
	MaxPositionsPerTrader uint64 `long:"max-positions-per-trader"`
	// MaxPositionNotional caps a single position's notional size in
	// natural units, 0 disables.
	MaxPositionNotional uint64 `long:"max-position-notional"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:                 encoding.LogLevel{Level: logging.InfoLevel},
		FeeRecipient:          "fee-pool",
		InsuranceRecipient:    "insurance-pool",
		MaxLeverage:           10,
		MaintenanceMarginBps:  500,
		MinCollateral:         100,
		MaxPositionsPerTrader: 0,
		MaxPositionNotional:   0,
	}
}
