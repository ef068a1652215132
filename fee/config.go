package fee

import (
	"github.com/inflaxprotocol/inflax/config/encoding"
	"github.com/inflaxprotocol/inflax/logging"
)

const namedLogger = "fee"

// Config represents the configuration of the fee engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// TradingFeeBps is charged on the notional size of every open and
	// close.
	TradingFeeBps uint64 `long:"trading-fee-bps"`
	// LiquidationFeeBps is the share of a liquidated position's collateral
	// paid to the liquidator.
	LiquidationFeeBps uint64 `long:"liquidation-fee-bps"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:             encoding.LogLevel{Level: logging.InfoLevel},
		TradingFeeBps:     10,
		LiquidationFeeBps: 500,
	}
}
