package metrics

import "github.com/inflaxprotocol/inflax/config/encoding"

// Config represents the configuration of the metrics server.
type Config struct {
	Enabled encoding.Bool `long:"enabled"`
	Address string        `long:"address"`
	Path    string        `long:"path"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Enabled: true,
		Address: "localhost:2112",
		Path:    "/metrics",
	}
}
