package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/inflaxprotocol/inflax/amm"
	"github.com/inflaxprotocol/inflax/broker"
	"github.com/inflaxprotocol/inflax/collateral"
	"github.com/inflaxprotocol/inflax/fee"
	"github.com/inflaxprotocol/inflax/funding"
	"github.com/inflaxprotocol/inflax/metrics"
	"github.com/inflaxprotocol/inflax/oracle"
	"github.com/inflaxprotocol/inflax/risk"
)

const configFileName = "config.toml"

// Config ties together all other application configuration types.
type Config struct {
	AMM        amm.Config        `group:"AMM" namespace:"amm"`
	Broker     broker.Config     `group:"Broker" namespace:"broker"`
	Collateral collateral.Config `group:"Collateral" namespace:"collateral"`
	Fee        fee.Config        `group:"Fee" namespace:"fee"`
	Funding    funding.Config    `group:"Funding" namespace:"funding"`
	Metrics    metrics.Config    `group:"Metrics" namespace:"metrics"`
	Oracle     oracle.Config     `group:"Oracle" namespace:"oracle"`
	Risk       risk.Config       `group:"Risk" namespace:"risk"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		AMM:        amm.NewDefaultConfig(),
		Broker:     broker.NewDefaultConfig(),
		Collateral: collateral.NewDefaultConfig(),
		Fee:        fee.NewDefaultConfig(),
		Funding:    funding.NewDefaultConfig(),
		Metrics:    metrics.NewDefaultConfig(),
		Oracle:     oracle.NewDefaultConfig(),
		Risk:       risk.NewDefaultConfig(),
	}
}

// Read loads the configuration from rootPath, layering the file's values
// over the defaults so a partial file is valid.
func Read(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, configFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write serialises the configuration into rootPath, creating the directory
// if needed.
func Write(rootPath string, cfg Config) error {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(rootPath, configFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
