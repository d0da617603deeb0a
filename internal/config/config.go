// Package config defines simulation configuration, loaded from a YAML file
// (default: configs/config.yaml) with overrides via HOLOSIM_* environment
// variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level simulation configuration. Maps directly to the
// YAML file structure.
type Config struct {
	World    WorldConfig    `mapstructure:"world"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Reserve  ReserveConfig  `mapstructure:"reserve"`
	Issuing  IssuingConfig  `mapstructure:"issuing"`
	Status   StatusConfig   `mapstructure:"status"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// WorldConfig drives the virtual clock. Realtime, if true, builds a
// world.Realtime (Quanta is ignored in that case) instead of a fixed-step
// world.World.
type WorldConfig struct {
	Start    float64 `mapstructure:"start"`
	Duration float64 `mapstructure:"duration"`
	Quanta   float64 `mapstructure:"quanta"`
	Realtime bool    `mapstructure:"realtime"`
	Scale    float64 `mapstructure:"scale"`
}

// ExchangeConfig names the currency every market settles in.
type ExchangeConfig struct {
	Name     string `mapstructure:"name"`
	Currency string `mapstructure:"currency"`
}

// ReserveConfig seeds a buy-back reserve's retirement ladder: Tranches maps
// a price (as a decimal string, e.g. "1.00") to the quantity retirable at
// that price.
type ReserveConfig struct {
	Security string           `mapstructure:"security"`
	Identity string           `mapstructure:"identity"`
	Tranches map[string]int64 `mapstructure:"tranches"`
}

// IssuingConfig tunes an IssuingReserve's capped supply stream.
type IssuingConfig struct {
	SupplyBookValue string  `mapstructure:"supply_book_value"`
	SupplyPremium   string  `mapstructure:"supply_premium"`
	SupplyPeriod    float64 `mapstructure:"supply_period"`
	SupplyAvailable int64   `mapstructure:"supply_available"`
}

// StatusConfig tunes the period status logger: the book is logged whenever
// floor(now/Period) changes, and once at the end of the run. The engine is
// always wrapped in the status logger; a zero Period does not disable it.
type StatusConfig struct {
	Period    float64 `mapstructure:"period"`
	BookWidth int     `mapstructure:"book_width"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides, applying
// defaults for anything the file and environment both leave unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("HOLOSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("world.duration", 86400.0)
	v.SetDefault("world.quanta", 60.0)
	v.SetDefault("world.scale", 1.0)
	v.SetDefault("exchange.name", "holosim")
	v.SetDefault("exchange.currency", "USD")
	v.SetDefault("issuing.supply_book_value", "1.00")
	v.SetDefault("issuing.supply_premium", "1.00")
	v.SetDefault("issuing.supply_period", 3600.0)
	v.SetDefault("status.period", 3600.0)
	v.SetDefault("status.book_width", 60)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.World.Duration <= 0 {
		return fmt.Errorf("world.duration must be > 0")
	}
	if !c.World.Realtime && c.World.Quanta <= 0 {
		return fmt.Errorf("world.quanta must be > 0 for a non-realtime world")
	}
	if c.Exchange.Currency == "" {
		return fmt.Errorf("exchange.currency is required")
	}
	if c.Issuing.SupplyAvailable < 0 {
		return fmt.Errorf("issuing.supply_available must be >= 0")
	}
	return nil
}
