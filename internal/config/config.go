// Package config holds matchd's on-disk configuration shape and validation,
// loaded and hot-reloaded by pkg/config.LoadAndWatch.
package config

import (
	"go.uber.org/multierr"

	"matchcore/internal/risk"
)

// EngineConfig is the top-level shape of config/matchd.yaml.
type EngineConfig struct {
	Name            string             `mapstructure:"name"`
	LogLevel        string             `mapstructure:"log_level"`
	MaxCascadeDepth int                `mapstructure:"max_cascade_depth"`
	TickBands       []TickBand         `mapstructure:"tick_bands"`
	CircuitBreaker  CircuitBreaker     `mapstructure:"circuit_breaker"`
	DefaultLimits   risk.RiskLimits    `mapstructure:"default_limits"`
	TraderLimits    map[uint64]risk.RiskLimits `mapstructure:"trader_limits"`
}

// TickBand is one row of the tick-size schedule; MinPrice/MaxPrice are
// inclusive, in the same integer price units as order prices.
type TickBand struct {
	MinPrice int64 `mapstructure:"min_price"`
	MaxPrice int64 `mapstructure:"max_price"`
	TickSize int64 `mapstructure:"tick_size"`
}

// CircuitBreaker centers the process-wide price band.
type CircuitBreaker struct {
	ReferencePrice int64   `mapstructure:"reference_price"`
	Percentage     float64 `mapstructure:"percentage"`
}

// Validate collects every configuration defect instead of stopping at the
// first one, so a bad config file reports everything wrong with it in one
// pass.
func (c *EngineConfig) Validate() error {
	var err error
	if c.Name == "" {
		err = multierr.Append(err, errEmptyName)
	}
	if c.MaxCascadeDepth <= 0 {
		err = multierr.Append(err, errBadCascadeDepth)
	}
	for i, band := range c.TickBands {
		if band.MinPrice > band.MaxPrice || band.TickSize <= 0 || band.MinPrice < 0 {
			err = multierr.Append(err, errBadTickBand(i))
		}
	}
	if c.CircuitBreaker.Percentage <= 0 || c.CircuitBreaker.Percentage > 1.0 {
		err = multierr.Append(err, errBadBreakerPercentage)
	}
	if limErr := c.DefaultLimits.Validate(); limErr != nil {
		err = multierr.Append(err, limErr)
	}
	for trader, limits := range c.TraderLimits {
		if limErr := limits.Validate(); limErr != nil {
			err = multierr.Append(err, errBadTraderLimits(trader, limErr))
		}
	}
	return err
}
