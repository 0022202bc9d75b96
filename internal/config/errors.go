package config

import "github.com/pkg/errors"

var (
	errEmptyName            = errors.New("name must not be empty")
	errBadCascadeDepth      = errors.New("max_cascade_depth must be positive")
	errBadBreakerPercentage = errors.New("circuit_breaker.percentage must be in (0, 1.0]")
)

func errBadTickBand(i int) error {
	return errors.Errorf("tick_bands[%d]: min_price must be <= max_price, tick_size must be positive", i)
}

func errBadTraderLimits(trader uint64, cause error) error {
	return errors.Wrapf(cause, "trader_limits[%d]", trader)
}
