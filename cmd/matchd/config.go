package main

import (
	"github.com/spf13/viper"

	"matchcore/internal/config"
	pkgconfig "matchcore/pkg/config"
)

func loadConfig(cfg *config.EngineConfig) (*viper.Viper, error) {
	return pkgconfig.LoadAndWatch("matchd", cfg)
}
