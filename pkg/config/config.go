package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"matchcore/pkg/logger"
)

// LoadAndWatch loads config/{service}.yaml into out via viper, applies
// SERVICE_-prefixed environment overrides (dots become underscores), and
// hot-reloads out whenever the file changes on disk.
func LoadAndWatch(service string, out interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(service)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(strings.ToUpper(service))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(out); err != nil {
		return nil, err
	}
	logger.Info(context.Background(), "config loaded", zap.String("service", service), zap.String("file", v.ConfigFileUsed()))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info(context.Background(), "config file changed", zap.String("service", service), zap.String("file", e.Name))
		if err := v.Unmarshal(out); err != nil {
			logger.Error(context.Background(), "config reload failed", zap.String("service", service), zap.Error(err))
			return
		}
		logger.Info(context.Background(), "config reloaded", zap.String("service", service))
	})

	return v, nil
}
