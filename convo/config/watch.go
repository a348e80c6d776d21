package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Watch re-decodes the config whenever the file backing v is written and hands the
// result to onChange. Invalid edits are logged and ignored. onChange runs on viper's
// watcher goroutine. Watch reports false when v was not loaded from a file.
func Watch(v *viper.Viper, logger zerolog.Logger, onChange func(*Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Decode(v)
		if err != nil {
			logger.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid config change")
			return
		}
		logger.Info().Str("file", e.Name).Msg("config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
	return true
}
