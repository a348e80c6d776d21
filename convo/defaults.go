// Package convo holds application-wide defaults shared by the config, generation and
// session packages.
package convo

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "convo"

	// DefaultMaxHistoryItems is the number of turns (user and assistant entries) a
	// conversation buffer retains.
	DefaultMaxHistoryItems = 12

	DefaultProvider  = "gemini"
	DefaultModel     = "gemini-2.5-flash"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"

	DefaultSystemInstruction = "You are a helpful assistant. Keep answers concise and include relevant context from previous turns when appropriate."
)

var (
	// DefaultConfigPath is the per-user configuration directory.
	DefaultConfigPath = filepath.Join(userConfigDir(), DefaultAppName)
)

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}
