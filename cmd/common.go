package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/quillworks/autoedit/pkg/config"
	"github.com/quillworks/autoedit/pkg/oracle"
)

const defaultConfigPath = ".autoedit/config.json"

// loadConfig reads the config file selected by --config, falling back to the
// conventional location and then to built-in defaults.
func loadConfig() (*config.Config, error) {
	path := flagConfigPath
	if path == "" {
		path = filepath.Clean(defaultConfigPath)
	}
	return config.Load(path)
}

// buildOracle constructs the provider selected in the config.
func buildOracle(cfg *config.Config, apiKey string) (oracle.Oracle, error) {
	switch cfg.Provider {
	case "ollama":
		return oracle.NewOllama(cfg.Model)
	case "openai", "":
		return oracle.NewOpenAI(apiKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q (want openai or ollama)", cfg.Provider)
	}
}
