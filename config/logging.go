package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// LoadLoggerConfig reads a logger configuration from a YAML file. A missing
// file is not an error; defaults are returned so the caller can always log.
func LoadLoggerConfig(path string) (*logger.Config, error) {
	cfg := &logger.Config{
		Level:       "info",
		Encoding:    "json",
		OutputPaths: []string{"stdout", "logs/app.log"},
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      7,
		Compress:    true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read logger config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse logger config: %w", err)
	}
	return cfg, nil
}
