package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TEAMPULSE_CONFIG is set
//  3. env (prefix TEAMPULSE_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TEAMPULSE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: TEAMPULSE_ADDR, TEAMPULSE_MODEL_DIR, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("TEAMPULSE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "teampulse_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if cfg.Analysis.WindowDays <= 0 {
		return errors.New("analysis.window_days must be positive")
	}
	if cfg.Analysis.WorkStartHour < 0 || cfg.Analysis.WorkEndHour > 24 ||
		cfg.Analysis.WorkStartHour >= cfg.Analysis.WorkEndHour {
		return errors.New("analysis work hours must satisfy 0 <= start < end <= 24")
	}
	for _, d := range cfg.Analysis.WeekendDays {
		if d < 0 || d > 6 {
			return errors.New("analysis.weekend_days must be in [0, 6]")
		}
	}
	return nil
}
