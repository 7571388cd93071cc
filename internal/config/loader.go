package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/satfinder/pkg/errkind"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SATFINDER_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SATFINDER_CONFIG is set
//  3. env (prefix SATFINDER_)
func Load(ctx context.Context) (*Config, error) {
	const op = "config.load"
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errkind.WrapKind(op, ErrLoadConfig, err)
		}
	}

	// SATFINDER_DATASET_TTL_MINUTES -> dataset_ttl_minutes (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errkind.WrapKind(op, ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errkind.WrapKind(op, ErrLoadConfig, err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return &cfg, nil
}
