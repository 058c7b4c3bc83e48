package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. CTFTERM_MERGE_POLICY.
const EnvPrefix = "CTFTERM_"

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. the YAML file at path, or CTFTERM_CONFIG, or DefaultPath() if it exists
//  3. CTFTERM_* environment variables
//
// An explicitly named file that does not exist is an error; a missing
// default file is not.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// A comma separated env value arrives as a single string.
	if len(cfg.Watchlist) == 1 && strings.Contains(cfg.Watchlist[0], ",") {
		cfg.Watchlist = splitList(cfg.Watchlist[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
