package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. PORTAL_IDENTITY_URL.
const EnvPrefix = "PORTAL_"

// Config is the portalctl configuration.
type Config struct {
	Identity IdentityConfig `koanf:"identity"`
	Session  SessionConfig  `koanf:"session"`
	Store    StoreConfig    `koanf:"store"`
	Log      LogConfig      `koanf:"log"`
	Serve    ServeConfig    `koanf:"serve"`
}

// IdentityConfig locates the identity service.
type IdentityConfig struct {
	URL       string        `koanf:"url"`
	AuthKey   string        `koanf:"auth_key"`
	RESTRoute string        `koanf:"rest_route"`
	Timeout   time.Duration `koanf:"timeout"`
}

type SessionConfig struct {
	// ClearStaleToken removes a stored token the service rejects at startup.
	ClearStaleToken bool `koanf:"clear_stale_token"`
}

type StoreConfig struct {
	// Dir holds credentials.json. Empty means ~/.portal.
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ServeConfig struct {
	Addr    string `koanf:"addr"`
	Metrics bool   `koanf:"metrics"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Identity: IdentityConfig{
			URL:       "http://localhost:8080",
			RESTRoute: "/simple-jwt-login/v1",
			Timeout:   10 * time.Second,
		},
		Session: SessionConfig{ClearStaleToken: true},
		Log:     LogConfig{Level: "warn", Format: "colorful"},
		Serve:   ServeConfig{Addr: "127.0.0.1:3000"},
	}
}

// Load builds the configuration. Sources are applied in order, later ones
// winning: defaults, the YAML file at path (skipped when empty), PORTAL_*
// environment variables, then overrides keyed by dotted name (flags).
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(mapProvider(overrides), nil); err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps PORTAL_SECTION_SOME_KEY to section.some_key. Only the first
// underscore separates the section; the rest belong to the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Identity.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("identity.url %q must be an absolute URL", c.Identity.URL)
	}
	if c.Identity.Timeout <= 0 {
		return errors.New("identity.timeout must be positive")
	}
	switch c.Log.Format {
	case "colorful", "json":
	default:
		return fmt.Errorf("log.format %q must be colorful or json", c.Log.Format)
	}
	return nil
}

var errReadBytesNotSupported = errors.New("config: ReadBytes not supported by map provider")

// mapProvider feeds already-parsed values (flag overrides) into koanf. Keys
// are dotted, "section.key".
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, val := range m {
		section, name, ok := strings.Cut(key, ".")
		if !ok {
			out[key] = val
			continue
		}
		sub, _ := out[section].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
			out[section] = sub
		}
		sub[name] = val
	}
	return out, nil
}
