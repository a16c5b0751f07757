// Package config loads teamboard settings from a YAML file and TEAMBOARD_*
// environment variables, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/teamboard/internal/logging"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no explicit config file is given. It may be absent.
const DefaultPath = "teamboard.yaml"

// EnvPrefix prefixes every environment override, e.g. TEAMBOARD_HTTP_PORT.
const EnvPrefix = "TEAMBOARD_"

// Config is the full server configuration.
type Config struct {
	LogLevel     string         `mapstructure:"log_level" yaml:"log_level"`
	FilterPolicy string         `mapstructure:"filter_policy" yaml:"filter_policy"`
	HTTP         HTTPConfig     `mapstructure:"http" yaml:"http"`
	Store        StoreConfig    `mapstructure:"store" yaml:"store"`
	Redis        RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Taxonomy     TaxonomyConfig `mapstructure:"taxonomy" yaml:"taxonomy"`
}

type HTTPConfig struct {
	Port       int    `mapstructure:"port" yaml:"port"`
	CORSOrigin string `mapstructure:"cors_origin" yaml:"cors_origin"`
}

// StoreConfig selects where teams are persisted.
type StoreConfig struct {
	// Backend is memory, file, sqlite or redis.
	Backend    string `mapstructure:"backend" yaml:"backend"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// EncryptionKey is a hex-encoded 32-byte key. When set, teams are sealed at rest.
	EncryptionKey          string   `mapstructure:"encryption_key" yaml:"encryption_key"`
	EncryptionFallbackKeys []string `mapstructure:"encryption_fallback_keys" yaml:"encryption_fallback_keys"`
}

// RedisConfig is used by the redis team store, the picker store and the
// distributed session lock.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	Password  string        `mapstructure:"password" yaml:"password"`
	DB        int           `mapstructure:"db" yaml:"db"`
	Prefix    string        `mapstructure:"prefix" yaml:"prefix"`
	PickerTTL time.Duration `mapstructure:"picker_ttl" yaml:"picker_ttl"`
}

// TaxonomyConfig selects the capability taxonomy source.
type TaxonomyConfig struct {
	// Source is builtin, file or loam.
	Source string `mapstructure:"source" yaml:"source"`
	Path   string `mapstructure:"path" yaml:"path"`
	Watch  bool   `mapstructure:"watch" yaml:"watch"`
}

func defaults() map[string]any {
	return map[string]any{
		"log_level":     "info",
		"filter_policy": "intersect",
		"http": map[string]any{
			"port":        8080,
			"cors_origin": "*",
		},
		"store": map[string]any{
			"backend":                  "memory",
			"dir":                      ".teamboard/teams",
			"sqlite_path":              ".teamboard/teamboard.db",
			"encryption_key":           "",
			"encryption_fallback_keys": []any{},
		},
		"redis": map[string]any{
			"addr":       "localhost:6379",
			"password":   "",
			"db":         0,
			"prefix":     "teamboard:",
			"picker_ttl": "30m",
		},
		"taxonomy": map[string]any{
			"source": "builtin",
			"path":   "",
			"watch":  false,
		},
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg, err := decode(defaults())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads path (DefaultPath if empty), applies environment overrides and
// validates the result. A missing DefaultPath is not an error; a missing
// explicit path is.
func Load(path string) (*Config, error) {
	raw := defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		merge(raw, file)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(raw, "")

	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(raw map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// merge copies src onto dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// applyEnv overrides every known key from TEAMBOARD_<PATH>, where nested keys
// are joined with an underscore (store.sqlite_path -> TEAMBOARD_STORE_SQLITE_PATH).
func applyEnv(raw map[string]any, prefix string) {
	for k, v := range raw {
		name := prefix + strings.ToUpper(k)
		if sub, ok := v.(map[string]any); ok {
			applyEnv(sub, name+"_")
			continue
		}
		if val, ok := os.LookupEnv(EnvPrefix + name); ok {
			raw[k] = val
		}
	}
}

// EnvKeys lists every supported environment variable, sorted.
func EnvKeys() []string {
	var keys []string
	var walk func(m map[string]any, prefix string)
	walk = func(m map[string]any, prefix string) {
		for k, v := range m {
			name := prefix + strings.ToUpper(k)
			if sub, ok := v.(map[string]any); ok {
				walk(sub, name+"_")
				continue
			}
			keys = append(keys, EnvPrefix+name)
		}
	}
	walk(defaults(), "")
	sort.Strings(keys)
	return keys
}

// Validate checks enumerations and cross-field requirements.
func (c *Config) Validate() error {
	var problems []string

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := hierarchy.ParsePolicy(c.FilterPolicy); err != nil {
		problems = append(problems, err.Error())
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}

	switch c.Store.Backend {
	case "memory", "file", "sqlite", "redis":
	default:
		problems = append(problems, fmt.Sprintf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Taxonomy.Source {
	case "builtin":
	case "file", "loam":
		if c.Taxonomy.Path == "" {
			problems = append(problems, fmt.Sprintf("taxonomy.path is required for source %q", c.Taxonomy.Source))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown taxonomy.source %q", c.Taxonomy.Source))
	}
	if c.Taxonomy.Watch && c.Taxonomy.Source != "loam" {
		problems = append(problems, "taxonomy.watch requires source loam")
	}

	if c.Redis.PickerTTL < 0 {
		problems = append(problems, "redis.picker_ttl must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() slog.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}

// Policy returns the parsed filter policy.
func (c *Config) Policy() hierarchy.Policy {
	p, _ := hierarchy.ParsePolicy(c.FilterPolicy)
	return p
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Store.Backend == "redis"
}
