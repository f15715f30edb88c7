package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v9"
)

// EnvPrefix is prepended to every environment override (e.g. STOCKER_WEB_PORT).
const EnvPrefix = "STOCKER_"

// Config holds application configuration.
type Config struct {
	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.stocker/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" env:"ALLOWED_PATHS" envSeparator:","`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" env:"ALLOW_UNSAFE_PATHS"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" env:"DB_MAX_OPEN_CONNS"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" env:"DB_MAX_IDLE_CONNS"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" env:"DISABLED_TOOLS" envSeparator:","`

	// DisableImages opens the store without the blob engine; image operations become no-ops.
	DisableImages bool `json:"disable_images,omitempty" env:"DISABLE_IMAGES"`

	// MaxImageBytes caps the size of a single attached image.
	MaxImageBytes int `json:"max_image_bytes" env:"MAX_IMAGE_BYTES"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" env:"LOG_LEVEL"`

	// WebBind and WebPort control the address used by `stocker serve`.
	WebBind string `json:"web_bind,omitempty" env:"WEB_BIND"`
	WebPort int    `json:"web_port,omitempty" env:"WEB_PORT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxImageBytes: 10 << 20,
		LogLevel:      "info",
		WebBind:       "127.0.0.1",
		WebPort:       8765,
	}
}

// Load loads configuration from baseDir/config.json and applies STOCKER_*
// environment overrides on top.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.stocker.
func Load(baseDir string) (*Config, error) {
	return LoadWithEnv(baseDir, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ reads the
// process environment.
func LoadWithEnv(baseDir string, environ map[string]string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, environ); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays STOCKER_* variables. Unset variables leave fields untouched.
func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parsing env config: %w", err)
	}
	cfg.AllowedPaths = mergeStringSlice(nil, cfg.AllowedPaths)
	cfg.DisabledTools = mergeStringSlice(nil, cfg.DisabledTools)
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.MaxImageBytes = firstNonZero(overlay.MaxImageBytes, base.MaxImageBytes)
	result.WebPort = firstNonZero(overlay.WebPort, base.WebPort)
	result.LogLevel = firstNonZero(strings.TrimSpace(overlay.LogLevel), base.LogLevel)
	result.WebBind = firstNonZero(strings.TrimSpace(overlay.WebBind), base.WebBind)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths
	result.DisableImages = base.DisableImages || overlay.DisableImages

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonZero[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
