package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by resolveConfigPath when no config file exists
// in any of the default locations.
var ErrNotFound = errors.New("no config file found (tried SIGIL_CONFIG, sigil.yaml, ~/.config/sigil/sigil.yaml)")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations and falls back to
// Defaults() when none exists.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
// The path is empty when the defaults were used.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if errors.Is(err, ErrNotFound) {
		cfg := Defaults()
		if wd, err := os.Getwd(); err == nil {
			cfg.BaseDir = wd
			resolvePaths(cfg)
		}
		return cfg, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data, getenv)
	if err != nil {
		return nil, "", err
	}
	cfg.BaseDir = filepath.Dir(absPath)
	resolvePaths(cfg)

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// Parse interpolates environment variables into data and decodes it over
// the defaults. Paths are left unresolved.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for i, ext := range cfg.Sources.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			cfg.Sources.Extensions[i] = "." + ext
		}
	}
	return cfg, nil
}

// resolvePaths makes output.dir and the sqlite check log path absolute.
func resolvePaths(cfg *Config) {
	if cfg.Output.Dir != "" && !filepath.IsAbs(cfg.Output.Dir) {
		cfg.Output.Dir = filepath.Join(cfg.BaseDir, cfg.Output.Dir)
	}
	if cfg.Cache.Driver == "sqlite" && cfg.Cache.DSN != "" && cfg.Cache.DSN != ":memory:" && !filepath.IsAbs(cfg.Cache.DSN) {
		cfg.Cache.DSN = filepath.Join(cfg.BaseDir, cfg.Cache.DSN)
	}
}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errs []string

	if len(cfg.Sources.Extensions) == 0 {
		errs = append(errs, "sources.extensions: at least one extension is required")
	}
	for i, pattern := range cfg.Sources.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Sprintf("sources.exclude[%d]: invalid pattern %q", i, pattern))
		}
	}

	if cfg.Parser.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("invalid parser.max_depth: %d (must be at least 1)", cfg.Parser.MaxDepth))
	}

	validCompression := map[string]bool{"none": true, "gzip": true, "zstd": true}
	if !validCompression[cfg.Output.Compression] {
		errs = append(errs, fmt.Sprintf("invalid output.compression: %s (must be none, gzip, or zstd)", cfg.Output.Compression))
	}
	validCompressionLevels := map[string]bool{"fastest": true, "default": true, "best": true}
	if !validCompressionLevels[cfg.Output.Level] {
		errs = append(errs, fmt.Sprintf("invalid output.level: %s (must be fastest, default, or best)", cfg.Output.Level))
	}

	if cfg.Cache.Enabled {
		validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
		if !validDrivers[cfg.Cache.Driver] {
			errs = append(errs, fmt.Sprintf("invalid cache.driver: %s (must be sqlite, postgres, or mysql)", cfg.Cache.Driver))
		}
		if cfg.Cache.DSN == "" {
			errs = append(errs, "cache.dsn is required when the cache is enabled")
		}
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("invalid watch.debounce: %s (must not be negative)", cfg.Watch.Debounce))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, or error)", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Warnings returns non-fatal configuration issues that should be reported to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	if !cfg.Cache.Enabled && cfg.Cache.Driver != "sqlite" {
		warnings = append(warnings, fmt.Sprintf("cache.driver is %s but the cache is disabled", cfg.Cache.Driver))
	}
	if cfg.Output.Compression == "none" && cfg.Output.Level != "default" {
		warnings = append(warnings, "output.level has no effect without output.compression")
	}
	if cfg.Watch.Debounce > 0 && cfg.Watch.Debounce < 10*time.Millisecond {
		warnings = append(warnings, fmt.Sprintf("watch.debounce of %s is very short - editors that save in several steps will trigger repeated checks", cfg.Watch.Debounce))
	}
	for _, ext := range cfg.Sources.Extensions {
		if ext != ".sl" && ext != ".sigil" {
			warnings = append(warnings, fmt.Sprintf("sources.extensions: %s is not a standard Sigil extension", ext))
		}
	}

	return warnings
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > SIGIL_CONFIG env > ./sigil.yaml > ~/.config/sigil/sigil.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("SIGIL_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("SIGIL_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("sigil.yaml"); err == nil {
		return "sigil.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "sigil", "sigil.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", ErrNotFound
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}
