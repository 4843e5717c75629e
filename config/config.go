// Package config loads sigil.yaml project configuration.
package config

import (
	"time"

	"github.com/rdenadai/sigil/pkg/sigil/parser"
)

// Config represents the complete Sigil project configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Sources SourcesConfig `yaml:"sources"`
	Parser  ParserConfig  `yaml:"parser"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
	Report  ReportConfig  `yaml:"report"`
}

// SourcesConfig selects which files are Sigil sources
type SourcesConfig struct {
	Extensions StringOrSlice `yaml:"extensions"` // ".sl" or a list of extensions
	Exclude    []string      `yaml:"exclude"`    // Glob patterns matched against base names
}

// ParserConfig holds parser limits
type ParserConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// OutputConfig controls where build artifacts go
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"` // none, gzip, zstd
	Level       string `yaml:"level"`       // fastest, default, best
}

// CacheConfig holds the check log settings
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // sqlite, postgres, mysql
	DSN     string `yaml:"dsn"`    // File path for sqlite, connection string otherwise
}

// WatchConfig holds file watcher settings
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce"`
	IgnoreHidden bool          `yaml:"ignore_hidden"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, error
	Format string `yaml:"format"` // text, json
}

// ReportConfig holds HTML report settings
type ReportConfig struct {
	Title string `yaml:"title"`
}

// StringOrSlice allows a YAML field to be either a single string or a list
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var multi []string
	if err := unmarshal(&multi); err != nil {
		return err
	}
	*s = multi
	return nil
}

// Contains checks if the slice contains a string
func (s StringOrSlice) Contains(str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Sources: SourcesConfig{
			Extensions: StringOrSlice{".sl", ".sigil"},
		},
		Parser: ParserConfig{
			MaxDepth: parser.MaxDepth,
		},
		Output: OutputConfig{
			Dir:         "build",
			Compression: "none",
			Level:       "default",
		},
		Cache: CacheConfig{
			Enabled: false,
			Driver:  "sqlite",
			DSN:     ".sigil/checks.db",
		},
		Watch: WatchConfig{
			Debounce:     100 * time.Millisecond,
			IgnoreHidden: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Report: ReportConfig{
			Title: "Sigil check report",
		},
	}
}
