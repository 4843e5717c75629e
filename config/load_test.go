package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "SIGIL_OUT":
			return "dist"
		case "DB_HOST":
			return "db.internal"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "dir: ${SIGIL_OUT}", "dir: dist"},
		{"with default (env set)", "dir: ${SIGIL_OUT:-build}", "dir: dist"},
		{"with default (env not set)", "dir: ${UNSET_VAR:-build}", "dir: build"},
		{"unset without default", "dir: ${UNSET_VAR}", "dir: "},
		{"multiple substitutions", "dsn: postgres://${DB_HOST}/${SIGIL_OUT}", "dsn: postgres://db.internal/dist"},
		{"no substitution needed", "static: value", "static: value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
sources:
  extensions: [sl, .sg]
  exclude: ["*_test.sl"]
parser:
  max_depth: 64
output:
  dir: ${OUT_DIR:-out}
  compression: zstd
  level: best
watch:
  debounce: 250ms
  ignore_hidden: false
logging:
  level: debug
  format: json
report:
  title: Nightly
`)
	cfg, err := Parse(data, func(string) string { return "" })
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := strings.Join(cfg.Sources.Extensions, ","); got != ".sl,.sg" {
		t.Errorf("expected normalized extensions .sl,.sg, got %s", got)
	}
	if cfg.Parser.MaxDepth != 64 {
		t.Errorf("expected max_depth 64, got %d", cfg.Parser.MaxDepth)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("expected output dir 'out', got %q", cfg.Output.Dir)
	}
	if cfg.Output.Compression != "zstd" || cfg.Output.Level != "best" {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.IgnoreHidden {
		t.Error("expected ignore_hidden false")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json logging, got %q", cfg.Logging.Format)
	}
	if cfg.Report.Title != "Nightly" {
		t.Errorf("expected report title 'Nightly', got %q", cfg.Report.Title)
	}
	// Untouched sections keep their defaults
	if cfg.Cache.Driver != "sqlite" {
		t.Errorf("expected default cache driver, got %q", cfg.Cache.Driver)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("parser: [unclosed"), func(string) string { return "" })
	if err == nil || !strings.HasPrefix(err.Error(), "failed to parse config:") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigil.yaml")
	content := `
output:
  dir: artifacts
cache:
  enabled: true
  dsn: cache/checks.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := LoadWithPath(path, func(string) string { return "" })
	if err != nil {
		t.Fatalf("LoadWithPath failed: %v", err)
	}
	if resolved != path {
		t.Errorf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.BaseDir != dir {
		t.Errorf("expected base dir %q, got %q", dir, cfg.BaseDir)
	}
	if want := filepath.Join(dir, "artifacts"); cfg.Output.Dir != want {
		t.Errorf("expected output dir %q, got %q", want, cfg.Output.Dir)
	}
	if want := filepath.Join(dir, "cache", "checks.db"); cfg.Cache.DSN != want {
		t.Errorf("expected dsn %q, got %q", want, cfg.Cache.DSN)
	}
}

func TestLoadKeepsNetworkDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigil.yaml")
	content := "cache:\n  enabled: true\n  driver: mysql\n  dsn: ${DSN}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	getenv := func(key string) string {
		if key == "DSN" {
			return "user:pass@tcp(localhost:3306)/sigil"
		}
		return ""
	}
	cfg, err := Load(path, getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.DSN != "user:pass@tcp(localhost:3306)/sigil" {
		t.Errorf("network dsn should not be resolved as a path, got %q", cfg.Cache.DSN)
	}
}

func TestLoadFromEnvVariable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("report:\n  title: From env\n"), 0644); err != nil {
		t.Fatal(err)
	}

	getenv := func(key string) string {
		if key == "SIGIL_CONFIG" {
			return path
		}
		return ""
	}
	cfg, err := Load("", getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Report.Title != "From env" {
		t.Errorf("expected title from env config, got %q", cfg.Report.Title)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	getenv := func(key string) string {
		if key == "SIGIL_CONFIG" {
			return "/nonexistent/sigil.yaml"
		}
		return ""
	}

	if _, err := Load("/nonexistent/explicit.yaml", getenv); err == nil ||
		err.Error() != "config file not found: /nonexistent/explicit.yaml" {
		t.Errorf("unexpected error for explicit path: %v", err)
	}
	if _, err := Load("", getenv); err == nil ||
		err.Error() != "SIGIL_CONFIG file not found: /nonexistent/sigil.yaml" {
		t.Errorf("unexpected error for SIGIL_CONFIG: %v", err)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfg, path, err := LoadWithPath("", func(string) string { return "" })
	if err != nil {
		t.Fatalf("LoadWithPath failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config path, got %q", path)
	}
	if cfg.Parser.MaxDepth != Defaults().Parser.MaxDepth {
		t.Errorf("expected default max depth, got %d", cfg.Parser.MaxDepth)
	}
	if !filepath.IsAbs(cfg.Output.Dir) {
		t.Errorf("expected output dir resolved against the working directory, got %q", cfg.Output.Dir)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigil.yaml")
	if err := os.WriteFile(path, []byte("output:\n  compression: lz4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path, func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "invalid output.compression: lz4") {
		t.Errorf("expected compression error, got %v", err)
	}
}
