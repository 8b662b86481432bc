package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if got, want := cfg.Document.LastSection, "trailing-footer"; got != want {
		t.Errorf("LastSection = %q, want %q", got, want)
	}
	if got, want := cfg.Document.BodyWidth, 800; got != want {
		t.Errorf("BodyWidth = %d, want %d", got, want)
	}
	if got, want := strings.Join(cfg.Document.InlineStyles, ","), "/styles/email-inline-styles.css"; got != want {
		t.Errorf("InlineStyles = %q, want %q", got, want)
	}
	if got, want := cfg.Renderer.Kind, "mjml"; got != want {
		t.Errorf("Renderer.Kind = %q, want %q", got, want)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `version: 1
document:
  base: https://example.com
  last_section: strict
  styles: []
renderer:
  kind: none
logging:
  file:
    level: debug
    destination: /tmp/newsletter.log
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if got, want := cfg.Document.Base, "https://example.com"; got != want {
		t.Errorf("Base = %q, want %q", got, want)
	}
	if got, want := cfg.Document.LastSection, "strict"; got != want {
		t.Errorf("LastSection = %q, want %q", got, want)
	}
	if got := len(cfg.Document.Styles); got != 0 {
		t.Errorf("len(Styles) = %d, want 0", got)
	}
	// untouched values keep their defaults
	if got, want := cfg.Document.Classes.Text, "mj-content-text"; got != want {
		t.Errorf("Classes.Text = %q, want %q", got, want)
	}
	if got, want := cfg.Logging.FileLogger.MaxBackups, 3; got != want {
		t.Errorf("MaxBackups = %d, want %d", got, want)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "version: 1\ndocument:\n  colour: red\n"},
		{"bad policy", "version: 1\ndocument:\n  last_section: sometimes\n"},
		{"bad version", "version: 2\n"},
		{"bad renderer", "version: 1\nrenderer:\n  kind: pdf\n"},
		{"file log without destination", "version: 1\nlogging:\n  file:\n    level: normal\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("LoadConfiguration() expected error")
			}
		})
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfiguration() expected error for missing file")
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"last_section: trailing-footer", "kind: mjml", "body_width: 800"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Dump() output misses %q:\n%s", want, data)
		}
	}

	dumped := filepath.Join(t.TempDir(), "dumped.yaml")
	if err := os.WriteFile(dumped, data, 0644); err != nil {
		t.Fatal(err)
	}
	again, err := LoadConfiguration(dumped)
	if err != nil {
		t.Fatalf("LoadConfiguration(dumped) error = %v", err)
	}
	if again.Document.BodyWidth != cfg.Document.BodyWidth {
		t.Errorf("BodyWidth = %d, want %d", again.Document.BodyWidth, cfg.Document.BodyWidth)
	}
}

func TestPrepareLogger(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: ConsoleLoggerConfig{Level: "none"},
		FileLogger: FileLoggerConfig{
			Level:       "debug",
			Destination: filepath.Join(t.TempDir(), "newsletter.log"),
			Mode:        "overwrite",
		},
	}
	log, closer, err := conf.Prepare(false)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hello from test")
	_ = log.Sync()
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file does not contain message: %q", data)
	}
}
