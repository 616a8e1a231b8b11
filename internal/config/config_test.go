package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Download.RetryLimit != DefaultRetryLimit {
		t.Errorf("Expected retry limit %d, got %d", DefaultRetryLimit, cfg.Download.RetryLimit)
	}
	if cfg.Download.MaxDurationSeconds != DefaultMaxDurationSec {
		t.Errorf("Expected max duration %d, got %d", DefaultMaxDurationSec, cfg.Download.MaxDurationSeconds)
	}
	if cfg.Paths.DownloadsDir != "downloads" || cfg.Paths.AudioDir != "audio" {
		t.Errorf("Unexpected default directories: %+v", cfg.Paths)
	}
	if cfg.Discovery.QuerySuffix != "songs" {
		t.Errorf("Expected query suffix 'songs', got '%s'", cfg.Discovery.QuerySuffix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != "" {
		t.Errorf("Expected empty resolved path, got %s", path)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("Expected sample rate %d, got %d", DefaultSampleRate, cfg.Audio.SampleRate)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[paths]
work_dir = "/srv/mashups"

[download]
retry_limit = 4
max_duration_seconds = 0
min_interval_millis = -5

[audio]
sample_rate = 48000
channels = 1

[logging]
level = "DEBUG"
format = "json"
`)

	cfg, resolved, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resolved != path {
		t.Errorf("Expected resolved path %s, got %s", path, resolved)
	}
	if cfg.Paths.WorkDir != "/srv/mashups" {
		t.Errorf("Expected work dir '/srv/mashups', got '%s'", cfg.Paths.WorkDir)
	}
	if cfg.Download.RetryLimit != 4 {
		t.Errorf("Expected retry limit 4, got %d", cfg.Download.RetryLimit)
	}
	if cfg.MaxDuration() != 0 {
		t.Errorf("Expected disabled duration cap, got %v", cfg.MaxDuration())
	}
	if cfg.DownloadInterval() != 0 {
		t.Errorf("Expected negative interval to normalize to 0, got %v", cfg.DownloadInterval())
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 1 {
		t.Errorf("Unexpected audio settings: %+v", cfg.Audio)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected lower-cased level 'debug', got '%s'", cfg.Logging.Level)
	}
	// untouched sections keep defaults
	if cfg.Download.Format != DefaultDownloadFormat {
		t.Errorf("Expected default format, got '%s'", cfg.Download.Format)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[download\nretry_limit = ")
	if _, _, err := Load(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[download]\nretry_limit = 1\n")
	t.Setenv(EnvRetryLimit, "3")
	t.Setenv(EnvFFmpegBinary, "/opt/ffmpeg/bin/ffmpeg")

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Download.RetryLimit != 3 {
		t.Errorf("Expected env retry limit 3, got %d", cfg.Download.RetryLimit)
	}
	if cfg.Audio.FFmpegBinary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Expected env ffmpeg binary, got '%s'", cfg.Audio.FFmpegBinary)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"negative retries", func(c *Config) { c.Download.RetryLimit = -1 }, "retry_limit"},
		{"too many retries", func(c *Config) { c.Download.RetryLimit = MaxRetryLimit + 1 }, "retry_limit"},
		{"negative cap", func(c *Config) { c.Download.MaxDurationSeconds = -1 }, "max_duration_seconds"},
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "sample_rate"},
		{"three channels", func(c *Config) { c.Audio.Channels = 3 }, "channels"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Expected error mentioning %q, got %v", tt.errSub, err)
			}
		})
	}
}

func TestSetRetryLimit(t *testing.T) {
	cfg := Default()

	cfg.SetRetryLimit(5)
	if cfg.Download.RetryLimit != 5 {
		t.Errorf("Expected retry limit 5, got %d", cfg.Download.RetryLimit)
	}

	cfg.SetRetryLimit(-3) // Should be clamped to 0
	if cfg.Download.RetryLimit != 0 {
		t.Error("Retry limit should be clamped to minimum 0")
	}

	cfg.SetRetryLimit(50) // Should be clamped to MaxRetryLimit
	if cfg.Download.RetryLimit != MaxRetryLimit {
		t.Errorf("Retry limit should be clamped to maximum %d", MaxRetryLimit)
	}
}

func TestSetMaxDuration(t *testing.T) {
	cfg := Default()

	cfg.SetMaxDuration(120)
	if cfg.MaxDuration() != 2*time.Minute {
		t.Errorf("Expected 2m cap, got %v", cfg.MaxDuration())
	}

	cfg.SetMaxDuration(-1)
	if cfg.MaxDuration() != 0 {
		t.Errorf("Expected negative cap to disable, got %v", cfg.MaxDuration())
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/mashups")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != filepath.Join(home, "mashups") {
		t.Errorf("Expected %s, got %s", filepath.Join(home, "mashups"), got)
	}

	empty, err := ExpandPath("")
	if err != nil || empty != "" {
		t.Errorf("Expected empty path to pass through, got %q, %v", empty, err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Discovery.Playlist = "PLexample"

	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(encoded, "[download]") || !strings.Contains(encoded, "PLexample") {
		t.Errorf("Unexpected encoding:\n%s", encoded)
	}

	loaded, _, err := Load(writeConfig(t, encoded))
	if err != nil {
		t.Fatalf("Expected encoded config to load, got %v", err)
	}
	if loaded.Discovery.Playlist != "PLexample" {
		t.Errorf("Expected playlist to survive, got %q", loaded.Discovery.Playlist)
	}
}
