package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/pelletier/go-toml/v2"
)

// Environment variable names that override file values
const (
	EnvWorkDir       = "YT_MASHUP_WORKDIR"
	EnvRetryLimit    = "YT_MASHUP_RETRY_LIMIT"
	EnvMaxDuration   = "YT_MASHUP_MAX_DURATION"
	EnvFFmpegBinary  = "YT_MASHUP_FFMPEG"
	EnvFFprobeBinary = "YT_MASHUP_FFPROBE"
	EnvYTDLPBinary   = "YT_MASHUP_YTDLP"
	EnvLogLevel      = "YT_MASHUP_LOG_LEVEL"
	EnvLogFormat     = "YT_MASHUP_LOG_FORMAT"
)

// Default values
const (
	DefaultWorkDir             = "."
	DefaultDownloadsDirName    = "downloads"
	DefaultAudioDirName        = "audio"
	DefaultSearchURL           = "https://www.youtube.com/results"
	DefaultQuerySuffix         = "songs"
	DefaultSearchTimeoutSec    = 15
	DefaultRetryLimit          = 2
	DefaultRetryBackoffMillis  = 2000
	DefaultMaxDurationSec      = 250
	DefaultDownloadTimeoutSec  = 600
	DefaultDownloadIntervalMs  = 500
	DefaultDownloadFormat      = "bestaudio[ext=webm]/bestaudio/best"
	DefaultSampleRate          = 44100
	DefaultChannels            = 2
	DefaultTranscodeTimeoutSec = 300
	DefaultFFmpegBinary        = "ffmpeg"
	DefaultFFprobeBinary       = "ffprobe"
	DefaultYTDLPBinary         = "yt-dlp"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "auto"
	DefaultConfigFileName      = "yt-mashup.toml"
	DefaultUserConfigPath      = "~/.config/yt-mashup/config.toml"
	MaxRetryLimit              = 10
	MaxSampleRate              = 192000
)

// Paths contains workspace directory configuration.
type Paths struct {
	WorkDir      string `toml:"work_dir"`
	DownloadsDir string `toml:"downloads_dir"`
	AudioDir     string `toml:"audio_dir"`
}

// Discovery contains search page settings.
type Discovery struct {
	SearchURL      string `toml:"search_url"`
	QuerySuffix    string `toml:"query_suffix"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Playlist       string `toml:"playlist"`
}

// Download contains yt-dlp acquisition settings.
type Download struct {
	Format             string `toml:"format"`
	RetryLimit         int    `toml:"retry_limit"`
	RetryBackoffMillis int    `toml:"retry_backoff_millis"`
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	MinIntervalMillis  int    `toml:"min_interval_millis"`
	YTDLPBinary        string `toml:"ytdlp_binary"`
	AutoInstall        bool   `toml:"auto_install"`
}

// Audio contains transcoding and WAV normalization settings.
type Audio struct {
	SampleRate     int    `toml:"sample_rate"`
	Channels       int    `toml:"channels"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for a mashup run.
//
// Configuration sections by subsystem:
//   - Paths: workspace root and intermediate directories
//   - Discovery: search page location, query suffix and timeout
//   - Download: yt-dlp format, retry budget, duration cap, pacing
//   - Audio: normalized WAV format and ffmpeg/ffprobe binaries
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Discovery Discovery `toml:"discovery"`
	Download  Download  `toml:"download"`
	Audio     Audio     `toml:"audio"`
	Logging   Logging   `toml:"logging"`
}

// Default returns a configuration populated with built-in defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:      DefaultWorkDir,
			DownloadsDir: DefaultDownloadsDirName,
			AudioDir:     DefaultAudioDirName,
		},
		Discovery: Discovery{
			SearchURL:      DefaultSearchURL,
			QuerySuffix:    DefaultQuerySuffix,
			TimeoutSeconds: DefaultSearchTimeoutSec,
		},
		Download: Download{
			Format:             DefaultDownloadFormat,
			RetryLimit:         DefaultRetryLimit,
			RetryBackoffMillis: DefaultRetryBackoffMillis,
			MaxDurationSeconds: DefaultMaxDurationSec,
			TimeoutSeconds:     DefaultDownloadTimeoutSec,
			MinIntervalMillis:  DefaultDownloadIntervalMs,
			YTDLPBinary:        DefaultYTDLPBinary,
		},
		Audio: Audio{
			SampleRate:     DefaultSampleRate,
			Channels:       DefaultChannels,
			TimeoutSeconds: DefaultTranscodeTimeoutSec,
			FFmpegBinary:   DefaultFFmpegBinary,
			FFprobeBinary:  DefaultFFprobeBinary,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load locates and parses a configuration file, applies environment overrides,
// and validates the result. It returns the resolved file path, or "" when no
// file was found and defaults were used.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	} else {
		resolvedPath = ""
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %q not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(DefaultConfigFileName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	userPath, err := expandPath(DefaultUserConfigPath)
	if err != nil {
		return "", false, nil
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}

	return "", false, nil
}

func (c *Config) applyEnv() {
	c.Paths.WorkDir = env.Str(EnvWorkDir, c.Paths.WorkDir)
	c.Download.RetryLimit = env.Int(EnvRetryLimit, c.Download.RetryLimit)
	c.Download.MaxDurationSeconds = env.Int(EnvMaxDuration, c.Download.MaxDurationSeconds)
	c.Download.YTDLPBinary = env.Str(EnvYTDLPBinary, c.Download.YTDLPBinary)
	c.Audio.FFmpegBinary = env.Str(EnvFFmpegBinary, c.Audio.FFmpegBinary)
	c.Audio.FFprobeBinary = env.Str(EnvFFprobeBinary, c.Audio.FFprobeBinary)
	c.Logging.Level = env.Str(EnvLogLevel, c.Logging.Level)
	c.Logging.Format = env.Str(EnvLogFormat, c.Logging.Format)
}

func (c *Config) normalize() {
	c.Paths.WorkDir = strings.TrimSpace(c.Paths.WorkDir)
	if c.Paths.WorkDir == "" {
		c.Paths.WorkDir = DefaultWorkDir
	}
	c.Paths.DownloadsDir = defaultString(c.Paths.DownloadsDir, DefaultDownloadsDirName)
	c.Paths.AudioDir = defaultString(c.Paths.AudioDir, DefaultAudioDirName)

	c.Discovery.SearchURL = defaultString(c.Discovery.SearchURL, DefaultSearchURL)
	c.Discovery.QuerySuffix = strings.TrimSpace(c.Discovery.QuerySuffix)
	c.Discovery.Playlist = strings.TrimSpace(c.Discovery.Playlist)
	if c.Discovery.TimeoutSeconds <= 0 {
		c.Discovery.TimeoutSeconds = DefaultSearchTimeoutSec
	}

	c.Download.Format = defaultString(c.Download.Format, DefaultDownloadFormat)
	c.Download.YTDLPBinary = defaultString(c.Download.YTDLPBinary, DefaultYTDLPBinary)
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = DefaultDownloadTimeoutSec
	}
	if c.Download.RetryBackoffMillis < 0 {
		c.Download.RetryBackoffMillis = 0
	}
	if c.Download.MinIntervalMillis < 0 {
		c.Download.MinIntervalMillis = 0
	}

	c.Audio.FFmpegBinary = defaultString(c.Audio.FFmpegBinary, DefaultFFmpegBinary)
	c.Audio.FFprobeBinary = defaultString(c.Audio.FFprobeBinary, DefaultFFprobeBinary)
	if c.Audio.TimeoutSeconds <= 0 {
		c.Audio.TimeoutSeconds = DefaultTranscodeTimeoutSec
	}

	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, DefaultLogLevel))
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, DefaultLogFormat))
}

// Validate checks value ranges that normalization cannot repair.
func (c *Config) Validate() error {
	if c.Download.RetryLimit < 0 || c.Download.RetryLimit > MaxRetryLimit {
		return fmt.Errorf("download.retry_limit must be between 0 and %d, got %d", MaxRetryLimit, c.Download.RetryLimit)
	}
	if c.Download.MaxDurationSeconds < 0 {
		return fmt.Errorf("download.max_duration_seconds must be >= 0, got %d", c.Download.MaxDurationSeconds)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be between 1 and %d, got %d", MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

// SetRetryLimit sets the number of additional download attempts per item
func (c *Config) SetRetryLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxRetryLimit {
		limit = MaxRetryLimit
	}
	c.Download.RetryLimit = limit
}

// SetMaxDuration sets the media duration cap in seconds; 0 disables it
func (c *Config) SetMaxDuration(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.Download.MaxDurationSeconds = seconds
}

// SearchTimeout returns the HTTP timeout for the results page request
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}

// DownloadTimeout returns the deadline for a single download attempt
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the wait between download attempts
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Download.RetryBackoffMillis) * time.Millisecond
}

// DownloadInterval returns the minimum spacing between download attempts
func (c *Config) DownloadInterval() time.Duration {
	return time.Duration(c.Download.MinIntervalMillis) * time.Millisecond
}

// MaxDuration returns the media duration cap, or 0 when disabled
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.Download.MaxDurationSeconds) * time.Second
}

// TranscodeTimeout returns the deadline for a single ffmpeg or ffprobe run
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Audio.TimeoutSeconds) * time.Second
}

// ExpandPath resolves "~" and relative paths to an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
