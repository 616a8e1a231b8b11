package download

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/yt-mashup/internal/logging"
)

// yt-dlp defaults
const (
	DefaultFormat  = "bestaudio[ext=webm]/bestaudio/best"
	DefaultTimeout = 10 * time.Minute
)

// YTDLPFetcher runs yt-dlp for a single video per call.
type YTDLPFetcher struct {
	format      string
	executable  string
	maxDuration time.Duration
	timeout     time.Duration

	installOnce sync.Once
	installErr  error
}

var _ Fetcher = (*YTDLPFetcher)(nil)

// NewYTDLPFetcher creates a fetcher. An empty executable uses yt-dlp from PATH.
// A positive maxDuration is passed to yt-dlp as a match filter.
func NewYTDLPFetcher(format, executable string, maxDuration, timeout time.Duration) *YTDLPFetcher {
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &YTDLPFetcher{
		format:      format,
		executable:  strings.TrimSpace(executable),
		maxDuration: maxDuration,
		timeout:     timeout,
	}
}

// Install resolves a managed yt-dlp binary, downloading it when the system
// has none. Later fetches use the resolved executable.
func (f *YTDLPFetcher) Install(ctx context.Context) error {
	f.installOnce.Do(func() {
		resolved, err := ytdlp.Install(ctx, nil)
		if err != nil {
			f.installErr = fmt.Errorf("install yt-dlp: %w", err)
			return
		}
		f.executable = resolved.Executable
		slog.Info("yt-dlp ready", slog.String(logging.FieldPath, resolved.Executable), slog.String("version", resolved.Version))
	})
	return f.installErr
}

// Fetch downloads url to outputPath. The file name is used literally, so the
// container extension of the result may not match the name.
func (f *YTDLPFetcher) Fetch(ctx context.Context, url, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	dl := ytdlp.New().
		Format(f.format).
		NoPlaylist().
		ForceOverwrites().
		Quiet().
		Output(escapeTemplate(outputPath))
	if f.executable != "" {
		dl.SetExecutable(f.executable)
	}
	if f.maxDuration > 0 {
		dl.MatchFilters(fmt.Sprintf("duration <= %d", int(f.maxDuration.Seconds())))
	}

	if _, err := dl.Run(ctx, url); err != nil {
		return fmt.Errorf("yt-dlp: %w", err)
	}
	return nil
}

// escapeTemplate protects literal percent signs from yt-dlp's output templating.
func escapeTemplate(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}
