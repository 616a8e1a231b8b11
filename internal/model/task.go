package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DownloadTask represents the acquisition of a single selected video
type DownloadTask struct {
	ID         string
	URL        string
	VideoID    string
	Index      int // 1-based output index, 0 until the download succeeds
	Status     TaskStatus
	Attempts   int
	LastError  string        // last error message if any
	OutputPath string        // path to downloaded file
	FileSize   int64         // file size in bytes
	Duration   time.Duration // probed media duration, 0 if unknown
	StartedAt  time.Time
	FinishedAt time.Time
}

// GetDurationString returns Duration formatted as hh:mm:ss or mm:ss, or "—" if unknown
func (dt *DownloadTask) GetDurationString() string {
	return FormatClock(dt.Duration)
}

// GetDisplayName returns the output filename, video ID, or URL in order of preference
func (dt *DownloadTask) GetDisplayName() string {
	if dt.OutputPath != "" {
		return filepath.Base(dt.OutputPath)
	}
	if dt.VideoID != "" {
		return dt.VideoID
	}
	return dt.URL
}

// Elapsed returns how long the task ran, or 0 if it never finished
func (dt *DownloadTask) Elapsed() time.Duration {
	if dt.StartedAt.IsZero() || dt.FinishedAt.IsZero() {
		return 0
	}
	return dt.FinishedAt.Sub(dt.StartedAt)
}

// FormatClock renders a duration as hh:mm:ss, or mm:ss below one hour
func FormatClock(d time.Duration) string {
	if d <= 0 {
		return "—"
	}

	total := int(d.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var b strings.Builder
	if hours > 0 {
		b.WriteString(fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%02d:%02d", minutes, seconds))
	return b.String()
}
