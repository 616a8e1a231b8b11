package download

import (
	"context"
	"time"
)

// Fetcher downloads the audio of one URL to an exact output path.
type Fetcher interface {
	Fetch(ctx context.Context, url, outputPath string) error
}

// Prober reports the playback length of a media file.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}
