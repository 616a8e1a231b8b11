package pipeline

import (
	"context"
	"time"

	"github.com/ytget/yt-mashup/internal/download"
	"github.com/ytget/yt-mashup/internal/model"
)

// Discoverer picks the watch URLs for a run.
type Discoverer interface {
	Discover(ctx context.Context, performer string, count int) ([]string, error)
}

// Acquirer downloads the selected URLs into densely numbered files.
type Acquirer interface {
	Acquire(ctx context.Context, urls []string) (download.Result, error)
}

// Transcoder converts one downloaded file into a WAV clip.
type Transcoder interface {
	Transcode(ctx context.Context, index int) (model.Clip, error)
}

// Editor trims clips and assembles the final mashup.
type Editor interface {
	Trim(index int, leading time.Duration) (model.Clip, error)
	AssembleClips(outputPath string, indices []int) (model.Clip, error)
}
