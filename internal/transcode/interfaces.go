package transcode

import (
	"context"
	"time"

	"github.com/ytget/yt-mashup/internal/model"
)

// Transcoder defines the interface for the transcoding service.
type Transcoder interface {
	Transcode(ctx context.Context, index int) (model.Clip, error)
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
