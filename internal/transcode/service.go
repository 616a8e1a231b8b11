package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/platform"
)

// Stage is the stage name attached to transcoding errors and logs
const Stage = "transcode"

// FFmpeg constants for the normalized clip format
const (
	// Audio codec settings
	AudioCodec    = "pcm_s16le"
	AudioBitDepth = 16
	OutputFormat  = "wav"

	// Defaults
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultTimeout    = 5 * time.Minute

	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
)

// Options configures the transcoding service.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	SampleRate    int
	Channels      int
	Timeout       time.Duration // per ffmpeg or ffprobe run
}

// Service converts downloaded media into WAV clips with a common format
type Service struct {
	runner    Runner
	workspace *platform.Workspace
	opts      Options
	logger    *slog.Logger
}

var _ Transcoder = (*Service)(nil)

// NewService creates a new transcoding service
func NewService(runner Runner, ws *platform.Workspace, opts Options, logger *slog.Logger) *Service {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = FFmpegCommand
	}
	if strings.TrimSpace(opts.FFprobeBinary) == "" {
		opts.FFprobeBinary = FFprobeCommand
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{runner: runner, workspace: ws, opts: opts, logger: logger}
}

// Transcode converts video{index} into audio{index}.wav. A missing source
// and a failed conversion are both reported as missing_source so the caller
// can skip the item.
func (s *Service) Transcode(ctx context.Context, index int) (model.Clip, error) {
	inputPath := s.workspace.VideoPath(index)
	outputPath := s.workspace.AudioPath(index)

	if !platform.FileExists(inputPath) {
		return model.Clip{}, model.NewStageError(model.KindMissingSource, Stage, index,
			fmt.Errorf("source file does not exist: %s", inputPath))
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	args := s.BuildFFmpegArgs(inputPath, outputPath)
	if _, err := s.runner.Run(ctx, s.opts.FFmpegBinary, args...); err != nil {
		s.removePartial(outputPath)
		if errors.Is(err, context.Canceled) {
			return model.Clip{}, err
		}
		return model.Clip{}, model.NewStageError(model.KindMissingSource, Stage, index,
			fmt.Errorf("convert %s: %w", inputPath, err))
	}

	size, err := platform.FileSize(outputPath)
	if err != nil {
		return model.Clip{}, model.NewStageError(model.KindMissingSource, Stage, index,
			fmt.Errorf("ffmpeg produced no output: %w", err))
	}

	s.logger.Info("transcoded",
		slog.String(logging.FieldStage, Stage),
		slog.Int(logging.FieldIndex, index),
		slog.String(logging.FieldPath, outputPath),
	)
	return model.Clip{
		Index:      index,
		Path:       outputPath,
		SampleRate: s.opts.SampleRate,
		Channels:   s.opts.Channels,
		BitDepth:   AudioBitDepth,
		Size:       size,
	}, nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		"-vn",                                // Drop any video stream
		"-ac", strconv.Itoa(s.opts.Channels), // Channel count
		"-ar", strconv.Itoa(s.opts.SampleRate), // Sample rate
		"-c:a", AudioCodec, // Audio codec
		"-f", OutputFormat, // Container
		outputPath, // Output file
	}
}

// ProbeDuration gets the duration of a media file using ffprobe
func (s *Service) ProbeDuration(ctx context.Context, filePath string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	output, err := s.runner.Run(ctx, s.opts.FFprobeBinary,
		"-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	seconds, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

func (s *Service) removePartial(path string) {
	if err := platform.RemoveWithPartials(path); err != nil {
		s.logger.Warn("could not remove partial output", slog.String(logging.FieldPath, path), slog.Any("error", err))
	}
}
