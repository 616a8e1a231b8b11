package audio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/platform"
)

// Stage names attached to errors and logs
const (
	TrimStage     = "trim"
	AssembleStage = "assemble"
)

// Service trims transcoded clips and assembles the final mashup.
type Service struct {
	workspace *platform.Workspace
	logger    *slog.Logger
}

// NewService creates a new audio service
func NewService(ws *platform.Workspace, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{workspace: ws, logger: logger}
}

// Trim keeps the first leading part of audio{index}.wav and writes it to
// cut_audio{index}.wav. A clip shorter than leading is kept whole. Any read
// or write failure is fatal_io.
func (s *Service) Trim(index int, leading time.Duration) (model.Clip, error) {
	inputPath := s.workspace.AudioPath(index)
	outputPath := s.workspace.CutAudioPath(index)

	cut, err := ReadWAVHead(inputPath, leading)
	if err != nil {
		return model.Clip{}, model.NewStageError(model.KindFatalIO, TrimStage, index, err)
	}
	if cut.Frames() < cut.FramesFor(leading) {
		s.logger.Warn("clip shorter than requested duration, keeping whole clip",
			slog.String(logging.FieldStage, TrimStage),
			slog.Int(logging.FieldIndex, index),
			slog.Duration("clip", cut.Duration()),
			slog.Duration("requested", leading),
		)
	}

	if err := WriteWAV(outputPath, cut); err != nil {
		return model.Clip{}, model.NewStageError(model.KindFatalIO, TrimStage, index, err)
	}

	s.logger.Info("trimmed",
		slog.String(logging.FieldStage, TrimStage),
		slog.Int(logging.FieldIndex, index),
		slog.String(logging.FieldPath, outputPath),
		slog.Duration("duration", cut.Duration()),
	)
	return clipFor(index, outputPath, cut), nil
}

// Assemble concatenates cut_audio1..count in index order into outputPath.
func (s *Service) Assemble(outputPath string, count int) (model.Clip, error) {
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i + 1
	}
	return s.AssembleClips(outputPath, indices)
}

// AssembleClips concatenates the trimmed clips for the given indices, in the
// order given, and writes the result once to outputPath.
func (s *Service) AssembleClips(outputPath string, indices []int) (model.Clip, error) {
	if len(indices) == 0 {
		return model.Clip{}, model.NewStageError(model.KindFatalIO, AssembleStage, 0, fmt.Errorf("no clips to assemble"))
	}

	combined := &Buffer{}
	for _, index := range indices {
		clip, err := ReadWAV(s.workspace.CutAudioPath(index))
		if err != nil {
			return model.Clip{}, model.NewStageError(model.KindFatalIO, AssembleStage, index, err)
		}
		if err := combined.Append(clip); err != nil {
			return model.Clip{}, model.NewStageError(model.KindFatalIO, AssembleStage, index, err)
		}
	}

	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(outputPath)); err != nil {
		return model.Clip{}, model.NewStageError(model.KindFatalIO, AssembleStage, 0, err)
	}
	if err := WriteWAV(outputPath, combined); err != nil {
		return model.Clip{}, model.NewStageError(model.KindFatalIO, AssembleStage, 0, err)
	}

	s.logger.Info("assembled",
		slog.String(logging.FieldStage, AssembleStage),
		slog.Int("clips", len(indices)),
		slog.String(logging.FieldPath, outputPath),
		slog.Duration("duration", combined.Duration()),
	)
	return clipFor(0, outputPath, combined), nil
}

func clipFor(index int, path string, b *Buffer) model.Clip {
	size, _ := platform.FileSize(path)
	return model.Clip{
		Index:      index,
		Path:       path,
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   b.BitDepth,
		Frames:     b.Frames(),
		Size:       size,
	}
}
