package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/platform"
)

// Stage is the stage name attached to request validation errors
const Stage = "pipeline"

// Request describes one mashup run.
type Request struct {
	RunID     string // generated when empty
	Performer string
	Count     int
	Leading   time.Duration
	Output    string // relative paths resolve against the workspace root
}

// Validate checks the request before anything touches the network or disk.
func (r Request) Validate() error {
	var problems []error
	if strings.TrimSpace(r.Performer) == "" {
		problems = append(problems, errors.New("performer name must not be empty"))
	}
	if r.Count <= 0 {
		problems = append(problems, fmt.Errorf("number of videos must be positive, got %d", r.Count))
	}
	if r.Leading <= 0 {
		problems = append(problems, fmt.Errorf("audio duration must be positive, got %s", r.Leading))
	}
	if strings.TrimSpace(r.Output) == "" {
		problems = append(problems, errors.New("output file name must not be empty"))
	}
	if err := errors.Join(problems...); err != nil {
		return model.NewStageError(model.KindUsage, Stage, 0, err)
	}
	return nil
}

// Stages groups the collaborators a Runner drives.
type Stages struct {
	Discovery  Discoverer
	Acquirer   Acquirer
	Transcoder Transcoder
	Editor     Editor
}

// Runner executes the stages strictly in order.
type Runner struct {
	workspace *platform.Workspace
	stages    Stages
	logger    *slog.Logger
}

// NewRunner creates a runner over ws.
func NewRunner(ws *platform.Workspace, stages Stages, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{workspace: ws, stages: stages, logger: logger}
}

// NewRunID returns a time-ordered identifier for a run.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Run performs discovery, acquisition, transcoding, trimming and assembly.
// Download and transcoding failures of single items are logged and skipped;
// every other error ends the run and is returned with the partial report.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RunID == "" {
		req.RunID = NewRunID()
	}
	logger := r.logger.With(slog.String(logging.FieldRunID, req.RunID))

	report := &Report{
		RunID:     req.RunID,
		Performer: strings.TrimSpace(req.Performer),
		Requested: req.Count,
		Leading:   req.Leading,
		StartedAt: time.Now(),
	}
	defer func() { report.FinishedAt = time.Now() }()

	if err := r.workspace.Ensure(); err != nil {
		return report, err
	}
	if err := r.workspace.Lock(); err != nil {
		return report, err
	}
	defer func() {
		if err := r.workspace.Unlock(); err != nil {
			logger.Warn("could not release workspace lock", slog.Any("error", err))
		}
	}()

	logger.Info("starting mashup",
		slog.String("performer", report.Performer),
		slog.Int("videos", req.Count),
		slog.Duration("leading", req.Leading),
		slog.String(logging.FieldPath, r.workspace.Root),
	)

	urls, err := r.stages.Discovery.Discover(ctx, report.Performer, req.Count)
	if err != nil {
		return report, err
	}
	report.URLs = urls

	acquired, err := r.stages.Acquirer.Acquire(ctx, urls)
	report.Tasks = acquired.Tasks
	if err != nil {
		return report, err
	}
	logger.Info("downloads finished", slog.Int("downloaded", acquired.Downloaded), slog.Int("requested", req.Count))

	produced, err := r.transcodeAll(ctx, logger, acquired.Downloaded, report)
	if err != nil {
		return report, err
	}

	trimmed := make([]int, 0, len(produced))
	for _, index := range produced {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		clip, err := r.stages.Editor.Trim(index, req.Leading)
		if err != nil {
			return report, err
		}
		report.Clips = append(report.Clips, clip)
		trimmed = append(trimmed, index)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	output, err := r.stages.Editor.AssembleClips(r.workspace.ResolveOutput(req.Output), trimmed)
	if err != nil {
		return report, err
	}
	report.Output = output

	logger.Info("mashup complete",
		slog.String(logging.FieldPath, output.Path),
		slog.Duration("duration", output.Duration()),
		slog.Int("clips", len(trimmed)),
	)
	return report, nil
}

// transcodeAll converts the indices this run downloaded, 1..count, and returns
// the ones that produced a clip. Files with higher indices left over from an
// earlier run in the same workspace are never read.
func (r *Runner) transcodeAll(ctx context.Context, logger *slog.Logger, count int, report *Report) ([]int, error) {
	produced := make([]int, 0, count)
	for index := 1; index <= count; index++ {
		if _, err := r.stages.Transcoder.Transcode(ctx, index); err != nil {
			if kind, ok := model.KindOf(err); ok && kind.Recoverable() {
				logger.Warn("skipping clip",
					slog.String(logging.FieldStage, "transcode"),
					slog.Int(logging.FieldIndex, index),
					slog.Any("error", err),
				)
				report.Skipped = append(report.Skipped, index)
				continue
			}
			return nil, err
		}
		produced = append(produced, index)
	}
	return produced, nil
}
