package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/platform"
	"github.com/ytget/yt-mashup/internal/retry"
)

// Stage is the stage name attached to acquisition errors and logs
const Stage = "acquisition"

// Retry defaults
const (
	DefaultRetryLimit = 2
	DefaultBackoff    = 2 * time.Second
)

// ErrRejected marks media that must not be retried: yt-dlp filtered it out
// or the downloaded file exceeds the duration cap.
var ErrRejected = errors.New("media rejected")

// Options tunes the acquisition service.
type Options struct {
	RetryLimit  int           // additional attempts after the first one
	Backoff     time.Duration // wait between attempts
	MinInterval time.Duration // minimum spacing between download attempts
	MaxDuration time.Duration // 0 disables the cap
}

// Result summarizes one acquisition stage.
type Result struct {
	Downloaded int
	Tasks      []*model.DownloadTask
}

// Service handles download operations
type Service struct {
	fetcher   Fetcher
	prober    Prober
	workspace *platform.Workspace
	opts      Options
	limiter   *rate.Limiter
	logger    *slog.Logger

	tasksMutex sync.RWMutex
	onUpdate   func(*model.DownloadTask) // callback for status changes
}

// NewService creates a new download service. prober may be nil, which
// disables the post-download duration check.
func NewService(fetcher Fetcher, prober Prober, ws *platform.Workspace, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RetryLimit < 0 {
		opts.RetryLimit = 0
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Service{
		fetcher:   fetcher,
		prober:    prober,
		workspace: ws,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.onUpdate = callback
}

// Acquire downloads every URL in order. Successful downloads are numbered
// 1, 2, 3... with no gaps; an item that fails every attempt is skipped and
// does not consume a number. Only cancellation of ctx stops the stage early.
func (s *Service) Acquire(ctx context.Context, urls []string) (Result, error) {
	result := Result{Tasks: make([]*model.DownloadTask, 0, len(urls))}

	for _, url := range urls {
		task := newTask(url)
		result.Tasks = append(result.Tasks, task)
		s.notifyUpdate(task)

		index := result.Downloaded + 1
		err := s.downloadTask(ctx, task, index)
		if err == nil {
			result.Downloaded++
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.finish(task, model.TaskStatusCanceled, ctxErr)
			return result, ctxErr
		}

		s.finish(task, model.TaskStatusSkipped, err)
		stageErr := model.NewStageError(model.KindTransientDownload, Stage, 0, err)
		s.logger.Warn("skipping video",
			slog.String(logging.FieldStage, Stage),
			slog.String(logging.FieldURL, url),
			slog.Int(logging.FieldAttempt, task.Attempts),
			slog.Any("error", stageErr),
		)
	}

	return result, nil
}

// downloadTask runs the attempts for a single task and writes it to the
// path reserved for index.
func (s *Service) downloadTask(ctx context.Context, task *model.DownloadTask, index int) error {
	path := s.workspace.VideoPath(index)

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusDownloading
	task.StartedAt = time.Now()
	task.OutputPath = path
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	policy := retry.Policy{
		MaxAttempts: s.opts.RetryLimit + 1,
		Backoff:     s.opts.Backoff,
		OnRetry: func(attempt int, err error) {
			s.tasksMutex.Lock()
			task.Status = model.TaskStatusRetrying
			task.LastError = err.Error()
			s.tasksMutex.Unlock()
			s.notifyUpdate(task)
			s.logger.Info("download attempt failed",
				slog.String(logging.FieldStage, Stage),
				slog.String(logging.FieldURL, task.URL),
				slog.Int(logging.FieldAttempt, attempt),
				slog.Any("error", err),
			)
		},
	}

	duration, err := retry.WithRetries(ctx, policy, func(ctx context.Context, attempt int) (time.Duration, error) {
		s.tasksMutex.Lock()
		task.Attempts = attempt
		task.Status = model.TaskStatusDownloading
		s.tasksMutex.Unlock()
		return s.attempt(ctx, task.URL, path)
	})
	if err != nil {
		return err
	}

	size, _ := platform.FileSize(path)

	s.tasksMutex.Lock()
	task.Index = index
	task.FileSize = size
	task.Duration = duration
	task.LastError = ""
	s.tasksMutex.Unlock()
	s.finish(task, model.TaskStatusCompleted, nil)

	s.logger.Info("downloaded",
		slog.String(logging.FieldStage, Stage),
		slog.Int(logging.FieldIndex, index),
		slog.String(logging.FieldURL, task.URL),
		slog.String(logging.FieldPath, path),
	)
	return nil
}

// attempt performs one paced download and validates the result.
func (s *Service) attempt(ctx context.Context, url, path string) (time.Duration, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	if err := s.fetcher.Fetch(ctx, url, path); err != nil {
		s.cleanup(path)
		return 0, err
	}

	if !platform.FileExists(path) {
		s.cleanup(path)
		return 0, retry.Permanent(fmt.Errorf("%w: no file produced for %s", ErrRejected, url))
	}

	if s.prober == nil {
		return 0, nil
	}
	duration, err := s.prober.ProbeDuration(ctx, path)
	if err != nil {
		s.logger.Warn("could not probe duration",
			slog.String(logging.FieldStage, Stage),
			slog.String(logging.FieldPath, path),
			slog.Any("error", err),
		)
		return 0, nil
	}
	if s.opts.MaxDuration > 0 && duration > s.opts.MaxDuration {
		s.cleanup(path)
		return 0, retry.Permanent(fmt.Errorf("%w: duration %s exceeds %s", ErrRejected, duration.Round(time.Second), s.opts.MaxDuration))
	}
	return duration, nil
}

func (s *Service) cleanup(path string) {
	if err := platform.RemoveWithPartials(path); err != nil {
		s.logger.Warn("could not remove partial download", slog.String(logging.FieldPath, path), slog.Any("error", err))
	}
}

func (s *Service) finish(task *model.DownloadTask, status model.TaskStatus, err error) {
	s.tasksMutex.Lock()
	task.Status = status
	task.FinishedAt = time.Now()
	if err != nil {
		task.LastError = err.Error()
	}
	if status != model.TaskStatusCompleted {
		task.Index = 0
		task.OutputPath = ""
	}
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

func newTask(url string) *model.DownloadTask {
	return &model.DownloadTask{
		ID:      generateTaskID(),
		URL:     url,
		VideoID: videoIDFromURL(url),
		Status:  model.TaskStatusPending,
	}
}

func videoIDFromURL(url string) string {
	const marker = "v="
	i := strings.LastIndex(url, marker)
	if i < 0 {
		return ""
	}
	id := url[i+len(marker):]
	if j := strings.IndexAny(id, "&#"); j >= 0 {
		id = id[:j]
	}
	return id
}

// generateTaskID generates a unique task ID
func generateTaskID() string {
	return "task-" + uuid.NewString()
}
