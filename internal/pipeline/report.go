package pipeline

import (
	"time"

	"github.com/ytget/yt-mashup/internal/model"
)

// Report is the in-memory summary of one run.
type Report struct {
	RunID      string
	Performer  string
	Requested  int
	Leading    time.Duration
	URLs       []string
	Tasks      []*model.DownloadTask
	Skipped    []int // indices that produced no clip during transcoding
	Clips      []model.Clip
	Output     model.Clip
	StartedAt  time.Time
	FinishedAt time.Time
}

// Downloaded returns the number of successful downloads.
func (r *Report) Downloaded() int {
	n := 0
	for _, task := range r.Tasks {
		if task.Status == model.TaskStatusCompleted {
			n++
		}
	}
	return n
}

// Elapsed returns the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ClipFor returns the trimmed clip with the given index, if any.
func (r *Report) ClipFor(index int) (model.Clip, bool) {
	for _, clip := range r.Clips {
		if clip.Index == index {
			return clip, true
		}
	}
	return model.Clip{}, false
}
