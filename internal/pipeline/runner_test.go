package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-mashup/internal/audio"
	"github.com/ytget/yt-mashup/internal/discovery"
	"github.com/ytget/yt-mashup/internal/download"
	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/platform"
	"github.com/ytget/yt-mashup/internal/transcode"
)

type staticSource struct {
	ids []string
}

func (s staticSource) Candidates(ctx context.Context, query string) (model.SearchResult, error) {
	return model.SearchResult{Query: query, IDs: s.ids}, nil
}

type countingFetcher struct {
	calls int
	fail  map[string]bool
}

func (f *countingFetcher) Fetch(ctx context.Context, url, outputPath string) error {
	f.calls++
	if f.fail[url] {
		return errors.New("HTTP Error 403")
	}
	return os.WriteFile(outputPath, []byte("webm"), 0o644)
}

// wavRunner stands in for ffmpeg by writing a mono one-minute clip at 8 kHz.
type wavRunner struct{}

func (wavRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out := args[len(args)-1]
	b := &audio.Buffer{SampleRate: 8000, Channels: 1, BitDepth: 16, Data: make([]int, 8000*60)}
	return nil, audio.WriteWAV(out, b)
}

func candidateIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strings.Repeat(string(rune('a'+i)), model.VideoIDLength)
	}
	return ids
}

type harness struct {
	ws      *platform.Workspace
	fetcher *countingFetcher
	runner  *Runner
}

func newHarness(t *testing.T, pool int) *harness {
	t.Helper()
	ws, err := platform.NewWorkspace(t.TempDir(), "downloads", "audio")
	require.NoError(t, err)

	logger := logging.Discard()
	fetcher := &countingFetcher{fail: map[string]bool{}}
	stages := Stages{
		Discovery:  discovery.NewService(staticSource{ids: candidateIDs(pool)}, "songs", nil, logger),
		Acquirer:   download.NewService(fetcher, nil, ws, download.Options{RetryLimit: 2}, logger),
		Transcoder: transcode.NewService(wavRunner{}, ws, transcode.Options{}, logger),
		Editor:     audio.NewService(ws, logger),
	}
	return &harness{ws: ws, fetcher: fetcher, runner: NewRunner(ws, stages, logger)}
}

func countFiles(t *testing.T, dir, prefix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			n++
		}
	}
	return n
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t, 8)

	report, err := h.runner.Run(context.Background(), Request{
		Performer: "ArtistX",
		Count:     3,
		Leading:   10 * time.Second,
		Output:    "out.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(h.ws.Root, "out.wav"), report.Output.Path)
	assert.Equal(t, 30*time.Second, report.Output.Duration())
	assert.Equal(t, 3, report.Downloaded())
	assert.Len(t, report.Clips, 3)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Skipped)

	assert.Equal(t, 3, countFiles(t, h.ws.DownloadsDir, platform.VideoPrefix))
	assert.Equal(t, 3, countFiles(t, h.ws.AudioDir, platform.AudioPrefix))
	assert.Equal(t, 3, countFiles(t, h.ws.AudioDir, platform.CutAudioPrefix))

	decoded, err := audio.ReadWAV(report.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, decoded.Duration())
}

func TestRunInsufficientResultsBeforeDownload(t *testing.T) {
	h := newHarness(t, 4)

	_, err := h.runner.Run(context.Background(), Request{
		Performer: "ArtistX",
		Count:     5,
		Leading:   10 * time.Second,
		Output:    "out.wav",
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInsufficientResults))
	assert.Zero(t, h.fetcher.calls)
	assert.False(t, platform.FileExists(h.ws.ResolveOutput("out.wav")))
}

func TestRunSkipsFailedDownload(t *testing.T) {
	h := newHarness(t, 3)
	for _, id := range candidateIDs(3)[:1] {
		h.fetcher.fail[model.WatchURL(id)] = true
	}

	report, err := h.runner.Run(context.Background(), Request{
		Performer: "ArtistX",
		Count:     3,
		Leading:   5 * time.Second,
		Output:    "nested/out.wav",
	})
	require.NoError(t, err)

	// Two downloads become video1 and video2; index 3 is never transcoded.
	assert.Equal(t, 2, report.Downloaded())
	assert.Empty(t, report.Skipped)
	assert.Len(t, report.Clips, 2)
	assert.Equal(t, 10*time.Second, report.Output.Duration())
	assert.Equal(t, 5, h.fetcher.calls)
}

func TestRunIgnoresStaleFilesFromEarlierRun(t *testing.T) {
	h := newHarness(t, 3)
	h.fetcher.fail[model.WatchURL(candidateIDs(3)[0])] = true

	require.NoError(t, h.ws.Ensure())
	require.NoError(t, os.WriteFile(h.ws.VideoPath(3), []byte("stale webm"), 0o644))
	require.NoError(t, audio.WriteWAV(h.ws.CutAudioPath(3), &audio.Buffer{SampleRate: 8000, Channels: 1, BitDepth: 16, Data: make([]int, 8000*5)}))

	report, err := h.runner.Run(context.Background(), Request{
		Performer: "ArtistX",
		Count:     3,
		Leading:   5 * time.Second,
		Output:    "out.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Downloaded())
	assert.Len(t, report.Clips, 2)
	assert.Equal(t, 10*time.Second, report.Output.Duration())
	assert.False(t, platform.FileExists(h.ws.AudioPath(3)), "stale source must not be transcoded")
}

func TestRunNothingDownloadedIsFatal(t *testing.T) {
	h := newHarness(t, 1)
	h.fetcher.fail[model.WatchURL(candidateIDs(1)[0])] = true

	_, err := h.runner.Run(context.Background(), Request{
		Performer: "ArtistX",
		Count:     1,
		Leading:   5 * time.Second,
		Output:    "out.wav",
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindFatalIO))
}

func TestRunWorkspaceBusy(t *testing.T) {
	h := newHarness(t, 3)
	other, err := platform.NewWorkspace(h.ws.Root, "downloads", "audio")
	require.NoError(t, err)
	require.NoError(t, other.Lock())
	defer other.Unlock()

	_, err = h.runner.Run(context.Background(), Request{Performer: "ArtistX", Count: 1, Leading: time.Second, Output: "out.wav"})
	assert.ErrorIs(t, err, platform.ErrWorkspaceBusy)
}

func TestRequestValidate(t *testing.T) {
	err := Request{Performer: " ", Count: 0, Leading: 0, Output: ""}.Validate()
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindUsage))
	assert.Contains(t, err.Error(), "number of videos")
	assert.Contains(t, err.Error(), "audio duration")

	assert.NoError(t, Request{Performer: "a", Count: 1, Leading: time.Second, Output: "o.wav"}.Validate())
}
