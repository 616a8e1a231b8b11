package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// File naming convention shared by the pipeline stages
const (
	VideoPrefix     = "video"
	AudioPrefix     = "audio"
	CutAudioPrefix  = "cut_audio"
	SourceExtension = ".webm"
	WaveExtension   = ".wav"
	LockFileName    = ".yt-mashup.lock"
)

// ErrWorkspaceBusy is returned when another run holds the workspace lock.
var ErrWorkspaceBusy = errors.New("workspace is in use by another run")

// Workspace carries the resolved directories of a run. It replaces any
// reliance on the process working directory: every stage receives paths
// from here.
type Workspace struct {
	Root         string
	DownloadsDir string
	AudioDir     string

	lock *flock.Flock
}

// NewWorkspace resolves root to an absolute path and places the downloads and
// audio directories under it unless they are absolute already.
func NewWorkspace(root, downloadsDir, audioDir string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root %q: %w", root, err)
	}
	return &Workspace{
		Root:         absRoot,
		DownloadsDir: resolveUnder(absRoot, downloadsDir),
		AudioDir:     resolveUnder(absRoot, audioDir),
	}, nil
}

// Ensure creates the workspace directories if they are missing.
func (w *Workspace) Ensure() error {
	for _, dir := range []string{w.Root, w.DownloadsDir, w.AudioDir} {
		if err := CreateDirectoryIfNotExists(dir); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Lock takes an exclusive, non-blocking lock on the workspace.
func (w *Workspace) Lock() error {
	if w.lock == nil {
		w.lock = flock.New(filepath.Join(w.Root, LockFileName))
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return ErrWorkspaceBusy
	}
	return nil
}

// Unlock releases the workspace lock if held.
func (w *Workspace) Unlock() error {
	if w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// VideoPath returns downloads/video{i}.webm
func (w *Workspace) VideoPath(index int) string {
	return filepath.Join(w.DownloadsDir, indexedName(VideoPrefix, index, SourceExtension))
}

// AudioPath returns audio/audio{i}.wav
func (w *Workspace) AudioPath(index int) string {
	return filepath.Join(w.AudioDir, indexedName(AudioPrefix, index, WaveExtension))
}

// CutAudioPath returns audio/cut_audio{i}.wav
func (w *Workspace) CutAudioPath(index int) string {
	return filepath.Join(w.AudioDir, indexedName(CutAudioPrefix, index, WaveExtension))
}

// ResolveOutput places a relative output file name under the workspace root.
func (w *Workspace) ResolveOutput(name string) string {
	return resolveUnder(w.Root, name)
}

func indexedName(prefix string, index int, ext string) string {
	return prefix + strconv.Itoa(index) + ext
}

func resolveUnder(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
