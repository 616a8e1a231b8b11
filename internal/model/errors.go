package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies stage failures so the orchestrator can decide whether
// to skip the item or abort the run.
type ErrorKind string

const (
	// KindUsage is a malformed command line; nothing was attempted
	KindUsage ErrorKind = "usage"

	// KindInsufficientResults means discovery found fewer distinct candidates than requested
	KindInsufficientResults ErrorKind = "insufficient_results"

	// KindTransientDownload is a per-item download failure after retries
	KindTransientDownload ErrorKind = "transient_download"

	// KindMissingSource is an expected intermediate file that does not exist
	KindMissingSource ErrorKind = "missing_source"

	// KindFatalIO is a failure reading or writing audio during trim or assembly
	KindFatalIO ErrorKind = "fatal_io"
)

// Recoverable reports whether the run continues past an error of this kind
func (k ErrorKind) Recoverable() bool {
	return k == KindTransientDownload || k == KindMissingSource
}

// StageError carries the kind, stage and item index of a pipeline failure
type StageError struct {
	Kind  ErrorKind
	Stage string
	Index int // 0 when the error is not tied to an item
	Err   error
}

func (e *StageError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s: item %d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with a kind and the stage that produced it
func NewStageError(kind ErrorKind, stage string, index int, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Index: index, Err: err}
}

// KindOf returns the kind of the first StageError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a StageError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
