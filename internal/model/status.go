package model

// TaskStatus represents the status of a single item moving through the pipeline
type TaskStatus string

const (
	// TaskStatusPending means the item is selected but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusDownloading means a download attempt is in progress
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusRetrying means the last attempt failed and another one is scheduled
	TaskStatusRetrying TaskStatus = "Retrying"

	// TaskStatusCompleted means the media file is on disk
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusSkipped means every attempt failed, or the media was rejected
	TaskStatusSkipped TaskStatus = "Skipped"

	// TaskStatusCanceled means the run was interrupted while the task was active
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

