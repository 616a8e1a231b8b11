package model

import (
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{-time.Second, "—"},
		{0, "—"},
		{30 * time.Second, "00:30"},
		{90 * time.Second, "01:30"},
		{time.Hour, "01:00:00"},
		{3661 * time.Second, "01:01:01"},
		{7323 * time.Second, "02:02:03"},
		{1500 * time.Millisecond, "00:02"},
	}

	for _, test := range tests {
		result := FormatClock(test.duration)
		if result != test.expected {
			t.Errorf("FormatClock(%v) = %s, expected %s", test.duration, result, test.expected)
		}
	}
}

func TestDownloadTask_GetDisplayName(t *testing.T) {
	tests := []struct {
		outputPath string
		videoID    string
		url        string
		expected   string
	}{
		{"/work/downloads/video1.webm", "abcdefghijk", "https://www.youtube.com/watch?v=abcdefghijk", "video1.webm"},
		{"", "abcdefghijk", "https://www.youtube.com/watch?v=abcdefghijk", "abcdefghijk"},
		{"", "", "https://www.youtube.com/watch?v=abcdefghijk", "https://www.youtube.com/watch?v=abcdefghijk"},
	}

	for _, test := range tests {
		task := &DownloadTask{
			OutputPath: test.outputPath,
			VideoID:    test.videoID,
			URL:        test.url,
		}
		result := task.GetDisplayName()
		if result != test.expected {
			t.Errorf("GetDisplayName() with path='%s', id='%s' = '%s', expected '%s'",
				test.outputPath, test.videoID, result, test.expected)
		}
	}
}

func TestDownloadTask_Elapsed(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := &DownloadTask{StartedAt: start}

	if task.Elapsed() != 0 {
		t.Errorf("Expected 0 elapsed for unfinished task, got %v", task.Elapsed())
	}

	task.FinishedAt = start.Add(42 * time.Second)
	if task.Elapsed() != 42*time.Second {
		t.Errorf("Expected 42s elapsed, got %v", task.Elapsed())
	}
}

func TestDownloadTask_GetDurationString(t *testing.T) {
	task := &DownloadTask{Duration: 245 * time.Second}
	if got := task.GetDurationString(); got != "04:05" {
		t.Errorf("Expected '04:05', got '%s'", got)
	}
}
