package platform

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare id", "PL1234567890", "PL1234567890"},
		{"playlist url", "https://www.youtube.com/playlist?list=PLabc", "PLabc"},
		{"watch url with extra params", "https://www.youtube.com/watch?v=VIDEO_ID&list=PLxyz&index=2", "PLxyz"},
		{"url without list", "https://www.youtube.com/watch?v=VIDEO_ID", ""},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPlaylistID(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNewPlaylistSourceRejectsInvalid(t *testing.T) {
	if _, err := NewPlaylistSource("https://example.com/nothing"); err == nil {
		t.Fatal("expected error for URL without playlist")
	}
}

func TestPlaylistSourceCandidates(t *testing.T) {
	src, err := NewPlaylistSource("https://www.youtube.com/playlist?list=PLtest")
	if err != nil {
		t.Fatalf("NewPlaylistSource: %v", err)
	}
	src.SetTimeout(time.Second)

	var gotID string
	src.listIDs = func(ctx context.Context, playlistID string) ([]string, error) {
		gotID = playlistID
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the listing context")
		}
		return []string{"aaaaaaaaaaa", "short", "bbbbbbbbbbb", "aaaaaaaaaaa"}, nil
	}

	result, err := src.Candidates(context.Background(), "Artist songs")
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if gotID != "PLtest" {
		t.Errorf("expected playlist ID PLtest, got %s", gotID)
	}
	expected := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "aaaaaaaaaaa"}
	if !reflect.DeepEqual(result.IDs, expected) {
		t.Errorf("expected %v, got %v", expected, result.IDs)
	}
	if result.Query != "Artist songs" {
		t.Errorf("expected query to be recorded, got %q", result.Query)
	}
}

func TestPlaylistSourceCandidatesError(t *testing.T) {
	src, _ := NewPlaylistSource("PLbroken")
	src.listIDs = func(ctx context.Context, playlistID string) ([]string, error) {
		return nil, errors.New("private playlist")
	}

	if _, err := src.Candidates(context.Background(), ""); err == nil {
		t.Fatal("expected error from failing listing")
	}
}
