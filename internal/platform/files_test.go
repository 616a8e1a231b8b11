package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	// Create temporary directory for testing
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir", "nested")

	// Directory should not exist initially
	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	// Create directory
	err := CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	// Directory should now exist
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	err = CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestFileExistsAndSize(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "video1.webm")

	if FileExists(path) {
		t.Error("Expected file to not exist yet")
	}
	if FileExists(tempDir) {
		t.Error("Expected directory not to count as a file")
	}

	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !FileExists(path) {
		t.Error("Expected file to exist")
	}

	size, err := FileSize(path)
	if err != nil {
		t.Fatalf("FileSize: %v", err)
	}
	if size != 5 {
		t.Errorf("Expected size 5, got %d", size)
	}
}

func TestRemoveWithPartials(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "video2.webm")
	for _, p := range []string{path, path + ".part", path + ".ytdl"} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	if err := RemoveWithPartials(path); err != nil {
		t.Fatalf("RemoveWithPartials: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty directory, found %d entries", len(entries))
	}

	// Nothing left to remove is fine
	if err := RemoveWithPartials(path); err != nil {
		t.Errorf("Expected no error on missing files, got %v", err)
	}
}
