package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_NoRotationWhenDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 0})
	if err != nil {
		t.Fatalf("NewRotatingWriter returned error: %v", err)
	}

	payload := strings.Repeat("x", 4096)
	for i := 0; i < 10; i++ {
		if _, err := rw.Write([]byte(payload)); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("Expected no backup file when rotation is disabled")
	}
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter returned error: %v", err)
	}

	// Each write is 256 KiB; five writes exceed the 1 MiB limit.
	payload := []byte(strings.Repeat("y", 256*1024))
	for i := 0; i < 5; i++ {
		if _, err := rw.Write(payload); err != nil {
			t.Fatalf("Write %d returned error: %v", i, err)
		}
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("Expected backup file after rotation: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat current log: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("Current log exceeds size limit: %d bytes", info.Size())
	}
}

func TestRotatingWriter_WriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter returned error: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("Expected error writing to closed writer")
	}
}
