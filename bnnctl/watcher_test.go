package bnnctl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestImageWatcherQueuesJobs(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	w, err := NewImageWatcher(dir, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	jobs := make(chan Job, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx, jobs)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	img := testImage(cfg.Capacity(), 3)
	if err := os.WriteFile(filepath.Join(dir, "digit.bin"), img, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case job := <-jobs:
		if job.Source != "file:digit.bin" {
			t.Errorf("Expected source file:digit.bin, got %s", job.Source)
		}
		if string(job.Image) != string(img) {
			t.Error("Expected the packed file contents")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("No job queued")
	}
}

func TestImageWatcherSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	w, err := NewImageWatcher(dir, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	path := filepath.Join(dir, "short.bin")
	os.WriteFile(path, []byte{1, 2}, 0o644)
	if _, ok := w.handle(path); ok {
		t.Error("Expected a short packed file to be skipped")
	}

	calls := 0
	w.Load = func(path string, cfg Config) ([]byte, error) {
		calls++
		return []byte{1}, nil
	}
	if _, ok := w.handle(path); !ok {
		t.Error("Expected the file to load")
	}
	if _, ok := w.handle(path); ok || calls != 1 {
		t.Errorf("Expected an unchanged file to be handled once, got %d loads", calls)
	}
}

func TestNewImageWatcherMissingDir(t *testing.T) {
	if _, err := NewImageWatcher(filepath.Join(t.TempDir(), "nope"), DefaultConfig()); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
