package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScanFindsSpoolFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, name := range []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(sub, "b.jsonl"),
		filepath.Join(dir, "ignore.txt"),
	} {
		if err := os.WriteFile(name, []byte("{}\n"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	w := New([]string{dir}, time.Second, func([]string) {})
	files, err := w.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 .jsonl: %v", len(files), files)
	}
}

func TestWatcherReportsGrowth(t *testing.T) {
	dir := t.TempDir()
	spool := filepath.Join(dir, "events.jsonl")
	if err := os.WriteFile(spool, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	changed := make(chan []string, 8)
	w := New([]string{dir}, 20*time.Millisecond, func(paths []string) {
		changed <- paths
	})
	w.MarkIngested(spool)

	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	// Ingested size is current, so nothing fires until the file grows.
	select {
	case paths := <-changed:
		t.Fatalf("unexpected change before growth: %v", paths)
	case <-time.After(100 * time.Millisecond):
	}

	f, err := os.OpenFile(spool, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString(`{"type":"receipt"}` + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	select {
	case paths := <-changed:
		if len(paths) == 0 || filepath.Base(paths[0]) != "events.jsonl" {
			t.Fatalf("changed paths = %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported after file growth")
	}
}
