// Package watcher monitors spool directories for receipt event files.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports spool files that have grown since they were last ingested.
// It uses fsnotify when available and always keeps a polling fallback running
// for filesystems that drop events.
type Watcher struct {
	dirs         []string
	mu           sync.Mutex
	sizes        map[string]int64 // path -> size at last ingest
	pollInterval time.Duration
	onChange     func(paths []string)
	stop         chan struct{}
	wg           sync.WaitGroup
}

// New returns a watcher over the given spool directories.
func New(dirs []string, pollInterval time.Duration, onChange func(paths []string)) *Watcher {
	return &Watcher{
		dirs:         dirs,
		sizes:        make(map[string]int64),
		pollInterval: pollInterval,
		onChange:     onChange,
		stop:         make(chan struct{}),
	}
}

// Scan returns every .jsonl spool file currently present.
func (w *Watcher) Scan() ([]string, error) {
	var files []string
	for _, dir := range w.dirs {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // skip unreadable entries
			}
			if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// MarkIngested records that path has been ingested up to its current size,
// so only further growth triggers another callback.
func (w *Watcher) MarkIngested(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.sizes[path] = info.Size()
	w.mu.Unlock()
}

// Start launches the fsnotify listener and the polling fallback.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		for _, dir := range w.dirs {
			_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					_ = fsw.Add(path)
				}
				return nil
			})
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case event, ok := <-fsw.Events:
					if !ok {
						return
					}
					if filepath.Ext(event.Name) == ".jsonl" &&
						(event.Op&fsnotify.Write != 0 || event.Op&fsnotify.Create != 0) {
						w.checkFile(event.Name)
					}
				case _, ok := <-fsw.Errors:
					// Drained so an error burst cannot block event delivery;
					// the polling loop covers anything missed.
					if !ok {
						return
					}
				case <-w.stop:
					_ = fsw.Close()
					return
				}
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.pollAll()
			case <-w.stop:
				return
			}
		}
	}()

	return nil
}

// Stop signals the goroutines to exit and waits for them.
func (w *Watcher) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Watcher) checkFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	last := w.sizes[path]
	w.mu.Unlock()

	if info.Size() > last {
		w.onChange([]string{path})
	}
}

func (w *Watcher) pollAll() {
	files, err := w.Scan()
	if err != nil {
		return
	}

	var changed []string
	w.mu.Lock()
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Size() > w.sizes[path] {
			changed = append(changed, path)
		}
	}
	w.mu.Unlock()

	if len(changed) > 0 {
		w.onChange(changed)
	}
}
