// Package dropfolder turns files landing in a directory into drops on an
// upload.DropZone.
package dropfolder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kdimtricp/deepscan/internal/upload"
)

// DefaultSettle is how long a file must stop changing before it is dropped.
const DefaultSettle = 500 * time.Millisecond

var errSkipped = errors.New("not a regular file")

// HandledFunc observes the outcome of every drop.
type HandledFunc func(path string, err error)

type Options struct {
	Settle  time.Duration
	Logger  *slog.Logger
	Handled HandledFunc
}

type Watcher struct {
	dir     string
	zone    upload.DropZone
	settle  time.Duration
	logger  *slog.Logger
	handled HandledFunc

	fsw   *fsnotify.Watcher
	ready chan string
	done  chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New starts watching dir. Run must be called to deliver drops.
func New(dir string, zone upload.DropZone, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Watcher{
		dir:     dir,
		zone:    zone,
		settle:  opts.Settle,
		logger:  opts.Logger,
		handled: opts.Handled,
		fsw:     fsw,
		ready:   make(chan string),
		done:    make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Run delivers settled files until ctx is done. A drop refused because the
// zone is busy is retried after the settle period.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)

		case path := <-w.ready:
			err := w.drop(path)
			if errors.Is(err, errSkipped) {
				continue
			}
			if errors.Is(err, upload.ErrDisabled) {
				w.logger.Debug("drop zone busy, retrying", "path", path)
				w.schedule(path)
				continue
			}
			if err != nil {
				w.logger.Warn("drop rejected", "path", path, "error", err)
			}
			if w.handled != nil {
				w.handled(path, err)
			}
		}
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	if ignored(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) drop(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return errSkipped
	}

	candidate, f, err := upload.OpenLocal(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w.zone.OnEnter()
	w.zone.OnOver()
	return w.zone.OnDrop([]upload.Candidate{candidate})
}

func (w *Watcher) stop() {
	close(w.done)

	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("failed to close watcher", "error", err)
	}
}

// ignored skips hidden and partial download files.
func ignored(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".part", ".crdownload", ".tmp":
		return true
	}
	return false
}
