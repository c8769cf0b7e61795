// Package watch feeds papers dropped into a directory to the batch pipeline.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/paperpal/internal/parser"
	"github.com/dgallion1/paperpal/internal/pipeline"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must go without writes before it is read.
const DefaultSettle = 500 * time.Millisecond

// Submitter accepts jobs for asynchronous processing.
type Submitter interface {
	Submit(job *pipeline.Job) error
}

// Watcher submits a job for every supported file created or rewritten in
// its directory. Subdirectories are not watched.
type Watcher struct {
	Settle time.Duration

	dir      string
	sub      Submitter
	log      *slog.Logger
	maxBytes int64
	fsw      *fsnotify.Watcher
	pending  map[string]time.Time
}

// New starts watching dir. Run must be called to process events and to
// release the underlying watcher.
func New(dir string, sub Submitter, log *slog.Logger, maxBytes int64) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		Settle:   DefaultSettle,
		dir:      dir,
		sub:      sub,
		log:      log.With("watch_dir", dir),
		maxBytes: maxBytes,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	tick := w.Settle / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.log.Info("watching for papers")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !parser.IsSupportedExtension(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.pending[ev.Name] = time.Now()
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
	}
}

// flush submits files that have been quiet for Settle.
func (w *Watcher) flush(now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.Settle {
			continue
		}
		delete(w.pending, path)
		w.submit(path)
	}
}

func (w *Watcher) submit(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	name := filepath.Base(path)
	if info.Size() == 0 {
		w.log.Debug("skip empty file", "file", name)
		return
	}
	if w.maxBytes > 0 && info.Size() > w.maxBytes {
		w.log.Warn("skip oversized file", "file", name, "bytes", info.Size(), "max", w.maxBytes)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read dropped file", "file", name, "error", err)
		return
	}

	job := pipeline.NewJob(name, "", data)
	if err := w.sub.Submit(job); err != nil {
		w.log.Warn("submit dropped file", "file", name, "job_id", job.ID, "error", err)
		return
	}
	w.log.Info("queued dropped file", "file", name, "job_id", job.ID)
}
