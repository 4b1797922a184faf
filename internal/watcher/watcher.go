// Package watcher triggers a snapshot reload when the workbook changes on
// disk.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts editors and file copies produce
// into a single reload trigger.
const debounceDelay = 500 * time.Millisecond

// Watcher fires onChange after each debounced batch of filesystem events
// touching the watched file.
type Watcher struct {
	path     string
	onChange func()
	logger   *slog.Logger
	fw       *fsnotify.Watcher
	debounce time.Duration
}

// New watches the directory containing path; events for other files in the
// same directory are ignored. Watching the directory rather than the file
// keeps the watch alive across atomic saves that replace the file.
func New(path string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
		fw:       fw,
		debounce: debounceDelay,
	}, nil
}

// Run blocks until ctx is done, firing onChange once per debounced batch
// of events. The reload itself runs on this goroutine, so a change trigger
// never overlaps a previous one from the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.matches(ev) {
				continue
			}
			w.logger.Info("workbook changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.onChange()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Close stops delivering events and ends Run.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
