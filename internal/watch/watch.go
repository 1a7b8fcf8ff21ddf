// Package watch reports changes to a fixed set of files.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/internal/logger"
)

// DefaultDebounce is how long a burst of events must be quiet before the
// callback runs.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches files through their parent directories so that editors
// replacing a file by rename are still noticed.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	Debounce time.Duration
}

// New watches paths. Empty paths are ignored.
func New(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fs: fw, files: make(map[string]bool), Debounce: DefaultDebounce}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Files returns the watched files in sorted order.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run calls onChange with the changed files once events stop arriving for
// Debounce. It blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	log := logger.Named("watch")

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !w.files[name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) {
				continue
			}
			log.Debug("file changed", zap.String("path", name), zap.Stringer("op", ev.Op))
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(changed)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
