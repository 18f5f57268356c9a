package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"agentic-rag-go/pkg/log"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls onChange once a burst of changes to supported files in a directory settles.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context)
}

// NewWatcher returns a watcher for dir. A debounce of zero defaults to two seconds.
func NewWatcher(dir string, debounce time.Duration, onChange func(ctx context.Context)) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return err
	}
	log.Infof("[Watcher] watching '%s' (debounce %s)", w.dir, w.debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			log.Debugf("[Watcher] %s %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warnf("[Watcher] watch error: %v", err)
		case <-fire:
			fire = nil
			log.Infof("[Watcher] changes settled in '%s', rebuilding", w.dir)
			w.onChange(ctx)
		}
	}
}

// relevant filters out chmod-only events, hidden files and unsupported extensions.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return IsSupported(base)
}
