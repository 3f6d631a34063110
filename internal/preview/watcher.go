package preview

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/mdmail/internal/logger"
)

// Watcher reloads connected browsers when the previewed file changes. The
// parent directory is watched so editors that replace the file on save are
// still seen. Bursts of events within the debounce window fire once.
type Watcher struct {
	fs       *fsnotify.Watcher
	target   string
	debounce time.Duration
	fire     func()
	log      *slog.Logger

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	once sync.Once
}

// Watch starts watching Options.Path. Events stop when ctx is done or the
// returned Watcher is closed.
func (s *Server) Watch(ctx context.Context) (*Watcher, error) {
	return newWatcher(ctx, s.opts.Path, s.opts.Debounce, func() {
		s.log.Info("file changed", logger.Path(s.opts.Path))
		s.hub.broadcastReload()
	}, s.log)
}

func newWatcher(ctx context.Context, path string, debounce time.Duration, fire func(), log *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("preview: watch %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("preview: watch: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("preview: watch %s: %w", path, err)
	}
	w := &Watcher{
		fs:       fsw,
		target:   abs,
		debounce: debounce,
		fire:     fire,
		log:      log,
		done:     make(chan struct{}),
	}
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", logger.Error(err))
		case <-ctx.Done():
			w.Close()
			return
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fs.Close()
	})
	return err
}
