// Package watch reloads a panel data file into a dashboard, either when
// the file changes on disk (DataWatcher) or on a fixed interval (Poller).
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Target receives the reloaded file. *dashboard.Dashboard implements it.
type Target interface {
	LoadData(path string) error
}

// Config configures a DataWatcher.
type Config struct {
	// Path is the data file to watch.
	Path string

	// Debounce is the quiet period after the last change before reloading.
	Debounce time.Duration

	// OnError is called when a reload fails. Optional.
	OnError func(error)

	Logger *slog.Logger
}

// DataWatcher watches one file and feeds it to a Target.
type DataWatcher struct {
	path     string
	target   Target
	debounce time.Duration
	onError  func(error)
	logger   *slog.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	pending  chan struct{}
	reloads  int
}

// New creates a watcher for cfg.Path. Call Start to begin watching.
func New(cfg Config, target Target) (*DataWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("watch: resolve %s: %w", cfg.Path, err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &DataWatcher{
		path:     abs,
		target:   target,
		debounce: cfg.Debounce,
		onError:  cfg.OnError,
		logger:   cfg.Logger.With("component", "watch", "path", abs),
		watcher:  w,
		stopChan: make(chan struct{}),
		pending:  make(chan struct{}, 1),
	}, nil
}

// Start begins watching. It returns once the watch is registered.
func (dw *DataWatcher) Start(ctx context.Context) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.started {
		return nil
	}
	// Watch the directory: editors often replace the file by rename.
	dir := filepath.Dir(dw.path)
	if err := dw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}
	dw.started = true

	dw.logger.Info("watching data file")
	go dw.watchLoop(ctx)
	go dw.reloadLoop(ctx)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (dw *DataWatcher) Stop() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	select {
	case <-dw.stopChan:
		return nil
	default:
	}
	close(dw.stopChan)
	return dw.watcher.Close()
}

// Reloads returns how many reloads have been attempted.
func (dw *DataWatcher) Reloads() int {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.reloads
}

func (dw *DataWatcher) watchLoop(ctx context.Context) {
	name := filepath.Base(dw.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopChan:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				dw.logger.Debug("data file changed", "op", event.Op.String())
				dw.trigger()
			case event.Has(fsnotify.Remove):
				dw.logger.Warn("data file removed")
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error("watcher error", "error", err)
		}
	}
}

func (dw *DataWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case <-dw.stopChan:
			stop()
			return
		case <-dw.pending:
			stop()
			timer = time.AfterFunc(dw.debounce, dw.reload)
		}
	}
}

func (dw *DataWatcher) trigger() {
	select {
	case dw.pending <- struct{}{}:
	default:
	}
}

func (dw *DataWatcher) reload() {
	dw.mu.Lock()
	dw.reloads++
	dw.mu.Unlock()

	if err := dw.target.LoadData(dw.path); err != nil {
		dw.logger.Error("reload failed", "error", err)
		if dw.onError != nil {
			dw.onError(err)
		}
		return
	}
	dw.logger.Info("data file reloaded")
}
