package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// OnReloadFunc receives the settings after a successful reload.
type OnReloadFunc func(Settings)

// Watcher reloads a Config when its file changes on disk.
type Watcher struct {
	cfg      *Config
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload OnReloadFunc
	logger   *log.Logger

	mu       sync.Mutex
	timer    *time.Timer
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches cfg's file. The parent directory is watched rather than
// the file so editors that replace the file on save are still seen.
func NewWatcher(cfg *Config, debounce time.Duration, logger *log.Logger, onReload OnReloadFunc) (*Watcher, error) {
	if cfg.Path() == "" {
		return nil, fmt.Errorf("%w: no config file to watch", ErrConfigNotFound)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(cfg.Path())); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Path(), err)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		cfg:      cfg,
		watcher:  fsw,
		debounce: debounce,
		onReload: onReload,
		logger:   logger.WithPrefix("config"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins the event processing loop.
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) eventLoop() {
	target := filepath.Clean(w.cfg.Path())
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.resetDebounce()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) resetDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	s, err := w.cfg.Reload()
	if err != nil {
		w.logger.Warn("reload failed, keeping previous settings", "path", w.cfg.Path(), "err", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.cfg.Path())
	if w.onReload != nil {
		w.onReload(s)
	}
}
