package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"carf/internal/logging"
)

// Watcher hot-reloads the config file while the cockpit runs. Reloaded
// configs are delivered on Updates; parse failures are logged and the
// previous config stays active.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan *Config
	done    chan struct{}
}

// Watch starts watching the directory containing path. Watching the
// directory rather than the file survives editors that replace the file on
// save.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Updates delivers each successfully reloaded config.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Close stops the watcher and its goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	log := logging.Get(logging.CategoryConfig)

	// Editors fire several events per save; collapse them.
	var pending <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watch error", zap.Error(err))
		case <-pending:
			pending = nil
			cfg, err := Load(w.path)
			if err != nil {
				log.Warn("config reload failed, keeping previous", zap.Error(err))
				continue
			}
			log.Info("config reloaded", zap.String("path", w.path))
			select {
			case w.updates <- cfg:
			default:
				// Drop if the cockpit has not drained the last update.
			}
		}
	}
}
