package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file whenever it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	callback func(*Config)
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func NewWatcher(path string, callback func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		debounce: 100 * time.Millisecond,
		callback: callback,
		stop:     make(chan struct{}),
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// The parent directory is watched so editors that replace the file on save still trigger.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fw.Close()

		slog.Info("watching config", "path", w.path)

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounce, w.reload)

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)

			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) reload() {
	slog.Info("config changed, reloading", "path", w.path)
	cfg, err := Load(w.path)
	if err != nil {
		slog.Error("config reload failed", "path", w.path, "error", err)
		return
	}
	if w.callback != nil {
		w.callback(cfg)
	}
}
