package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads config file when it changes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching the directory of the file. Directory is
// watched instead of the file, because editors replace files on save.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{
		path:    abs,
		watcher: w,
	}, nil
}

// Run calls fn with reloaded config after every change of the file.
// If reload failed, fn is called with error. Run blocks until context
// is done and closes the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(*Config, error)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fn(Load(w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Watch runs watcher for the file until context is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
