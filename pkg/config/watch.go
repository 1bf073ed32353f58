package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the global configuration when the config file changes.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
}

// Watch runs Reload whenever the file at path is written or replaced and
// reports each outcome to onReload. A nil error means the global
// configuration now reflects the file; the previous configuration is kept
// otherwise.
func Watch(path string, onReload func(*Config, error)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file: editors and config
	// managers replace the file, which would drop a watch on the file
	// itself.
	if err := fs.Add(filepath.Dir(path)); err != nil {
		_ = fs.Close()
		return nil, err
	}

	w := &Watcher{fs: fs, done: make(chan struct{})}
	go w.run(path, onReload)
	return w, nil
}

func (w *Watcher) run(path string, onReload func(*Config, error)) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := Reload(); err != nil {
				onReload(nil, err)
				continue
			}
			onReload(Get(), nil)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			onReload(nil, err)
		}
	}
}

// Close stops watching and waits for the reload loop to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
