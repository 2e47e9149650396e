package voice

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher watches a config file and reports reloaded
// configurations, so a running coordinator can pick up new speech
// settings without a restart.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	load    func() (Config, error)
	done    chan struct{}
}

// WatchConfig starts watching path. On every write it calls load and,
// when loading succeeds, hands the fresh config to onChange. Load
// errors are logged and skipped; the previous config stays in effect.
func WatchConfig(path string, load func() (Config, error), onChange func(Config)) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files on
	// save and the watch would die with the old inode.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &ConfigWatcher{
		watcher: w,
		path:    path,
		load:    load,
		done:    make(chan struct{}),
	}
	go cw.run(onChange)
	return cw, nil
}

func (cw *ConfigWatcher) run(onChange func(Config)) {
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := cw.load()
			if err != nil {
				log.Warn("config reload failed", "path", cw.path, "error", err)
				continue
			}
			log.Debug("config reloaded", "path", cw.path)
			onChange(cfg)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (cw *ConfigWatcher) Close() error {
	close(cw.done)
	return cw.watcher.Close()
}
