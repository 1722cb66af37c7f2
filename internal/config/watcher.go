package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
)

// Watch re-loads the config file whenever it changes on disk and hands the
// freshly validated Config to onChange.  Reload failures are logged and the
// previous configuration stays in effect; the running process never adopts a
// broken config.
//
// The returned stop function releases the underlying watcher.  The API
// server watches its config file to surface edits in the logs; settings that
// require reconnects (database, redis, kafka) take effect on restart.
func Watch(configPath string, log logging.Logger, onChange func(*Config)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors and configmap mounts
	// replace the file, which drops a file-level watch.
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	target := filepath.Clean(configPath)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, loadErr := Load(configPath)
				if loadErr != nil {
					log.Warn("config reload rejected",
						logging.String("path", configPath),
						logging.Err(loadErr))
					continue
				}
				log.Info("config reloaded", logging.String("path", configPath))
				onChange(cfg)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", logging.Err(watchErr))
			}
		}
	}()

	return watcher.Close, nil
}
