package universe

import (
	"context"
	"path/filepath"

	"stockdesk/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch hot-reloads the universe when its backing file changes. The
// watcher observes the parent directory because editors commonly
// replace the file via rename. Blocks until ctx is done.
func (u *Universe) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(u.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(u.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := u.Reload(); err != nil {
				logger.Errorf("universe reload failed (%s): %v", evt.Name, err)
				continue
			}
			logger.Infof("universe reloaded: %d instruments", u.Len())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("universe watcher error: %v", err)
		}
	}
}
