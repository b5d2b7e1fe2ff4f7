package buildpipeline

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/openpricing/zigdag/log"
)

// Watch re-runs rebuild every time modelPath changes on disk, until the
// caller closes stop. Editors that replace a
// file rather than write in place (most do) emit Remove followed by a
// fresh Create; both are treated as a trigger, alongside Write.
func Watch(modelPath string, stop <-chan struct{}, rebuild func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("buildpipeline: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(modelPath); err != nil {
		return fmt.Errorf("buildpipeline: watch %s: %w", modelPath, err)
	}

	log.Infof("watching %s for changes", modelPath)

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Remove != 0 {
				// Some editors replace the file atomically; re-add the
				// watch once it reappears.
				_ = watcher.Add(modelPath)
			}
			log.Infof("%s changed, rebuilding", modelPath)
			if err := rebuild(); err != nil {
				log.Errorf("rebuild failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watch error: %v", err)
		}
	}
}
