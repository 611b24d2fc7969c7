package settings

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the settings file changes on disk and
// runs the OnChange callbacks. It blocks until ctx is done. The parent
// directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return nil // Already watching
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		s.mu.Unlock()
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	s.watching = true
	s.mu.Unlock()

	defer func() {
		w.Close()
		s.mu.Lock()
		s.watching = false
		s.mu.Unlock()
	}()

	name := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) {
				continue
			}
			if err := s.reload(); err != nil {
				log.Printf("Settings: reload failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("Settings: watcher error: %v", err)
		}
	}
}
