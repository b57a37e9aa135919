package store

import (
	"context"

	"github.com/voidtab/voidtab/internal/config"
	"github.com/voidtab/voidtab/internal/storage"
)

// WatchExternalChanges subscribes to the storage port's change stream and
// reloads the document when another process rewrites it. Backends without
// external observation hand back a no-op unsubscribe and this degrades
// gracefully.
func (s *Store) WatchExternalChanges() error {
	unsubscribe, err := s.kv.OnChanged(func(changes []storage.Change) {
		relevant := false
		for _, c := range changes {
			if c.Key == config.DocumentKey || c.Key == config.WallpaperKey {
				relevant = true
				break
			}
		}
		if !relevant {
			return
		}
		if err := s.Load(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("failed to reload externally changed document")
			return
		}
		s.notify()
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// Close stops sync and releases the storage subscription. The storage
// port itself is closed by its owner.
func (s *Store) Close() {
	s.scheduler.Stop()

	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
