// Package store owns the live start-page document: loading and persisting
// it through the storage port, exposing the mutation surface to the UI
// layers, and driving the sync scheduler.
package store

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voidtab/voidtab/internal/cloudsync"
	"github.com/voidtab/voidtab/internal/config"
	"github.com/voidtab/voidtab/internal/storage"
)

// Store is the exclusive owner of the in-memory document. Durable bytes
// belong to the storage port; the scheduler keeps only its own ephemeral
// reconciliation state.
type Store struct {
	kv  storage.KV
	log zerolog.Logger

	mu  sync.RWMutex
	doc *config.Document
	// revision counts local mutations; the scheduler compares it against
	// its last-uploaded watermark to detect dirty state.
	revision int64
	// loaded guards persistence: before the initial load completes the
	// transient default document must never overwrite durable state.
	loaded bool

	scheduler *cloudsync.Scheduler
	service   cloudsync.Dispatcher

	onChange    map[int]func(*config.Document)
	nextWatchID int
	unsubscribe func()
}

// New creates a store over the storage port and sync service. The
// document is empty until Load.
func New(kv storage.KV, service cloudsync.Dispatcher, log zerolog.Logger) *Store {
	s := &Store{
		kv:       kv,
		log:      log.With().Str("component", "store").Logger(),
		doc:      config.Default(),
		service:  service,
		onChange: make(map[int]func(*config.Document)),
	}
	s.scheduler = cloudsync.NewScheduler(service, cloudsync.Hooks{
		GetProfile:       s.Profile,
		GetUploadPayload: s.UploadPayload,
		GetLocalRevision: s.Revision,
		OnRemotePayload:  s.ApplyRemotePayload,
		OnSyncMeta:       s.RecordSyncMeta,
		OnError: func(err error) {
			s.log.Warn().Err(err).Msg("sync error")
		},
	}, log)
	return s
}

// Load reads the stored document, runs it through the normalization
// pipeline and swaps any wallpaper marker back for the stored blob. A
// missing or malformed stored document degrades to defaults; loading
// never fails on content.
func (s *Store) Load(ctx context.Context) error {
	raw, _, err := s.kv.Get(ctx, config.DocumentKey, storage.AreaSync)
	if err != nil {
		return fmt.Errorf("failed to read stored document: %w", err)
	}

	doc := config.Parse(raw)
	if err := s.hydrateWallpaper(ctx, doc); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug().Int("groups", len(doc.Layout)).Msg("document loaded")
	return nil
}

// Loaded reports whether the initial load has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Document returns a deep copy of the current document.
func (s *Store) Document() *config.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.doc)
}

// Revision returns the monotonic local mutation counter.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Profile returns the current sync profile.
func (s *Store) Profile() cloudsync.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Sync
}

// UploadPayload renders the document as the small synced JSON payload,
// with any embedded wallpaper replaced by the local-storage marker.
func (s *Store) UploadPayload() string {
	s.mu.RLock()
	doc := cloneDocument(s.doc)
	s.mu.RUnlock()

	stripWallpaper(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		// Document marshalling cannot fail on normalized documents.
		s.log.Error().Err(err).Msg("failed to encode upload payload")
		return ""
	}
	return string(data)
}

// Save persists the document. The wallpaper blob, when embedded, is moved
// to the local area and replaced in the synced document by the marker.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return fmt.Errorf("store not loaded yet; refusing to overwrite durable state")
	}
	doc := cloneDocument(s.doc)
	s.mu.RUnlock()

	if err := s.extractWallpaper(ctx, doc); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.kv.Set(ctx, config.DocumentKey, data, storage.AreaSync); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	return nil
}

// mutate applies fn to the live document under lock, bumps the revision,
// and persists in the background.
func (s *Store) mutate(fn func(doc *config.Document)) {
	s.tryMutate(func(doc *config.Document) bool {
		fn(doc)
		return true
	})
}

// tryMutate applies fn under lock; the revision bump, persistence and
// change notification happen only when fn reports a change. A rejected
// mutation must not dirty the document, or the next tick uploads an
// unchanged payload.
func (s *Store) tryMutate(fn func(doc *config.Document) bool) bool {
	s.mu.Lock()
	changed := fn(s.doc)
	if changed {
		s.revision++
	}
	s.mu.Unlock()

	if !changed {
		return false
	}
	s.persistAsync()
	s.notify()
	return true
}

// persistAsync is fire-and-forget; the loaded guard inside Save keeps
// startup races harmless.
func (s *Store) persistAsync() {
	go func() {
		if err := s.Save(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist document")
		}
	}()
}

func (s *Store) notify() {
	s.mu.RLock()
	doc := cloneDocument(s.doc)
	handlers := make([]func(*config.Document), 0, len(s.onChange))
	for _, h := range s.onChange {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		h(doc)
	}
}

// OnChange registers a callback fired after every document change.
func (s *Store) OnChange(fn func(*config.Document)) func() {
	s.mu.Lock()
	id := s.nextWatchID
	s.nextWatchID++
	s.onChange[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.onChange, id)
		s.mu.Unlock()
	}
}

func cloneDocument(doc *config.Document) *config.Document {
	data, err := json.Marshal(doc)
	if err != nil {
		return config.Default()
	}
	clone := &config.Document{}
	if err := json.Unmarshal(data, clone); err != nil {
		return config.Default()
	}
	return clone
}

func newID(prefix string) string {
	return prefix + uuid.NewString()
}
