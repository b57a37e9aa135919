package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/voidtab/voidtab/internal/logging"
)

const (
	storageDirPerm  = 0o755
	storageFilePerm = 0o644
)

// FileKV stores each area as one JSON object file under
// <dataDir>/storage/. External writers (another voidtab process sharing
// the data dir) are observed through fsnotify; own writes are filtered by
// diffing against the in-memory snapshot, so they never reach handlers.
type FileKV struct {
	dir string
	log zerolog.Logger

	mu        sync.Mutex
	snapshots map[Area]map[string][]byte
	handlers  map[int]ChangeHandler
	nextID    int
	watcher   *fsnotify.Watcher
	done      chan struct{}
}

// NewFileKV creates a file-backed storage adapter rooted at dataDir.
func NewFileKV(ctx context.Context, dataDir string) (*FileKV, error) {
	dir := filepath.Join(dataDir, "storage")
	if err := os.MkdirAll(dir, storageDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	kv := &FileKV{
		dir:       dir,
		log:       logging.FromContext(ctx).With().Str("component", "storage-file").Logger(),
		snapshots: make(map[Area]map[string][]byte),
		handlers:  make(map[int]ChangeHandler),
	}
	for _, area := range []Area{AreaLocal, AreaSync} {
		kv.snapshots[area] = kv.readArea(area)
	}
	return kv, nil
}

func (kv *FileKV) areaFile(area Area) string {
	return filepath.Join(kv.dir, string(area)+".json")
}

// readArea loads an area file into a key->raw-value map. A missing or
// unreadable file degrades to an empty area; resilience to partial writes
// is the storage layer's job, validity is the normalization pipeline's.
func (kv *FileKV) readArea(area Area) map[string][]byte {
	data, err := os.ReadFile(kv.areaFile(area))
	if err != nil {
		return map[string][]byte{}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		kv.log.Warn().Err(err).Str("area", string(area)).Msg("storage file is not valid JSON, treating as empty")
		return map[string][]byte{}
	}
	out := make(map[string][]byte, len(raw))
	for k, v := range raw {
		out[k] = []byte(v)
	}
	return out
}

func (kv *FileKV) writeArea(area Area, contents map[string][]byte) error {
	raw := make(map[string]json.RawMessage, len(contents))
	for k, v := range contents {
		raw[k] = json.RawMessage(v)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode %s area: %w", area, err)
	}
	if err := os.WriteFile(kv.areaFile(area), data, storageFilePerm); err != nil {
		return fmt.Errorf("failed to write %s area: %w", area, err)
	}
	return nil
}

// Get returns the stored value for key in the given area.
func (kv *FileKV) Get(_ context.Context, key string, area Area) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	contents := kv.readArea(area)
	kv.snapshots[area] = contents
	v, ok := contents[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores value under key in the given area.
func (kv *FileKV) Set(_ context.Context, key string, value []byte, area Area) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	contents := kv.readArea(area)
	contents[key] = bytes.Clone(value)
	if err := kv.writeArea(area, contents); err != nil {
		return err
	}
	kv.snapshots[area] = contents
	return nil
}

// Remove deletes key from the given area.
func (kv *FileKV) Remove(_ context.Context, key string, area Area) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	contents := kv.readArea(area)
	if _, ok := contents[key]; !ok {
		return nil
	}
	delete(contents, key)
	if err := kv.writeArea(area, contents); err != nil {
		return err
	}
	kv.snapshots[area] = contents
	return nil
}

// OnChanged subscribes to external mutations of the storage files. The
// fsnotify watcher is started lazily on first subscription.
func (kv *FileKV) OnChanged(handler ChangeHandler) (func(), error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.watcher == nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create storage watcher: %w", err)
		}
		if err := watcher.Add(kv.dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch storage directory %s: %w", kv.dir, err)
		}
		kv.watcher = watcher
		kv.done = make(chan struct{})
		go kv.watchLoop(watcher, kv.done)
	}

	id := kv.nextID
	kv.nextID++
	kv.handlers[id] = handler

	return func() {
		kv.mu.Lock()
		defer kv.mu.Unlock()
		delete(kv.handlers, id)
	}, nil
}

func (kv *FileKV) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			area, ok := areaForFile(filepath.Base(event.Name))
			if !ok {
				continue
			}
			kv.dispatchChanges(area)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			kv.log.Warn().Err(err).Msg("storage watcher error")
		}
	}
}

func areaForFile(base string) (Area, bool) {
	switch base {
	case string(AreaLocal) + ".json":
		return AreaLocal, true
	case string(AreaSync) + ".json":
		return AreaSync, true
	default:
		return "", false
	}
}

// dispatchChanges diffs the area file against the last snapshot and
// notifies handlers. Own writes update the snapshot inline, so their
// events diff to nothing here and stay silent.
func (kv *FileKV) dispatchChanges(area Area) {
	kv.mu.Lock()
	old := kv.snapshots[area]
	next := kv.readArea(area)
	kv.snapshots[area] = next

	var changes []Change
	keys := make(map[string]bool, len(old)+len(next))
	for k := range old {
		keys[k] = true
	}
	for k := range next {
		keys[k] = true
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)
	for _, k := range ordered {
		if !bytes.Equal(old[k], next[k]) {
			changes = append(changes, Change{
				Area:     area,
				Key:      k,
				OldValue: old[k],
				NewValue: next[k],
			})
		}
	}

	handlers := make([]ChangeHandler, 0, len(kv.handlers))
	for _, h := range kv.handlers {
		handlers = append(handlers, h)
	}
	kv.mu.Unlock()

	if len(changes) == 0 {
		return
	}
	for _, h := range handlers {
		h(changes)
	}
}

// Close stops the watcher.
func (kv *FileKV) Close() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.watcher != nil {
		close(kv.done)
		err := kv.watcher.Close()
		kv.watcher = nil
		return err
	}
	return nil
}
