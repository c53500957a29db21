package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// Store owns the current catalog. It is loaded once and reused by every
// dropdown synchronisation; reloads swap the snapshot atomically.
type Store struct {
	src Source

	mu       sync.RWMutex
	current  *Catalog
	loadedAt time.Time
	hooks    []func(*Catalog, error)

	group singleflight.Group
}

// NewStore creates a store that starts with an empty catalog.
func NewStore(src Source) *Store {
	return &Store{
		src:     src,
		current: Empty(),
	}
}

// Catalog returns the current snapshot. It never returns nil.
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LoadedAt returns the time of the last successful load.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Source returns the configured source.
func (s *Store) Source() Source {
	return s.src
}

// OnReload registers a hook called after every load attempt with the
// resulting catalog (the previous one on failure) and the load error.
func (s *Store) OnReload(fn func(*Catalog, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Load fetches and parses the source and swaps it in. On failure the previous
// catalog is kept, so a failed first load leaves the dropdowns empty.
// Concurrent calls share one fetch.
func (s *Store) Load(ctx context.Context) error {
	_, err, _ := s.group.Do("load", func() (any, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *Store) load(ctx context.Context) error {
	text, err := s.src.Fetch(ctx)
	if err != nil {
		slog.Error("failed to load catalog", "source", s.src.String(), "error", err)
		s.notify(s.Catalog(), err)
		return fmt.Errorf("load catalog: %w", err)
	}

	c := Parse(text)

	s.mu.Lock()
	s.current = c
	s.loadedAt = time.Now()
	s.mu.Unlock()

	slog.Info("catalog loaded", "source", s.src.String(), "rows", c.Len(), "distilleries", len(c.distilleries))
	s.notify(c, nil)
	return nil
}

func (s *Store) notify(c *Catalog, err error) {
	s.mu.RLock()
	hooks := make([]func(*Catalog, error), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn(c, err)
	}
}

// Watch reloads the catalog whenever a file source changes on disk. It blocks
// until ctx is done. For non-file sources it returns immediately.
func (s *Store) Watch(ctx context.Context) error {
	fs, ok := s.src.(FileSource)
	if !ok {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	path, err := filepath.Abs(fs.Path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch catalog directory: %w", err)
	}

	slog.Info("watching catalog file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Errors are logged by Load; the previous catalog stays active.
			_ = s.Load(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watcher error", "error", err)
		}
	}
}
