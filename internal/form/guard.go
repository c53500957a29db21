package form

import (
	"context"
	"sync"
)

// Guard tracks one in-flight request per key. Starting a new request for a key
// cancels the previous one.
type Guard struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]guardEntry
}

type guardEntry struct {
	id     uint64
	cancel context.CancelFunc
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]guardEntry)}
}

// Begin cancels any in-flight request for key and returns a context for the
// new one. The returned release func must be called when the request ends;
// it only clears the entry if no newer request has replaced it.
func (g *Guard) Begin(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	if prev, ok := g.inflight[key]; ok {
		prev.cancel()
	}
	g.seq++
	id := g.seq
	g.inflight[key] = guardEntry{id: id, cancel: cancel}
	g.mu.Unlock()

	release := func() {
		g.mu.Lock()
		if cur, ok := g.inflight[key]; ok && cur.id == id {
			delete(g.inflight, key)
		}
		g.mu.Unlock()
		cancel()
	}
	return ctx, release
}

// InFlight returns the number of tracked requests.
func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
