package workorder

import (
	"coilflow/domain"
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/fundwit/go-commons/types"
)

// Guard serializes operations on the same work order within this process. Different
// work orders never wait on each other.
type Guard struct {
	mu      sync.Mutex
	entries map[types.ID]*guardEntry
}

type guardEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func NewGuard() *Guard {
	return &Guard{entries: map[types.ID]*guardEntry{}}
}

// Lock waits for the critical section of a work order. When ctx ends first it returns ErrTimeout.
func (g *Guard) Lock(ctx context.Context, id types.ID) (func(), error) {
	e := g.acquireEntry(id)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		g.releaseEntry(id, e)
		return nil, domain.Timeout(err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			g.releaseEntry(id, e)
		})
	}, nil
}

func (g *Guard) acquireEntry(id types.ID) *guardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[id]
	if !ok {
		e = &guardEntry{sem: semaphore.NewWeighted(1)}
		g.entries[id] = e
	}
	e.refs++
	return e
}

func (g *Guard) releaseEntry(id types.ID, e *guardEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(g.entries, id)
	}
}

func (g *Guard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
