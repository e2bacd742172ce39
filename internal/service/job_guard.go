package service

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// jobKey names one background write against the template store.
type jobKey string

// autosaveKey is shared by every autosave tick, so ticks never overlap.
const autosaveKey jobKey = "autosave"

// importKey keys the import of one dropped file. Paths are cleaned so two
// spellings of the same file share a key.
func importKey(path string) jobKey {
	return jobKey("import:" + filepath.Clean(path))
}

// ─────────────────────────────────────────────────────────────
// jobGuard — one save or import per key at a time
// ─────────────────────────────────────────────────────────────

// jobGuard runs background saves and imports at most once per key and lets
// shutdown wait for the ones in flight.
type jobGuard struct {
	mu      sync.Mutex
	running map[jobKey]time.Time
	wg      sync.WaitGroup
}

// run calls fn unless key is already running. ran is false when it was.
func (g *jobGuard) run(key jobKey, fn func() error) (ran bool, err error) {
	if !g.start(key) {
		return false, nil
	}
	defer g.finish(key)
	return true, fn()
}

func (g *jobGuard) start(key jobKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[jobKey]time.Time)
	}
	if _, ok := g.running[key]; ok {
		return false
	}
	g.running[key] = time.Now()
	g.wg.Add(1)
	return true
}

func (g *jobGuard) finish(key jobKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
	g.wg.Done()
}

// inFlight lists running keys, oldest first.
func (g *jobGuard) inFlight() []jobKey {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]jobKey, 0, len(g.running))
	for k := range g.running {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return g.running[keys[i]].Before(g.running[keys[j]])
	})
	return keys
}

// wait blocks until every running job finishes or ctx is done. It returns
// the jobs that were still running when ctx ended.
func (g *jobGuard) wait(ctx context.Context) []jobKey {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return g.inFlight()
	}
}

func keyStrings(keys []jobKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
