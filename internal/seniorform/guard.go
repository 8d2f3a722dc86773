package seniorform

import "sync"

// SubmitGuard allows at most one submission per record at a time across
// every controller sharing it.
type SubmitGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{inFlight: make(map[string]struct{})}
}

// TryAcquire marks id as in flight. It returns false if it already was.
func (g *SubmitGuard) TryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[id]; busy {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

// Release clears the in-flight mark of id.
func (g *SubmitGuard) Release(id string) {
	g.mu.Lock()
	delete(g.inFlight, id)
	g.mu.Unlock()
}
