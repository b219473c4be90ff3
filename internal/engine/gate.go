package engine

import "sync"

type loadState int

const (
	loadUnstarted loadState = iota
	loadInFlight
	loadDone
)

// loadGate collapses N concurrent "did you load yet?" callers into a single
// fetch. The state moves to in-flight before any asynchronous work begins,
// which closes the race window between concurrent callers.
type loadGate struct {
	mu    sync.Mutex
	state loadState
}

// begin reports whether the caller won the right to perform the initial load.
func (g *loadGate) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != loadUnstarted {
		return false
	}
	g.state = loadInFlight
	return true
}

func (g *loadGate) succeed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == loadInFlight {
		g.state = loadDone
	}
}

// fail returns the gate to unstarted so a later caller may retry.
func (g *loadGate) fail() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == loadInFlight {
		g.state = loadUnstarted
	}
}

// reset clears the gate entirely, permitting a fresh session-level load.
func (g *loadGate) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = loadUnstarted
}

func (g *loadGate) loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == loadDone
}
