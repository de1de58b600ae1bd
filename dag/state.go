package dag

import "sync"

// State is the result cache of one run, keyed by node name. It only holds
// results produced in the current run.
type State struct {
	mu      sync.RWMutex
	results map[string]any
}

// NewState creates an empty State.
func NewState() *State {
	return &State{results: make(map[string]any)}
}

// Get returns the result of node name. A nil result is still present.
func (s *State) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.results[name]
	return v, ok
}

// Set stores the result of node name.
func (s *State) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = value
}

// Snapshot returns a copy of all results.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}
