package moderation

import "sync"

// ConnectionState is the readiness gate shared between the lifecycle manager
// (writer) and the instruction executor (reader). Ready is true only while
// the transport reports an open, authenticated session.
type ConnectionState struct {
	mu    sync.RWMutex
	ready bool
}

func (s *ConnectionState) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *ConnectionState) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}
