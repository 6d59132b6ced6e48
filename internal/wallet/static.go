package wallet

import (
	"context"
	"sync"
)

// Static is an in-memory Capability holding a fixed key. It starts
// disconnected.
type Static struct {
	key string

	mu        sync.Mutex
	connected bool
}

func NewStatic(key string) *Static {
	return &Static{key: key}
}

func (s *Static) Available() bool { return true }

func (s *Static) Connect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return s.key, nil
}

func (s *Static) PublicKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", ErrNotConnected
	}
	return s.key, nil
}

func (s *Static) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}
