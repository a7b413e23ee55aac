package credential

import (
	"context"
	"sync"
	"time"
)

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.Mutex
	token string
	now   func() time.Time
}

// NewMemory creates an empty in-memory credential store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Token returns the stored token, dropping it first if it has expired.
func (m *Memory) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && Expired(m.token, m.now()) {
		m.token = ""
	}
	return m.token, nil
}

// Save stores token.
func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	return nil
}

// Clear removes the token.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	return nil
}
