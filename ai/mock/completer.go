package mock

import (
	"context"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// Responses can be scripted in order, or behavior injected via CompleteFunc.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, scripted responses are returned in order.
	CompleteFunc func(ctx context.Context, system, input string) (string, error)

	mu        sync.Mutex
	responses []string
	callCount int

	// LastSystem and LastInput record the most recent prompt for assertions.
	LastSystem string
	LastInput  string
}

// NewMockCompleter creates a mock completer that replays the given responses
// in order. After the script is exhausted, the last response repeats.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter(responses ...string) *MockCompleter {
	return &MockCompleter{responses: responses}
}

// Complete returns the next scripted response, or delegates to CompleteFunc.
// The lock is released before delegating so CompleteFunc may call CallCount.
func (m *MockCompleter) Complete(ctx context.Context, system, input string) (string, error) {
	m.mu.Lock()

	m.callCount++
	m.LastSystem = system
	m.LastInput = input
	fn := m.CompleteFunc

	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, system, input)
	}
	defer m.mu.Unlock()

	if len(m.responses) == 0 {
		return "", nil
	}
	idx := m.callCount - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count, script, and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.responses = nil
	m.CompleteFunc = nil
	m.LastSystem = ""
	m.LastInput = ""
}
