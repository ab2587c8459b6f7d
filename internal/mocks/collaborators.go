package mocks

import (
	"sync"
	"time"

	"github.com/content-lifecycle-api/internal/service"
)

// Verify interface compliance
var (
	_ service.AssetStore = (*MockAssetStore)(nil)
	_ service.EventSink  = (*MockEventSink)(nil)
)

// MockAssetStore records every deletion attempt
type MockAssetStore struct {
	mu       sync.Mutex
	Attempts []string
	// Failures maps a path to the error its deletion returns
	Failures map[string]error
}

func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{Failures: make(map[string]error)}
}

func (m *MockAssetStore) DeleteAsset(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts = append(m.Attempts, path)
	return m.Failures[path]
}

// Deleted returns a copy of the attempted paths
func (m *MockAssetStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Attempts...)
}

// RecordedEvent is one call to MockEventSink.Emit
type RecordedEvent struct {
	Type    string
	Payload interface{}
}

// MockEventSink records emitted events
type MockEventSink struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

func NewMockEventSink() *MockEventSink {
	return &MockEventSink{}
}

func (m *MockEventSink) Emit(eventType string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, RecordedEvent{Type: eventType, Payload: payload})
}

// Types returns the emitted event types in order
func (m *MockEventSink) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}

// Reset forgets recorded events
func (m *MockEventSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = nil
}

// Clock is a manually advanced clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
