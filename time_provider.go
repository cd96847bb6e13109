package reactor

import (
	"sync"
	"time"
)

// TimeProvider is the clock used by the agent loop for budgets and by the reasoning
// engine for the date shown in prompts. Tests inject a [MockTimeProvider].
//
// The prompt templates reach it through the .Time field:
//
//	Today is {{.Time.Today}} ({{.Time.Weekday}}).
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time

	// Today returns today's date as YYYY-MM-DD.
	Today() string

	// Weekday returns the current day of the week (e.g. "Monday").
	Weekday() string
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

// NewDefaultTimeProvider creates a new DefaultTimeProvider.
func NewDefaultTimeProvider() *DefaultTimeProvider {
	return &DefaultTimeProvider{}
}

func (p *DefaultTimeProvider) Now() time.Time {
	return time.Now()
}

func (p *DefaultTimeProvider) Today() string {
	return p.Now().Format(time.DateOnly)
}

func (p *DefaultTimeProvider) Weekday() string {
	return p.Now().Weekday().String()
}

// MockTimeProvider returns a controllable time. Safe for concurrent use, since tool
// calls of a parallel batch may read it while a test advances it.
type MockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockTimeProvider creates a MockTimeProvider fixed at t.
func NewMockTimeProvider(t time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: t}
}

// SetTime replaces the current time.
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the current time forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *MockTimeProvider) Today() string {
	return m.Now().Format(time.DateOnly)
}

func (m *MockTimeProvider) Weekday() string {
	return m.Now().Weekday().String()
}

// Compile-time checks.
var (
	_ TimeProvider = (*DefaultTimeProvider)(nil)
	_ TimeProvider = (*MockTimeProvider)(nil)
)
