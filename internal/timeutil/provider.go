package timeutil

import (
	"sync"
	"time"
)

// TimeProvider abstracts the clock so polling code can be driven deterministically in tests.
type TimeProvider interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemTimeProvider uses the standard library clock.
type SystemTimeProvider struct{}

func NewSystemTimeProvider() TimeProvider {
	return SystemTimeProvider{}
}

func (SystemTimeProvider) Now() time.Time {
	return time.Now()
}

func (SystemTimeProvider) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// InstantTimeProvider never blocks: After fires immediately and advances the virtual clock.
type InstantTimeProvider struct {
	mu      sync.Mutex
	current time.Time
	waited  time.Duration
}

func NewInstantTimeProvider(start time.Time) *InstantTimeProvider {
	return &InstantTimeProvider{current: start}
}

func (p *InstantTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *InstantTimeProvider) After(d time.Duration) <-chan time.Time {
	p.mu.Lock()
	if d > 0 {
		p.current = p.current.Add(d)
		p.waited += d
	}
	now := p.current
	p.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Advance moves the virtual clock forward without counting it as waited time.
func (p *InstantTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.current.Add(d)
}

// Waited reports the total duration requested through After.
func (p *InstantTimeProvider) Waited() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waited
}
