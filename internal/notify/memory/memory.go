// Package memory provides an in-memory notify.Publisher for tests.
package memory

import (
	"context"
	"sync"

	"github.com/hoplog/brewharvest/internal/notify"
)

// Publisher records published events instead of sending them anywhere.
type Publisher struct {
	mu     sync.Mutex
	events []notify.RegionDone
	closed bool
}

// New returns an empty recorder.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the event to the recorder.
func (p *Publisher) Publish(_ context.Context, done notify.RegionDone) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, done)
	return nil
}

// Close marks the recorder closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []notify.RegionDone {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.RegionDone, len(p.events))
	copy(out, p.events)
	return out
}

// Closed reports whether Close has been called.
func (p *Publisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
