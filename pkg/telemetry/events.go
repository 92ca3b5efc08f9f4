package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event.
type EventType string

const (
	// EventTypeSessionStarted fires when a provisioning session begins.
	EventTypeSessionStarted EventType = "session_started"

	// EventTypeStateChanged fires on every machine transition.
	EventTypeStateChanged EventType = "state_changed"

	// EventTypeStatusUpdated fires when a push status update is absorbed.
	EventTypeStatusUpdated EventType = "status_updated"

	// EventTypeOverrideApplied fires when an operator forces success from
	// a monitoring error. Always audit-relevant.
	EventTypeOverrideApplied EventType = "override_applied"

	// EventTypeDedupeCompleted fires after a deduplication pass.
	EventTypeDedupeCompleted EventType = "dedupe_completed"
)

// DomainEvent is one published event.
type DomainEvent struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Type is the event type.
	Type EventType `json:"type"`

	// SessionID is the provisioning session, if applicable.
	SessionID string `json:"session_id,omitempty"`

	// RecordID is the provisioning record, if applicable.
	RecordID string `json:"record_id,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Details contains additional structured context.
	Details map[string]any `json:"details,omitempty"`

	// Timestamp is when the event was published.
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher fans domain events out to subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type EventPublisher struct {
	mu          sync.RWMutex
	subscribers map[string]chan DomainEvent
	bufferSize  int
	closed      bool
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher(cfg EventsConfig) *EventPublisher {
	size := cfg.BufferSize
	if size <= 0 {
		size = 64
	}
	return &EventPublisher{
		subscribers: make(map[string]chan DomainEvent),
		bufferSize:  size,
	}
}

// Publish sends an event to all current subscribers. A zero ID or
// timestamp is filled in.
func (p *EventPublisher) Publish(ctx context.Context, event DomainEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber; drop rather than block the machine.
		}
	}
}

// Subscribe registers a new subscriber and returns its channel and an
// unsubscribe function.
func (p *EventPublisher) Subscribe() (<-chan DomainEvent, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan DomainEvent, p.bufferSize)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	p.subscribers[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subscribers[id]; ok {
			delete(p.subscribers, id)
			close(sub)
		}
	}
}

// Shutdown closes all subscriber channels.
func (p *EventPublisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for id, ch := range p.subscribers {
		delete(p.subscribers, id)
		close(ch)
	}
	return nil
}
