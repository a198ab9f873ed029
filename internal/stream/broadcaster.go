package stream

import (
	"sync"
	"sync/atomic"

	"github.com/safeahead/hazard-alerts/internal/models"
)

// Broadcaster fans out newly created or changed alerts to subscribers.
// Slow subscribers are skipped, never waited on, so a stalled stream
// consumer cannot hold up a poll cycle.
type Broadcaster struct {
	subscribers map[uint64]chan models.Alert
	nextID      atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan models.Alert),
	}
}

func (b *Broadcaster) Subscribe() (uint64, <-chan models.Alert) {
	id := b.nextID.Add(1)
	ch := make(chan models.Alert, 100) // buffer for the largest plausible poll batch

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Publish(a models.Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- a:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
