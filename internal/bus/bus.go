// Package bus is the in-process message fabric between buyer connections
// and the seller's protocol servers.
//
// Inbound messages are queued per performative; a protocol server receives
// exactly the performative it serves and suspends while its queue is
// empty. Outbound replies are routed to per-recipient inboxes registered
// by transport connections.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/booktrade/sellerd/internal/protocol"
)

// DefaultQueueSize is the capacity of each performative queue and inbox.
const DefaultQueueSize = 256

// Bus routes protocol envelopes.
type Bus struct {
	mu       sync.RWMutex
	queues   map[protocol.Performative]chan protocol.Envelope
	inboxes  map[string]chan protocol.Envelope
	capacity int
}

// New creates a bus. A non-positive capacity selects DefaultQueueSize.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Bus{
		queues:   make(map[protocol.Performative]chan protocol.Envelope),
		inboxes:  make(map[string]chan protocol.Envelope),
		capacity: capacity,
	}
}

// Deliver queues an inbound envelope for the server handling its
// performative. Unservable performatives are rejected.
func (b *Bus) Deliver(env protocol.Envelope) error {
	if !env.Performative.IsInbound() {
		return fmt.Errorf("performative %q is not served", env.Performative)
	}

	q := b.queue(env.Performative)
	select {
	case q <- env:
		return nil
	default:
		return fmt.Errorf("queue for %q is full", env.Performative)
	}
}

// Receive blocks until an envelope with the given performative arrives or
// the context is cancelled.
func (b *Bus) Receive(ctx context.Context, p protocol.Performative) (protocol.Envelope, error) {
	q := b.queue(p)
	select {
	case env := <-q:
		return env, nil
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	}
}

// Send routes an outbound envelope to its recipient's inbox. When the
// inbox is full the oldest undelivered envelope is dropped.
func (b *Bus) Send(env protocol.Envelope) error {
	b.mu.RLock()
	inbox, ok := b.inboxes[env.To]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown recipient %q", env.To)
	}

	select {
	case inbox <- env:
	default:
		select {
		case <-inbox:
			inbox <- env
		default:
		}
	}
	return nil
}

// Register creates (or reuses) the inbox for an address and returns it.
func (b *Bus) Register(addr string) <-chan protocol.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	if inbox, ok := b.inboxes[addr]; ok {
		return inbox
	}
	inbox := make(chan protocol.Envelope, b.capacity)
	b.inboxes[addr] = inbox
	return inbox
}

// Unregister drops the inbox for an address. Envelopes sent to the
// address afterwards are rejected by Send.
func (b *Bus) Unregister(addr string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inboxes, addr)
}

// queue returns (creating if needed) the queue for a performative.
func (b *Bus) queue(p protocol.Performative) chan protocol.Envelope {
	b.mu.RLock()
	q, ok := b.queues[p]
	b.mu.RUnlock()
	if ok {
		return q
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[p]; ok {
		return q
	}
	q = make(chan protocol.Envelope, b.capacity)
	b.queues[p] = q
	return q
}
