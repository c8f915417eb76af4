package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/quantmind-br/pkgstatus/internal/core"
)

// EventType is the kind of change carried by an Event
type EventType string

const (
	EventPut    EventType = "put"
	EventDelete EventType = "delete"
)

// Event describes a change to one package. Entry is nil for deletes and
// must be treated as read-only.
type Event struct {
	Type     EventType
	ID       string
	Revision int64
	Entry    *core.PackageDataEntry
}

// Subscription is a live stream of change events. The holder owns it and
// must call Close when done; cancelling the context given to Subscribe
// closes it as well. C is closed once the subscription ends.
type Subscription struct {
	ID string
	C  <-chan Event

	ch     chan Event
	filter string
	broker *Broker
	once   sync.Once

	mu   sync.Mutex
	stop func() bool
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.broker.remove(s)
	})
}

// Pending event capacity. A subscriber to one package only needs its latest
// state; a subscriber to every package keeps a backlog and drops the oldest
// event when it falls behind.
const (
	packageBuffer  = 1
	wildcardBuffer = 64
)

// Broker fans store changes out to subscribers
type Broker struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]*Subscription)}
}

// Subscribe registers a subscriber for package id, or for every package
// when id is empty.
func (b *Broker) Subscribe(ctx context.Context, id string) *Subscription {
	size := packageBuffer
	if id == "" {
		size = wildcardBuffer
	}
	ch := make(chan Event, size)
	sub := &Subscription{
		ID:     uuid.NewString(),
		C:      ch,
		ch:     ch,
		filter: id,
		broker: b,
	}

	b.mu.Lock()
	if b.closed || ctx.Err() != nil {
		b.mu.Unlock()
		close(ch)
		return sub
	}
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	// the callback may run before AfterFunc returns
	stop := context.AfterFunc(ctx, sub.Close)
	sub.mu.Lock()
	sub.stop = stop
	sub.mu.Unlock()
	return sub
}

// Publish delivers evt to every matching subscriber without blocking
func (b *Broker) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.filter != "" && sub.filter != evt.ID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// drop the oldest pending event
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// Len returns the number of active subscriptions
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription and rejects new ones
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
}
