package httpd

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/logger"
)

const (
	// clientBufferSize is the per-subscriber event queue. A subscriber
	// that falls this far behind is disconnected.
	clientBufferSize = 32
	maxClients       = 64
)

// Event is one server-sent event pushed to console views.
type Event struct {
	Type string
	Data any
}

// Broker fans session events out to every connected console view.
type Broker struct {
	log logger.Logger

	mu      sync.Mutex
	nextID  int
	clients map[int]chan Event
	closed  bool
}

// NewBroker creates an empty broker.
func NewBroker(log logger.Logger) *Broker {
	return &Broker{
		log:     log,
		clients: make(map[int]chan Event),
	}
}

// Publish delivers an event to all subscribers. Slow subscribers are
// dropped rather than allowed to stall the session goroutine.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.clients {
		select {
		case ch <- ev:
		default:
			b.log.Warn("event subscriber too slow, disconnecting",
				zap.Int("client_id", id),
				zap.String("event_type", ev.Type))
			delete(b.clients, id)
			close(ch)
		}
	}
}

// Subscribe registers a new event stream. The returned cleanup must be
// called when the subscriber goes away; the channel is also closed when
// ctx ends or the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context) (<-chan Event, func()) {
	b.mu.Lock()
	if b.closed || len(b.clients) >= maxClients {
		b.mu.Unlock()
		rejected := make(chan Event)
		close(rejected)
		return rejected, func() {}
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, clientBufferSize)
	b.clients[id] = ch
	b.mu.Unlock()

	cleanup := func() { b.remove(id) }
	go func() {
		<-ctx.Done()
		b.remove(id)
	}()
	return ch, cleanup
}

func (b *Broker) remove(id int) {
	b.mu.Lock()
	ch, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// ClientCount returns the number of connected subscribers.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	clients := b.clients
	b.clients = make(map[int]chan Event)
	b.mu.Unlock()

	for _, ch := range clients {
		close(ch)
	}
}
