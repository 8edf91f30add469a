// Package events carries install progress events from the installer client
// to the ingestion bridge. The bus is an in-process fan-out: the installer
// publishes, the bridge holds the single long-lived subscription, and tests
// attach short-lived ones.
package events

import "sync"

// Kind discriminates install events.
type Kind string

const (
	// KindProgress carries a percentage and a status line.
	KindProgress Kind = "progress"
	// KindError carries an error code and/or message; it terminates a task.
	KindError Kind = "error"
	// KindMessage carries status text with no progress or completion implication.
	KindMessage Kind = "message"
)

// Event is one out-of-band signal from the installer, keyed by app id.
type Event struct {
	AppID   string
	Kind    Kind
	Percent int
	Status  string
	Code    *int
	Detail  string
}

// Bus is a subscribe-once-per-consumer event fan-out. Publish never blocks:
// when a subscriber's buffer is full the oldest buffered event is evicted so
// the newest always lands. Terminal events must not be lost; a dropped
// progress line only costs display granularity.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a consumer and returns its channel plus an
// unsubscribe handle. The channel is closed on unsubscribe.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish delivers the event to every current subscriber. A full subscriber
// buffer sheds its oldest event to make room, so the most recent event is
// always delivered.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
