package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultBufferSize = 64

// Handler consumes one event. A returned error is logged and the event
// is not redelivered.
type Handler func(ctx context.Context, event Event) error

// Bus is a buffered in-process publish/subscribe hub. A single dispatch
// goroutine delivers events to handlers in publish order. When the
// buffer is full the event is dropped with a warning instead of blocking
// the publisher.
type Bus struct {
	ch  chan Event
	log *logrus.Entry

	mu       sync.RWMutex
	handlers map[string][]Handler

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewBus starts a bus with the given buffer size. Sizes below one fall
// back to the default.
func NewBus(bufferSize int, log *logrus.Entry) *Bus {
	if bufferSize < 1 {
		bufferSize = defaultBufferSize
	}
	b := &Bus{
		ch:       make(chan Event, bufferSize),
		log:      log,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers a handler for the named event. Handlers registered
// for the same name run in registration order.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish enqueues the event without blocking. Events published after
// Close, or while the buffer is full, are dropped with a warning.
func (b *Bus) Publish(event Event) {
	select {
	case <-b.done:
		b.log.WithField("event", event.Name()).Warn("event bus closed, event dropped")
		return
	default:
	}
	select {
	case b.ch <- event:
	default:
		b.log.WithField("event", event.Name()).Warn("event buffer full, event dropped")
	}
}

// Close stops the dispatcher after draining events already buffered.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case e := <-b.ch:
			b.deliver(e)
		case <-b.done:
			for {
				select {
				case e := <-b.ch:
					b.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Name()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(context.Background(), event); err != nil {
			b.log.WithError(err).WithField("event", event.Name()).Warn("event handler failed")
		}
	}
}
