package watcher

import (
	"sync"
	"time"
)

// batcher coalesces events per path and emits them once no event has
// arrived for delay, or once maxWait has passed since the first pending
// event. A path that changes several times appears once, with its latest
// event, at the position it was first seen.
type batcher struct {
	delay   time.Duration
	maxWait time.Duration
	emit    func([]Event)

	mu      sync.Mutex
	timer   *time.Timer
	first   time.Time
	order   []string
	pending map[string]Event
}

func newBatcher(delay, maxWait time.Duration, emit func([]Event)) *batcher {
	return &batcher{
		delay:   delay,
		maxWait: maxWait,
		emit:    emit,
		pending: make(map[string]Event),
	}
}

func (b *batcher) add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pending[event.Path]; !ok {
		b.order = append(b.order, event.Path)
	}
	b.pending[event.Path] = event

	now := time.Now()
	if b.timer == nil {
		b.first = now
	} else {
		b.timer.Stop()
	}
	wait := b.delay
	if b.maxWait > 0 {
		if left := b.maxWait - now.Sub(b.first); left < wait {
			wait = max(left, 0)
		}
	}
	b.timer = time.AfterFunc(wait, b.flush)
}

// take removes and returns the pending events.
func (b *batcher) take() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	events := make([]Event, 0, len(b.order))
	for _, path := range b.order {
		events = append(events, b.pending[path])
	}
	b.order = nil
	clear(b.pending)
	return events
}

// flush emits the pending events now.
func (b *batcher) flush() {
	if events := b.take(); len(events) > 0 {
		b.emit(events)
	}
}

// cancel drops the pending events.
func (b *batcher) cancel() {
	b.take()
}

func (b *batcher) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
