package logfeed

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/louisbranch/flatline/internal/platform/id"
)

// DefaultCapacity is the number of entries retained when no capacity is configured.
const DefaultCapacity = 200

// Options configures a Feed.
type Options struct {
	// Capacity bounds retained entries. Zero or negative means DefaultCapacity.
	Capacity int
	// Now stamps entries built by Emit. Defaults to time.Now.
	Now func() time.Time
	// OnListenerFailure is told about every recovered listener panic.
	OnListenerFailure func(recovered any)
}

// Stats counts feed activity since construction.
type Stats struct {
	Published        uint64
	Delivered        uint64
	Evicted          uint64
	ListenerFailures uint64
	Subscribers      int
	Retained         int
}

type subscriber struct {
	token    uint64
	listener Listener
}

// Feed is a bounded log with ordered synchronous delivery. It is safe for
// concurrent use.
type Feed struct {
	now       func() time.Time
	onFailure func(any)
	ids       *id.Generator
	fallback  atomic.Uint64

	mu         sync.Mutex
	ring       []Entry
	head       int
	size       int
	order      []uint64
	active     map[uint64]Listener
	nextToken  uint64
	pending    []Entry
	delivering bool
	closed     bool
	done       chan struct{}
	stats      Stats
}

// New builds an empty feed.
func New(opts Options) *Feed {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Feed{
		now:       now,
		onFailure: opts.OnListenerFailure,
		ids:       id.NewGenerator(),
		ring:      make([]Entry, capacity),
		active:    make(map[uint64]Listener),
		done:      make(chan struct{}),
	}
}

// Capacity returns the retention bound.
func (f *Feed) Capacity() int {
	return len(f.ring)
}

// Emit builds an entry with a fresh id and the current time, publishes it
// and returns it.
func (f *Feed) Emit(level Level, text string) Entry {
	entry := f.NewEntry(level, text)
	f.Publish(entry)
	return entry
}

// NewEntry builds an entry with a fresh id and the current time without publishing it.
func (f *Feed) NewEntry(level Level, text string) Entry {
	at := f.now()
	entryID, err := f.ids.New(at)
	if err != nil {
		entryID = fmt.Sprintf("%013d-%08d", at.UnixMilli(), f.fallback.Add(1))
	}
	return Entry{ID: entryID, Level: level, Text: text, TS: at.UnixMilli()}
}

// Publish appends entry to the log and delivers it to current subscribers.
//
// If another delivery is in progress, on this goroutine (a listener
// publishing) or another, the entry is queued and delivered by that
// in-progress loop once the current entry has reached every listener.
// Publish after Close is a no-op.
func (f *Feed) Publish(entry Entry) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.retain(entry)
	f.stats.Published++
	f.pending = append(f.pending, entry)
	if f.delivering {
		f.mu.Unlock()
		return
	}
	f.delivering = true
	f.drain()
}

// drain runs with f.mu held and returns with it released.
func (f *Feed) drain() {
	for len(f.pending) > 0 && !f.closed {
		next := f.pending[0]
		f.pending[0] = Entry{}
		f.pending = f.pending[1:]
		targets := append([]uint64(nil), f.order...)
		f.mu.Unlock()

		for _, token := range targets {
			f.mu.Lock()
			listener, ok := f.active[token]
			f.mu.Unlock()
			if !ok {
				continue
			}
			f.deliver(listener, next)
		}

		f.mu.Lock()
	}
	f.pending = nil
	f.delivering = false
	f.mu.Unlock()
}

func (f *Feed) deliver(listener Listener, entry Entry) {
	defer func() {
		if recovered := recover(); recovered != nil {
			f.mu.Lock()
			f.stats.ListenerFailures++
			f.mu.Unlock()
			if f.onFailure != nil {
				f.onFailure(recovered)
			}
		}
	}()
	listener(entry)
	f.mu.Lock()
	f.stats.Delivered++
	f.mu.Unlock()
}

// retain stores entry in the ring, evicting the oldest when full.
func (f *Feed) retain(entry Entry) {
	capacity := len(f.ring)
	if f.size < capacity {
		f.ring[(f.head+f.size)%capacity] = entry
		f.size++
		return
	}
	f.ring[f.head] = entry
	f.head = (f.head + 1) % capacity
	f.stats.Evicted++
}

// Subscribe registers listener for entries published from now on. The
// returned function removes it; calling it more than once is harmless.
func (f *Feed) Subscribe(listener Listener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return func() {}
	}
	f.nextToken++
	token := f.nextToken
	f.active[token] = listener
	f.order = append(f.order, token)

	var once sync.Once
	return func() {
		once.Do(func() { f.remove(token) })
	}
}

func (f *Feed) remove(token uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[token]; !ok {
		return
	}
	delete(f.active, token)
	for i, t := range f.order {
		if t == token {
			f.order = append(f.order[:i:i], f.order[i+1:]...)
			break
		}
	}
}

// Entries returns the retained entries, oldest first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, f.size)
	for i := 0; i < f.size; i++ {
		out[i] = f.ring[(f.head+i)%len(f.ring)]
	}
	return out
}

// Stats returns a snapshot of the feed counters.
func (f *Feed) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.stats
	stats.Subscribers = len(f.order)
	stats.Retained = f.size
	return stats
}

// Done is closed once the feed is closed.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Close drops all subscribers and turns later publishes into no-ops.
// Retained entries stay readable.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		close(f.done)
	}
	f.closed = true
	f.active = make(map[uint64]Listener)
	f.order = nil
	f.pending = nil
}
