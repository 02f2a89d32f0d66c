package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Buffer queues entries in a fixed-size ring and delivers them to its
// transporters from one background goroutine. When the ring is full the
// oldest queued entry is overwritten.
type Buffer struct {
	mu     sync.Mutex
	ready  *sync.Cond
	ring   []Entry
	head   int
	size   int
	closed bool

	dropped      atomic.Int64
	done         chan struct{}
	transporters []Transporter

	// failures receives transporter errors.
	failures io.Writer
}

// NewBuffer starts a buffer holding at most capacity undelivered entries.
func NewBuffer(capacity int, transporters ...Transporter) *Buffer {
	b := &Buffer{
		ring:         make([]Entry, max(capacity, 1)),
		done:         make(chan struct{}),
		transporters: transporters,
		failures:     os.Stderr,
	}
	b.ready = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// Send queues entry without blocking. Entries sent after Close are
// discarded.
func (b *Buffer) Send(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	if b.size == len(b.ring) {
		b.head = (b.head + 1) % len(b.ring)
		b.size--
		b.dropped.Add(1)
	}
	b.ring[(b.head+b.size)%len(b.ring)] = entry
	b.size++
	b.ready.Signal()
}

// DroppedCount is the number of entries overwritten before delivery.
func (b *Buffer) DroppedCount() int64 {
	return b.dropped.Load()
}

// Close delivers everything still queued and stops the worker. It may be
// called more than once. Transporters are not closed.
func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.ready.Broadcast()
	b.mu.Unlock()
	<-b.done
}

func (b *Buffer) run() {
	defer close(b.done)
	for {
		batch, ok := b.take()
		for _, entry := range batch {
			b.deliver(entry)
		}
		if !ok {
			return
		}
	}
}

// take waits for queued entries and removes all of them. ok is false once
// the buffer is closed and empty.
func (b *Buffer) take() (batch []Entry, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.size == 0 && !b.closed {
		b.ready.Wait()
	}
	if b.size == 0 {
		return nil, false
	}

	batch = make([]Entry, b.size)
	for i := range batch {
		idx := (b.head + i) % len(b.ring)
		batch[i] = b.ring[idx]
		b.ring[idx] = Entry{}
	}
	b.head, b.size = 0, 0
	return batch, true
}

func (b *Buffer) deliver(entry Entry) {
	for _, t := range b.transporters {
		if err := t.Write(entry); err != nil {
			fmt.Fprintf(b.failures, "log: transporter %s: %v\n", t.Name(), err)
		}
	}
}
