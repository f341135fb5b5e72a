// Package retransmission implements the bounded, ack-driven retransmission
// cache described in spec.md §4.1: a FIFO of sent NotificationMessages,
// keyed by sequence number, newest-first insertion with oldest-evicted on
// overflow.
package retransmission

import (
	"container/list"
	"sync"

	"github.com/nexus-edge/publish-engine/internal/domain"
)

// Buffer implements domain.RetransmissionStore. A container/list is used
// per spec.md §9's design note ("use a deque or a singly-linked list with
// iterator-safe removal"); acknowledge is a linear scan, which the spec
// explicitly calls adequate for the small sizes this collection sees in
// practice (§9), noting that a mapping keyed by sequence number would be a
// drop-in optimization if that ever stopped being true.
type Buffer struct {
	capacity int // 0 means unlimited

	mu      sync.Mutex
	entries *list.List // front = newest, back = oldest
}

// NewBuffer constructs a Buffer bounded by capacity entries. capacity <= 0
// means unlimited (spec.md §4.1: "Capacity 0 means unlimited").
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{
		capacity: capacity,
		entries:  list.New(),
	}
}

// Insert adds entry at the head (most-recent). If the buffer is at capacity
// and the cap is > 0, the tail (oldest) entry is evicted before insertion.
func (b *Buffer) Insert(entry domain.NotificationMessageEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity > 0 && b.entries.Len() >= b.capacity {
		b.entries.Remove(b.entries.Back())
	}
	b.entries.PushFront(entry)
}

// Acknowledge removes the entry matching seqNum via linear scan. Comparing
// by equality (not ordering) matters because sequence numbers wrap at
// 2^32 (spec.md §9).
func (b *Buffer) Acknowledge(seqNum uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for e := b.entries.Front(); e != nil; e = e.Next() {
		if e.Value.(domain.NotificationMessageEntry).SequenceNumber == seqNum {
			b.entries.Remove(e)
			return nil
		}
	}
	return domain.ErrSequenceNumberUnknown
}

// SnapshotSequenceNumbers returns the sequence numbers currently buffered,
// in retransmission-queue order (newest first), for inclusion in the next
// response's availableSequenceNumbers. The returned slice is a fresh copy
// so its lifetime can outlive the buffer's internal mutations (spec.md §9:
// "use a temporary owned buffer whose lifetime matches the response send").
func (b *Buffer) SnapshotSequenceNumbers() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]uint32, 0, b.entries.Len())
	for e := b.entries.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(domain.NotificationMessageEntry).SequenceNumber)
	}
	return out
}

// DrainAll empties the buffer; called on subscription deletion.
func (b *Buffer) DrainAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.Init()
}

// Len reports the current buffer size.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries.Len()
}

var _ domain.RetransmissionStore = (*Buffer)(nil)
