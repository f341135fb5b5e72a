package domain

import (
	"container/list"
	"sync"

	"github.com/gopcua/opcua/ua"
)

// QueuedValue is a single sample produced by the sampling engine and queued
// on a MonitoredItem until the assembler drains it into a NotificationMessage.
type QueuedValue struct {
	// ClientHandle identifies the monitored item to the client; it is
	// copied verbatim into the emitted MonitoredItemNotification.
	ClientHandle uint32

	// Value is the sampled data value, already timestamped and
	// status-coded by the sampling engine.
	Value *ua.DataValue
}

// MonitoredItem is a registered data source within a Subscription. The core
// only consumes its queue; sampling itself is an external collaborator
// (spec.md §1).
//
// The queue is a container/list rather than a slice because the assembler
// removes entries mid-walk (spec.md §9): a slice with swap-remove would not
// preserve FIFO order, which is observable by the client.
type MonitoredItem struct {
	// ItemID is the server-assigned monitored item id, unique within its
	// Subscription.
	ItemID uint32

	// ClientHandle is the handle the client used when creating this item;
	// every QueuedValue produced for it carries the same handle.
	ClientHandle uint32

	// SamplingInterval and DiscardOldest mirror the negotiated
	// ua.MonitoringParameters for this item (see SPEC_FULL.md §3A). Sampling
	// itself happens outside the core; these fields only affect how a full
	// queue here is topped up.
	SamplingInterval float64
	DiscardOldest    bool

	// QueueSize is the server-negotiated cap on the FIFO below. Zero means
	// no cap beyond what the sampling engine itself enforces.
	QueueSize uint32

	mu    sync.Mutex
	queue *list.List
}

// NewMonitoredItem constructs an empty MonitoredItem ready to receive
// QueuedValues from the sampling engine.
func NewMonitoredItem(itemID, clientHandle uint32, samplingInterval float64, queueSize uint32, discardOldest bool) *MonitoredItem {
	return &MonitoredItem{
		ItemID:           itemID,
		ClientHandle:     clientHandle,
		SamplingInterval: samplingInterval,
		DiscardOldest:    discardOldest,
		QueueSize:        queueSize,
		queue:            list.New(),
	}
}

// Enqueue appends a sampled value to the tail of the FIFO. If the queue is
// at its configured cap, the oldest or newest entry is dropped per
// DiscardOldest before the new value is appended — this is the sampling
// producer's side of the queue, invoked outside the publish tick.
func (m *MonitoredItem) Enqueue(v QueuedValue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.QueueSize > 0 && uint32(m.queue.Len()) >= m.QueueSize {
		if m.DiscardOldest {
			m.queue.Remove(m.queue.Front())
		} else {
			m.queue.Remove(m.queue.Back())
		}
	}
	m.queue.PushBack(v)
}

// CurrentQueueSize reports how many sampled values are waiting to be
// assembled into a notification.
func (m *MonitoredItem) CurrentQueueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// PeekFront returns the oldest queued value without removing it, and
// reports whether the queue held one.
func (m *MonitoredItem) PeekFront() (QueuedValue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.queue.Front()
	if e == nil {
		return QueuedValue{}, false
	}
	return e.Value.(QueuedValue), true
}

// Dequeue removes and returns the oldest queued value. Used by
// NotificationAssembler.BuildMessage past the point of no return — once a
// value has been dequeued it must end up embedded in the message being
// built.
func (m *MonitoredItem) Dequeue() (QueuedValue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.queue.Front()
	if e == nil {
		return QueuedValue{}, false
	}
	m.queue.Remove(e)
	return e.Value.(QueuedValue), true
}

// ValuesSnapshot returns the queue contents in FIFO order without draining
// it. Intended for diagnostics/tests only; the hot path uses Dequeue.
func (m *MonitoredItem) ValuesSnapshot() []QueuedValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]QueuedValue, 0, m.queue.Len())
	for e := m.queue.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(QueuedValue))
	}
	return out
}
