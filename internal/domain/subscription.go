package domain

import "sync"

// State is the persistent publish state of a Subscription across ticks.
// Keep-alive is not a persistent state: it is a momentary send variant
// chosen by the tick when the keep-alive counter reaches its max (spec.md
// §4.3).
type State int

const (
	// StateNormal is the steady state: data is assembled and sent whenever
	// a PublishRequest envelope is available.
	StateNormal State = iota

	// StateLate is entered the first tick a publish cannot be delivered for
	// lack of a queued PublishRequest, and persists until a send succeeds
	// or the subscription's lifetime expires.
	StateLate
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateLate:
		return "Late"
	default:
		return "Unknown"
	}
}

// Subscription is the long-lived, per-session entity the publish engine
// drives on every scheduler tick (spec.md §3).
type Subscription struct {
	// SubscriptionID is unique within the server.
	SubscriptionID uint32

	// SessionID identifies the owning Session; a non-owning back-reference
	// resolved through the registry (spec.md §9), never a pointer cycle.
	SessionID string

	// Configuration, as negotiated with the client at CreateSubscription
	// time. Revised* fields record what the server actually granted, which
	// may differ from what the client requested.
	PublishingInterval         float64 // milliseconds
	RevisedPublishingInterval  float64
	MaxKeepAliveCount          uint32
	RevisedMaxKeepAliveCount   uint32
	LifetimeCount              uint32
	RevisedLifetimeCount       uint32
	NotificationsPerPublish    uint32
	PublishingEnabled          bool
	Priority                   uint8

	// Running counters. Mutated only on the single-threaded server event
	// loop (spec.md §5); the mutex below exists so read-only observers
	// (metrics, diagnostics, tests) can inspect state concurrently without
	// racing the tick.
	mu                    sync.Mutex
	CurrentKeepAliveCount uint32
	CurrentLifetimeCount  uint32
	SequenceNumber        uint32
	state                 State

	// MonitoredItems are owned by this Subscription, in insertion order —
	// a slice is fine here: monitored items are never removed mid-walk,
	// only their queues are (spec.md §9 "Linear scan ... adequate").
	MonitoredItems []*MonitoredItem

	// Retransmission is the owned, bounded retransmission queue (§4.1).
	Retransmission RetransmissionStore

	// PublishCallbackID is the opaque handle returned by the scheduler's
	// addRepeatedCallback; Registered tracks whether it is currently live.
	PublishCallbackID any
	Registered        bool

	// Deleted is set once the subscription has been torn down, guarding
	// against a late-arriving tick on an already-deleted subscription
	// (deletion is idempotent per spec.md §7).
	Deleted bool
}

// NewSubscription constructs a Subscription with its counters zeroed and
// state Normal, per spec.md §3's invariants.
func NewSubscription(id uint32, sessionID string, publishingInterval float64, maxKeepAliveCount, lifetimeCount, notificationsPerPublish uint32, publishingEnabled bool, priority uint8, store RetransmissionStore) *Subscription {
	return &Subscription{
		SubscriptionID:            id,
		SessionID:                 sessionID,
		PublishingInterval:        publishingInterval,
		RevisedPublishingInterval: publishingInterval,
		MaxKeepAliveCount:         maxKeepAliveCount,
		RevisedMaxKeepAliveCount:  maxKeepAliveCount,
		LifetimeCount:             lifetimeCount,
		RevisedLifetimeCount:      lifetimeCount,
		NotificationsPerPublish:   notificationsPerPublish,
		PublishingEnabled:         publishingEnabled,
		Priority:                  priority,
		Retransmission:            store,
		state:                     StateNormal,
	}
}

// State returns the subscription's current persistent state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the subscription's persistent state.
func (s *Subscription) SetState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// ResetCounters zeroes keep-alive and lifetime counters and returns the
// subscription to Normal — performed after every successful send (spec.md
// §4.3).
func (s *Subscription) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentKeepAliveCount = 0
	s.CurrentLifetimeCount = 0
	s.state = StateNormal
}

// NextSequenceNumber advances and returns the sequence number for a
// non-empty send. Wraps per protocol rules (uint32 overflow is
// well-defined in Go and treated as the wrap spec.md §9 describes).
func (s *Subscription) NextSequenceNumber() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SequenceNumber++
	return s.SequenceNumber
}

// PeekNextSequenceNumber returns SequenceNumber+1 without advancing the
// counter — used for the keep-alive send, which carries the next value but
// does not consume it (spec.md §3 invariant 4).
func (s *Subscription) PeekNextSequenceNumber() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SequenceNumber + 1
}

// IncrementKeepAlive advances the keep-alive counter and returns its new
// value. The counter saturates at RevisedMaxKeepAliveCount, so invariant 1
// (spec.md §3) holds even while a due keep-alive has no PublishRequest to
// carry it; the caller sends a keep-alive once the return reaches the max.
func (s *Subscription) IncrementKeepAlive() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CurrentKeepAliveCount < s.RevisedMaxKeepAliveCount {
		s.CurrentKeepAliveCount++
	}
	return s.CurrentKeepAliveCount
}

// IncrementLifetime advances the lifetime counter and returns its new
// value. Invariant 2 (spec.md §3) requires the caller to delete the
// subscription once the return value exceeds RevisedLifetimeCount.
func (s *Subscription) IncrementLifetime() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentLifetimeCount++
	return s.CurrentLifetimeCount
}
