package domain

import (
	"container/list"
	"sync"

	"github.com/gopcua/opcua/ua"
)

// SecureChannel is the opaque, external secure-channel collaborator
// (spec.md §6). Sending is fire-and-forget from the tick's perspective: its
// return value is not used to drive any state transition, only logged.
type SecureChannel interface {
	SendPublishResponse(requestID uint32, resp *ua.PublishResponse) error
}

// PublishResponseEntry is a PublishRequest envelope pre-allocated by the
// session layer when the client sent a PublishRequest, waiting for the core
// to pair it with an assembled message or a keep-alive (spec.md §3).
type PublishResponseEntry struct {
	RequestID     uint32
	ResponseShell *ua.PublishResponse
}

// Session owns its Subscriptions and its queue of pre-allocated
// PublishResponseEntry envelopes (spec.md §6). The response queue is a
// container/list FIFO for the same mid-drain removal reason as
// MonitoredItem's value queue (spec.md §9).
type Session struct {
	SessionID string
	Channel   SecureChannel

	mu            sync.Mutex
	subscriptions []*Subscription
	responseQueue *list.List
}

// NewSession constructs an empty Session not yet attached to a secure
// channel (Channel may be set later, or left nil — spec.md §7 treats a
// missing channel as a silent no-op condition).
func NewSession(sessionID string) *Session {
	return &Session{
		SessionID:     sessionID,
		responseQueue: list.New(),
	}
}

// EnqueuePublishRequest appends a PublishResponseEntry to the tail of the
// session's FIFO; called by the request-handling layer when a
// PublishRequest arrives.
func (s *Session) EnqueuePublishRequest(entry PublishResponseEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseQueue.PushBack(entry)
}

// RequeuePublishRequest pushes entry back onto the front of the FIFO. Used
// when a resource error aborts a tick after the envelope was already
// popped, so the client's PublishRequest is not silently lost (spec.md §7:
// resource errors leave state otherwise unchanged).
func (s *Session) RequeuePublishRequest(entry PublishResponseEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseQueue.PushFront(entry)
}

// TakeNextPublishRequest removes and returns the head of the FIFO
// (PublishResponsePairing.takeNext, spec.md §4.4).
func (s *Session) TakeNextPublishRequest() (PublishResponseEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.responseQueue.Front()
	if e == nil {
		return PublishResponseEntry{}, false
	}
	s.responseQueue.Remove(e)
	return e.Value.(PublishResponseEntry), true
}

// DrainPublishRequests removes and returns every remaining
// PublishResponseEntry, in FIFO order. Used by SessionFanout when the
// session's last subscription is deleted.
func (s *Session) DrainPublishRequests() []PublishResponseEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PublishResponseEntry, 0, s.responseQueue.Len())
	for e := s.responseQueue.Front(); e != nil; {
		next := e.Next()
		out = append(out, e.Value.(PublishResponseEntry))
		s.responseQueue.Remove(e)
		e = next
	}
	return out
}

// PendingPublishRequests reports how many envelopes are currently queued.
func (s *Session) PendingPublishRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responseQueue.Len()
}

// AddSubscription registers a Subscription as owned by this Session.
func (s *Session) AddSubscription(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, sub)
}

// RemoveSubscription detaches a Subscription from this Session by id,
// reporting whether this was the session's last subscription (the trigger
// for SessionFanout per spec.md §4.4).
func (s *Session) RemoveSubscription(subscriptionID uint32) (removed bool, wasLast bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscriptions {
		if sub.SubscriptionID == subscriptionID {
			s.subscriptions = append(s.subscriptions[:i], s.subscriptions[i+1:]...)
			return true, len(s.subscriptions) == 0
		}
	}
	return false, len(s.subscriptions) == 0
}

// Subscriptions returns a snapshot of the session's owned subscriptions, in
// insertion order.
func (s *Session) Subscriptions() []*Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}
