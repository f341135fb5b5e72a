// Package registry implements the SubscriptionRegistry described in
// spec.md §4.6: a per-session collection of Subscriptions and
// per-subscription collection of MonitoredItems, with lookup and deletion
// by id.
//
// Grounded on the teacher's PollingService device map in
// internal/service/polling.go: a map keyed by id guarded by a
// sync.RWMutex, with idempotent register/unregister semantics.
package registry

import (
	"sync"

	"github.com/nexus-edge/publish-engine/internal/domain"
)

// Registry tracks every Session and, through it, every Subscription the
// server currently owns.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	subs     map[uint32]*domain.Subscription // subscriptionID -> subscription, for O(1) lookup by id alone
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		subs:     make(map[uint32]*domain.Subscription),
	}
}

// RegisterSession adds a Session to the registry, or is a no-op if one
// with the same id is already present.
func (r *Registry) RegisterSession(sess *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sess.SessionID]; exists {
		return
	}
	r.sessions[sess.SessionID] = sess
}

// Session looks up a Session by id.
func (r *Registry) Session(sessionID string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// AddSubscription attaches sub to its owning session (by sub.SessionID) and
// indexes it for direct id lookup.
func (r *Registry) AddSubscription(sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sub.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if _, exists := r.subs[sub.SubscriptionID]; exists {
		return domain.ErrSubscriptionExists
	}

	sess.AddSubscription(sub)
	r.subs[sub.SubscriptionID] = sub
	return nil
}

// Subscription looks up a Subscription by id, independent of its session.
func (r *Registry) Subscription(subscriptionID uint32) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[subscriptionID]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// DeleteSubscription removes a Subscription from both the id index and its
// owning session, reporting whether this was the session's last
// subscription (the SessionFanout trigger, spec.md §4.4).
func (r *Registry) DeleteSubscription(subscriptionID uint32) (sess *domain.Session, wasLastSubscription bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[subscriptionID]
	if !ok {
		return nil, false, domain.ErrSubscriptionNotFound
	}
	delete(r.subs, subscriptionID)

	sess, ok = r.sessions[sub.SessionID]
	if !ok {
		return nil, false, domain.ErrSessionNotFound
	}
	_, wasLast := sess.RemoveSubscription(subscriptionID)
	return sess, wasLast, nil
}

// FindMonitoredItem performs the linear scan described in spec.md §4.6;
// adequate because monitored items per subscription are typically tens to
// hundreds (§9).
func FindMonitoredItem(sub *domain.Subscription, itemID uint32) (*domain.MonitoredItem, error) {
	for _, item := range sub.MonitoredItems {
		if item.ItemID == itemID {
			return item, nil
		}
	}
	return nil, domain.ErrMonitoredItemIDInvalid
}

// DeleteMonitoredItem removes a MonitoredItem from its Subscription by id.
func DeleteMonitoredItem(sub *domain.Subscription, itemID uint32) error {
	for i, item := range sub.MonitoredItems {
		if item.ItemID == itemID {
			sub.MonitoredItems = append(sub.MonitoredItems[:i], sub.MonitoredItems[i+1:]...)
			return nil
		}
	}
	return domain.ErrMonitoredItemIDInvalid
}
