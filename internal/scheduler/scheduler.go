// Package scheduler implements PublishCallbackRegistration (spec.md §4.5)
// and a concrete Scheduler satisfying the addRepeatedCallback/
// removeRepeatedCallback contract the core consumes (spec.md §6).
//
// Grounded on the teacher's per-device ticker goroutine in
// internal/service/polling.go (startDevicePoller/pollDevice): one
// time.Ticker per registered unit and a stop channel for idempotent
// teardown.
package scheduler

import (
	"sync"
	"time"
)

// Callback is invoked once per publishing interval with the argument
// supplied at registration time (spec.md §6).
type Callback func(arg any)

// Scheduler is the external collaborator the core drives ticks through.
// Callbacks for a given handle are serialized: the contract guarantees no
// two ticks for the same subscription execute concurrently (spec.md §4.5).
type Scheduler interface {
	AddRepeatedCallback(fn Callback, arg any, interval time.Duration) (handle any, err error)
	RemoveRepeatedCallback(handle any) error
}

// TickerScheduler is the in-process Scheduler implementation: one
// time.Ticker per registration, each driving its callback from its own
// goroutine so that different subscriptions tick independently, while a
// single goroutine per handle guarantees serialization for that handle.
type TickerScheduler struct {
	mu   sync.Mutex
	next uint64
	regs map[uint64]*registration
}

type registration struct {
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
}

// NewTickerScheduler constructs an empty TickerScheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{regs: make(map[uint64]*registration)}
}

// AddRepeatedCallback starts a new ticker-driven goroutine invoking fn(arg)
// every interval, and returns an opaque handle for later removal.
func (s *TickerScheduler) AddRepeatedCallback(fn Callback, arg any, interval time.Duration) (any, error) {
	s.mu.Lock()
	handle := s.next
	s.next++
	reg := &registration{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.regs[handle] = reg
	s.mu.Unlock()

	go func() {
		defer close(reg.done)
		defer reg.ticker.Stop()
		for {
			select {
			case <-reg.stop:
				return
			case <-reg.ticker.C:
				fn(arg)
			}
		}
	}()

	return handle, nil
}

// RemoveRepeatedCallback stops and forgets the ticker for handle. Idempotent:
// removing an already-removed or unknown handle is a no-op success, mirroring
// the core's idempotent unregister contract (spec.md §4.5). It does not wait
// for a callback already in progress, so a callback may remove its own
// registration (as a tick does when its subscription expires).
func (s *TickerScheduler) RemoveRepeatedCallback(handle any) error {
	s.mu.Lock()
	h, ok := handle.(uint64)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	reg, exists := s.regs[h]
	if !exists {
		s.mu.Unlock()
		return nil
	}
	delete(s.regs, h)
	s.mu.Unlock()

	close(reg.stop)
	return nil
}

var _ Scheduler = (*TickerScheduler)(nil)
