// Package publish implements the publish tick: SubscriptionStateMachine
// (spec.md §4.3), PublishResponsePairing (§4.4), and SessionFanout (§4.4,
// §6).
package publish

import "github.com/nexus-edge/publish-engine/internal/domain"

// Pairing implements PublishResponsePairing (spec.md §4.4): matching the
// next queued client PublishRequest envelope with an assembled message or a
// keep-alive. The FIFO itself is owned by domain.Session; Pairing is the
// named seam the state machine calls through, matching the component
// boundary spec.md draws between pairing and the state machine.
type Pairing struct{}

// NewPairing constructs a Pairing. It holds no state of its own.
func NewPairing() *Pairing {
	return &Pairing{}
}

// TakeNext removes and returns the head of sess's PublishRequest FIFO, or
// reports that it is empty.
func (p *Pairing) TakeNext(sess *domain.Session) (domain.PublishResponseEntry, bool) {
	return sess.TakeNextPublishRequest()
}
