package publish

import (
	"time"

	"github.com/gopcua/opcua/ua"
	"github.com/rs/zerolog"

	"github.com/nexus-edge/publish-engine/internal/domain"
	"github.com/nexus-edge/publish-engine/internal/metrics"
	"github.com/nexus-edge/publish-engine/internal/notification"
	"github.com/nexus-edge/publish-engine/internal/registry"
	"github.com/nexus-edge/publish-engine/internal/scheduler"
)

// ItemDeleter is the external MonitoredItem subsystem's delete operation
// (spec.md §6: "operations ... delete(item)"), invoked once per item when
// a subscription is deleted.
type ItemDeleter interface {
	Delete(itemID uint32)
}

// LifecycleNotifier is the optional diagnostics sink for subscription
// lifecycle transitions (SPEC_FULL.md §4.8). A nil LifecycleNotifier is a
// valid no-op: the core never depends on it to function.
type LifecycleNotifier interface {
	SubscriptionDeleted(subscriptionID uint32, sessionID string)
	SubscriptionExpired(subscriptionID uint32, sessionID string)
}

// StateMachine implements SubscriptionStateMachine (spec.md §4.3): the
// publish tick invoked by the scheduler at every PublishingInterval.
//
// Grounded on the teacher's PollingService.pollDevice shape in
// internal/service/polling.go — acquire-slot/do-work/record-stats/log
// pattern — generalized from a single poll-and-publish step to the
// Normal/Late/keep-alive/lifetime state machine spec.md §4.3 describes.
type StateMachine struct {
	assembler   *notification.Assembler
	pairing     *Pairing
	fanout      *Fanout
	registrar   *scheduler.Registrar
	reg         *registry.Registry
	itemDeleter ItemDeleter // optional; nil is a valid no-op
	notifier    LifecycleNotifier // optional; nil is a valid no-op
	metrics     *metrics.Registry
	logger      zerolog.Logger
}

// New constructs a StateMachine. itemDeleter and notifier may both be nil
// if the deployment has no external MonitoredItem subsystem or
// diagnostics bridge to notify.
func New(
	assembler *notification.Assembler,
	reg *registry.Registry,
	registrar *scheduler.Registrar,
	itemDeleter ItemDeleter,
	metricsReg *metrics.Registry,
	logger zerolog.Logger,
) *StateMachine {
	return &StateMachine{
		assembler:   assembler,
		pairing:     NewPairing(),
		fanout:      NewFanout(logger),
		registrar:   registrar,
		reg:         reg,
		itemDeleter: itemDeleter,
		metrics:     metricsReg,
		logger:      logger.With().Str("component", "subscription-state-machine").Logger(),
	}
}

// SetNotifier attaches an optional LifecycleNotifier after construction, so
// main can wire the diagnostics bridge without changing New's signature
// (and without the test harness ever needing to construct one).
func (sm *StateMachine) SetNotifier(notifier LifecycleNotifier) {
	sm.notifier = notifier
}

// Activate registers sub's periodic publish tick with the scheduler
// (PublishCallbackRegistration, spec.md §4.5). Idempotent, matching
// Registrar.Register.
func (sm *StateMachine) Activate(sub *domain.Subscription) error {
	return sm.registrar.Register(sub, func(arg any) {
		sm.Tick(arg.(*domain.Subscription))
	})
}

// Tick runs one publish cycle for sub, recursing (as a bounded loop, per
// spec.md §9's design note) while moreNotifications remains true and a
// PublishRequest is still available. Never propagates an error upward —
// every failure mode it can hit is logged and absorbed (spec.md §7).
func (sm *StateMachine) Tick(sub *domain.Subscription) {
	start := time.Now()
	defer func() {
		if sm.metrics != nil {
			sm.metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if sub.Deleted {
		return
	}

	sess, err := sm.reg.Session(sub.SessionID)
	if err != nil {
		sm.logger.Warn().
			Err(err).
			Uint32("subscription_id", sub.SubscriptionID).
			Msg("Tick fired for subscription with no resolvable session")
		return
	}

	if sess.Channel == nil {
		// No-op condition (spec.md §7): session not yet attached to a
		// secure channel. Counters are left untouched; the next tick will
		// try again.
		return
	}

	for {
		count, more := sm.assembler.CountAvailable(sub)

		if count > 0 {
			if !sm.pairAndSend(sub, sess, count, more, false) {
				return
			}
			if !more {
				return
			}
			continue
		}

		if sub.IncrementKeepAlive() < sub.RevisedMaxKeepAliveCount {
			return
		}

		sm.pairAndSend(sub, sess, 0, false, true)
		return
	}
}

// pairAndSend implements the `pairResponse` subroutine in spec.md §4.3: it
// pops the next PublishRequest envelope and either sends (resetting
// counters to Normal) or drives the Late/lifetime-expiry branch. Returns
// whether a response was actually sent.
func (sm *StateMachine) pairAndSend(sub *domain.Subscription, sess *domain.Session, count int, more bool, keepAlive bool) bool {
	entry, ok := sm.pairing.TakeNext(sess)
	if !ok {
		if sub.State() != domain.StateLate {
			sub.SetState(domain.StateLate)
			sm.logger.Debug().
				Uint32("subscription_id", sub.SubscriptionID).
				Msg("No PublishRequest available; subscription entering Late")
			return false
		}

		lifetime := sub.IncrementLifetime()
		if lifetime > sub.RevisedLifetimeCount {
			sm.expire(sub, sess)
		}
		return false
	}

	var (
		msg *ua.NotificationMessage
		seq uint32
	)

	if keepAlive {
		seq = sub.PeekNextSequenceNumber()
		msg = domain.NewKeepAliveMessage(seq, time.Now())
	} else {
		dcn, err := sm.assembler.BuildMessage(sub, count)
		if err != nil {
			// Resource error (spec.md §7): logged, tick aborted, state
			// unchanged. The popped envelope is not lost — it goes back to
			// the front of the queue so the next tick can retry it.
			sess.RequeuePublishRequest(entry)
			sm.logger.Error().
				Err(err).
				Uint32("subscription_id", sub.SubscriptionID).
				Msg("Failed to build notification message")
			return false
		}
		seq = sub.NextSequenceNumber()
		msg = domain.NewNotificationMessage(seq, time.Now(), dcn)

		// Point of no return: the message is inserted into the
		// retransmission buffer BEFORE availableSequenceNumbers is
		// computed, so the just-sent message appears in its own
		// acknowledgeable list (spec.md §3 invariant 5, §4.3).
		before := sub.Retransmission.Len()
		sub.Retransmission.Insert(domain.NotificationMessageEntry{
			SequenceNumber:          seq,
			PublishTime:             msg.PublishTime,
			EncodedNotificationData: msg.NotificationData,
		})
		// An insert that leaves the size unchanged evicted the oldest entry.
		if sm.metrics != nil && sub.Retransmission.Len() == before {
			sm.metrics.RetransmissionEvicted.Inc()
		}
	}

	available := sub.Retransmission.SnapshotSequenceNumbers()
	resp := domain.NewPublishResponse(sub.SubscriptionID, available, more, msg, ua.StatusOK)

	// Fire-and-forget (spec.md §6): the send's outcome never drives a state
	// transition, win or lose.
	if err := sess.Channel.SendPublishResponse(entry.RequestID, resp); err != nil && sm.metrics != nil {
		sm.metrics.SendFailures.Inc()
	}

	sub.ResetCounters()

	if sm.metrics != nil {
		if keepAlive {
			sm.metrics.KeepAlivesSent.Inc()
		} else {
			sm.metrics.NotificationsPublished.Inc()
		}
	}

	return true
}

// expire implements the lifetime-expiry deletion branch (spec.md §4.3):
// removes the subscription from its session's registry, drains the
// retransmission buffer, deletes owned monitored items, and unregisters
// the scheduler callback. Deletion is idempotent (spec.md §7).
func (sm *StateMachine) expire(sub *domain.Subscription, sess *domain.Session) {
	sm.logger.Info().
		Uint32("subscription_id", sub.SubscriptionID).
		Uint32("lifetime_count", sub.CurrentLifetimeCount).
		Msg("Lifetime count exceeded; deleting subscription")

	if sm.metrics != nil {
		sm.metrics.SubscriptionsExpired.Inc()
	}
	if sm.notifier != nil {
		sm.notifier.SubscriptionExpired(sub.SubscriptionID, sub.SessionID)
	}
	sm.Delete(sub, sess)
}

// Delete tears down sub: unregisters its scheduler callback, drains its
// retransmission buffer, deletes its monitored items, removes it from the
// registry, and — if this was the session's last subscription — triggers
// SessionFanout. Safe to call more than once for the same subscription.
func (sm *StateMachine) Delete(sub *domain.Subscription, sess *domain.Session) {
	if sub.Deleted {
		return
	}

	if err := sm.registrar.Unregister(sub); err != nil {
		sm.logger.Warn().Err(err).Uint32("subscription_id", sub.SubscriptionID).Msg("Failed to unregister publish callback during deletion")
	}

	sub.Retransmission.DrainAll()

	if sm.itemDeleter != nil {
		for _, item := range sub.MonitoredItems {
			sm.itemDeleter.Delete(item.ItemID)
		}
	}
	sub.MonitoredItems = nil
	sub.Deleted = true

	_, wasLast, err := sm.reg.DeleteSubscription(sub.SubscriptionID)
	if err != nil {
		sm.logger.Warn().Err(err).Uint32("subscription_id", sub.SubscriptionID).Msg("Subscription already absent from registry")
	}

	if sm.metrics != nil {
		sm.metrics.SubscriptionsDeleted.Inc()
	}
	if sm.notifier != nil {
		sm.notifier.SubscriptionDeleted(sub.SubscriptionID, sub.SessionID)
	}

	if wasLast && sess != nil {
		sm.fanout.Drain(sess)
	}
}
