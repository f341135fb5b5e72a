package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/nexus-edge/publish-engine/internal/domain"
)

// Registrar implements PublishCallbackRegistration (spec.md §4.5): it
// registers and unregisters a Subscription's repeated publish tick with an
// external Scheduler, idempotently in both directions.
type Registrar struct {
	scheduler Scheduler
	logger    zerolog.Logger
}

// NewRegistrar constructs a Registrar bound to a concrete Scheduler.
func NewRegistrar(sched Scheduler, logger zerolog.Logger) *Registrar {
	return &Registrar{
		scheduler: sched,
		logger:    logger.With().Str("component", "publish-callback-registration").Logger(),
	}
}

// Register asks the scheduler to invoke tick(sub) every
// sub.RevisedPublishingInterval milliseconds. Idempotent: if sub is already
// registered, it returns success without touching the scheduler.
func (r *Registrar) Register(sub *domain.Subscription, tick func(arg any)) error {
	if sub.Registered {
		return nil
	}

	interval := time.Duration(sub.RevisedPublishingInterval * float64(time.Millisecond))
	handle, err := r.scheduler.AddRepeatedCallback(tick, sub, interval)
	if err != nil {
		r.logger.Error().
			Err(err).
			Uint32("subscription_id", sub.SubscriptionID).
			Msg("Failed to register publish callback")
		return err
	}

	sub.PublishCallbackID = handle
	sub.Registered = true

	r.logger.Debug().
		Uint32("subscription_id", sub.SubscriptionID).
		Dur("interval", interval).
		Msg("Registered publish callback")

	return nil
}

// Unregister removes the repeated callback and clears the handle.
// Idempotent: unregistering an already-unregistered subscription is a no-op.
func (r *Registrar) Unregister(sub *domain.Subscription) error {
	if !sub.Registered {
		return nil
	}

	if err := r.scheduler.RemoveRepeatedCallback(sub.PublishCallbackID); err != nil {
		r.logger.Error().
			Err(err).
			Uint32("subscription_id", sub.SubscriptionID).
			Msg("Failed to unregister publish callback")
		return err
	}

	sub.PublishCallbackID = nil
	sub.Registered = false

	r.logger.Debug().
		Uint32("subscription_id", sub.SubscriptionID).
		Msg("Unregistered publish callback")

	return nil
}
