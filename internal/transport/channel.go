// Package transport wraps the external secure-channel send (spec.md §6,
// §9 Open Question 2) in a circuit breaker, following the teacher's
// modbus.ConnectionPool CircuitBreakerName pattern
// (adapter/modbus/client.go, referenced from cmd/gateway/main.go) so a
// wedged or disconnected channel degrades to fast failures instead of
// stalling the serial tick dispatcher.
package transport

import (
	"time"

	"github.com/gopcua/opcua/ua"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/nexus-edge/publish-engine/internal/domain"
)

// Sender is the minimal send surface the publish tick needs. A concrete
// implementation terminates the actual OPC UA secure channel, which is out
// of scope for this module (spec.md §1).
type Sender interface {
	SendPublishResponse(requestID uint32, resp *ua.PublishResponse) error
}

// BreakerConfig configures the circuit breaker wrapping a Sender.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns sensible defaults: trip after 5 consecutive
// failures, stay open for 10 seconds before allowing a probe request.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         0,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreakerSender wraps a Sender in a gobreaker.CircuitBreaker. Send is
// fire-and-forget from the tick's perspective (spec.md §4.3: "ignored for
// state transitions") — a breaker trip or a send error is logged, never
// propagated into Subscription state. Per spec.md §9's Open Question 2, the
// conservative choice is kept: a failed send never reverses an already-
// buffered retransmission entry.
type CircuitBreakerSender struct {
	inner   Sender
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewCircuitBreakerSender wraps inner with a breaker configured by cfg.
func NewCircuitBreakerSender(inner Sender, cfg BreakerConfig, logger zerolog.Logger) *CircuitBreakerSender {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}

	return &CircuitBreakerSender{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger.With().Str("component", "publish-channel-breaker").Str("breaker", cfg.Name).Logger(),
	}
}

// SendPublishResponse sends resp through the breaker. Errors — including
// gobreaker.ErrOpenState — are logged and returned; the caller (the
// publish tick) only counts them and never branches its state on them.
func (c *CircuitBreakerSender) SendPublishResponse(requestID uint32, resp *ua.PublishResponse) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.inner.SendPublishResponse(requestID, resp)
	})
	if err != nil {
		c.logger.Warn().
			Err(err).
			Uint32("request_id", requestID).
			Uint32("subscription_id", resp.SubscriptionID).
			Msg("Publish response send failed; retransmission entry retained for client recovery")
	}
	return err
}

var (
	_ Sender               = (*CircuitBreakerSender)(nil)
	_ domain.SecureChannel = (*CircuitBreakerSender)(nil)
)
