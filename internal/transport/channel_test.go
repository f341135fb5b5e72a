package transport_test

import (
	"errors"
	"testing"

	"github.com/gopcua/opcua/ua"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-edge/publish-engine/internal/transport"
)

type fakeSender struct {
	err   error
	calls int
}

func (f *fakeSender) SendPublishResponse(requestID uint32, resp *ua.PublishResponse) error {
	f.calls++
	return f.err
}

func TestCircuitBreakerSender_PassesThroughSuccess(t *testing.T) {
	inner := &fakeSender{}
	sender := transport.NewCircuitBreakerSender(inner, transport.DefaultBreakerConfig("test"), zerolog.Nop())

	err := sender.SendPublishResponse(1, &ua.PublishResponse{SubscriptionID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCircuitBreakerSender_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeSender{err: errors.New("channel closed")}
	cfg := transport.DefaultBreakerConfig("test-trip")
	cfg.FailureThreshold = 3
	sender := transport.NewCircuitBreakerSender(inner, cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		err := sender.SendPublishResponse(uint32(i), &ua.PublishResponse{})
		assert.Error(t, err)
	}
	assert.Equal(t, 3, inner.calls)

	// Breaker should now be open: the call short-circuits without reaching inner.
	err := sender.SendPublishResponse(99, &ua.PublishResponse{})
	assert.Error(t, err)
	assert.Equal(t, 3, inner.calls, "breaker should short-circuit without calling inner again")
}
