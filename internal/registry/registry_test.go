package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-edge/publish-engine/internal/domain"
	"github.com/nexus-edge/publish-engine/internal/registry"
	"github.com/nexus-edge/publish-engine/internal/retransmission"
)

func TestRegistry_AddAndLookupSubscription(t *testing.T) {
	r := registry.New()
	sess := domain.NewSession("sess-1")
	r.RegisterSession(sess)

	sub := domain.NewSubscription(7, "sess-1", 100, 5, 10, 10, true, 0, retransmission.NewBuffer(0))
	require.NoError(t, r.AddSubscription(sub))

	got, err := r.Subscription(7)
	require.NoError(t, err)
	assert.Same(t, sub, got)
}

func TestRegistry_AddSubscription_UnknownSession(t *testing.T) {
	r := registry.New()
	sub := domain.NewSubscription(1, "missing", 100, 5, 10, 10, true, 0, retransmission.NewBuffer(0))
	err := r.AddSubscription(sub)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRegistry_DeleteSubscription_ReportsLastSubscription(t *testing.T) {
	r := registry.New()
	sess := domain.NewSession("sess-1")
	r.RegisterSession(sess)

	sub1 := domain.NewSubscription(1, "sess-1", 100, 5, 10, 10, true, 0, retransmission.NewBuffer(0))
	sub2 := domain.NewSubscription(2, "sess-1", 100, 5, 10, 10, true, 0, retransmission.NewBuffer(0))
	require.NoError(t, r.AddSubscription(sub1))
	require.NoError(t, r.AddSubscription(sub2))

	_, wasLast, err := r.DeleteSubscription(1)
	require.NoError(t, err)
	assert.False(t, wasLast)

	_, wasLast, err = r.DeleteSubscription(2)
	require.NoError(t, err)
	assert.True(t, wasLast)

	_, _, err = r.DeleteSubscription(2)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestFindAndDeleteMonitoredItem(t *testing.T) {
	sub := domain.NewSubscription(1, "sess-1", 100, 5, 10, 10, true, 0, retransmission.NewBuffer(0))
	item := domain.NewMonitoredItem(9, 9, 0, 0, true)
	sub.MonitoredItems = []*domain.MonitoredItem{item}

	got, err := registry.FindMonitoredItem(sub, 9)
	require.NoError(t, err)
	assert.Same(t, item, got)

	_, err = registry.FindMonitoredItem(sub, 404)
	assert.ErrorIs(t, err, domain.ErrMonitoredItemIDInvalid)

	require.NoError(t, registry.DeleteMonitoredItem(sub, 9))
	assert.Empty(t, sub.MonitoredItems)

	err = registry.DeleteMonitoredItem(sub, 9)
	assert.ErrorIs(t, err, domain.ErrMonitoredItemIDInvalid)
}
