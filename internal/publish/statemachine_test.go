package publish_test

import (
	"sync"
	"testing"

	"github.com/gopcua/opcua/ua"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-edge/publish-engine/internal/domain"
	"github.com/nexus-edge/publish-engine/internal/notification"
	"github.com/nexus-edge/publish-engine/internal/publish"
	"github.com/nexus-edge/publish-engine/internal/registry"
	"github.com/nexus-edge/publish-engine/internal/retransmission"
	"github.com/nexus-edge/publish-engine/internal/scheduler"
)

type fakeChannel struct {
	mu   sync.Mutex
	sent []*ua.PublishResponse
	reqs []uint32
}

func (f *fakeChannel) SendPublishResponse(requestID uint32, resp *ua.PublishResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, resp)
	f.reqs = append(f.reqs, requestID)
	return nil
}

func (f *fakeChannel) responses() []*ua.PublishResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ua.PublishResponse, len(f.sent))
	copy(out, f.sent)
	return out
}

type harness struct {
	sess *domain.Session
	sub  *domain.Subscription
	ch   *fakeChannel
	sm   *publish.StateMachine
	reg  *registry.Registry
}

func newHarness(t *testing.T, notificationsPerPublish, maxKeepAlive, lifetime uint32, retransCap int) *harness {
	t.Helper()
	reg := registry.New()
	sess := domain.NewSession("sess-1")
	ch := &fakeChannel{}
	sess.Channel = ch
	reg.RegisterSession(sess)

	sub := domain.NewSubscription(1, "sess-1", 100, maxKeepAlive, lifetime, notificationsPerPublish, true, 0, retransmission.NewBuffer(retransCap))
	require.NoError(t, reg.AddSubscription(sub))

	registrar := scheduler.NewRegistrar(scheduler.NewTickerScheduler(), zerolog.Nop())
	sm := publish.New(notification.NewAssembler(), reg, registrar, nil, nil, zerolog.Nop())

	return &harness{sess: sess, sub: sub, ch: ch, sm: sm, reg: reg}
}

func enqueueValues(item *domain.MonitoredItem, handles ...uint32) {
	for _, h := range handles {
		item.Enqueue(domain.QueuedValue{ClientHandle: h, Value: &ua.DataValue{}})
	}
}

func TestStateMachine_S1_NormalPublish(t *testing.T) {
	h := newHarness(t, 10, 5, 10, 0)
	item := domain.NewMonitoredItem(1, 1, 0, 0, true)
	enqueueValues(item, 1, 2, 3)
	h.sub.MonitoredItems = []*domain.MonitoredItem{item}
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 100, ResponseShell: &ua.PublishResponse{}})

	h.sm.Tick(h.sub)

	resps := h.ch.responses()
	require.Len(t, resps, 1)
	resp := resps[0]
	assert.Equal(t, uint32(1), resp.NotificationMessage.SequenceNumber)
	require.NotNil(t, resp.NotificationMessage.NotificationData)
	require.Len(t, resp.NotificationMessage.NotificationData, 1)
	dcn := resp.NotificationMessage.NotificationData[0].Value.(*ua.DataChangeNotification)
	assert.Len(t, dcn.MonitoredItems, 3)
	assert.Equal(t, []uint32{1}, resp.AvailableSequenceNumbers)
	assert.False(t, resp.MoreNotifications)

	assert.Equal(t, 0, item.CurrentQueueSize())
	assert.Equal(t, uint32(0), h.sub.CurrentKeepAliveCount)
	assert.Equal(t, uint32(0), h.sub.CurrentLifetimeCount)
	assert.Equal(t, domain.StateNormal, h.sub.State())
}

func TestStateMachine_S2_KeepAlive(t *testing.T) {
	h := newHarness(t, 10, 5, 10, 0)
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 1})

	for i := 0; i < 4; i++ {
		h.sm.Tick(h.sub)
	}
	assert.Empty(t, h.ch.responses(), "no response expected before keep-alive max reached")
	assert.Equal(t, uint32(4), h.sub.CurrentKeepAliveCount)

	h.sm.Tick(h.sub)

	resps := h.ch.responses()
	require.Len(t, resps, 1)
	resp := resps[0]
	assert.Equal(t, uint32(1), resp.NotificationMessage.SequenceNumber)
	assert.Empty(t, resp.NotificationMessage.NotificationData)
	assert.Empty(t, resp.AvailableSequenceNumbers)
	assert.False(t, resp.MoreNotifications)
	assert.Equal(t, uint32(0), h.sub.CurrentKeepAliveCount)
}

func TestStateMachine_S3_LateThenLifetimeExpiry(t *testing.T) {
	h := newHarness(t, 10, 5, 3, 0)
	item := domain.NewMonitoredItem(1, 1, 0, 0, true)
	enqueueValues(item, 1, 2, 3)
	h.sub.MonitoredItems = []*domain.MonitoredItem{item}
	// No PublishRequest ever queued.

	h.sm.Tick(h.sub) // tick 1: -> Late
	assert.Equal(t, domain.StateLate, h.sub.State())
	assert.Equal(t, uint32(0), h.sub.CurrentLifetimeCount)

	h.sm.Tick(h.sub) // tick 2
	assert.Equal(t, uint32(1), h.sub.CurrentLifetimeCount)
	assert.False(t, h.sub.Deleted)

	h.sm.Tick(h.sub) // tick 3
	assert.Equal(t, uint32(2), h.sub.CurrentLifetimeCount)
	assert.False(t, h.sub.Deleted)

	h.sm.Tick(h.sub) // tick 4: lifetime=3, not > 3
	assert.Equal(t, uint32(3), h.sub.CurrentLifetimeCount)
	assert.False(t, h.sub.Deleted)

	h.sm.Tick(h.sub) // tick 5: lifetime=4 > 3 -> deleted
	assert.Equal(t, uint32(4), h.sub.CurrentLifetimeCount)
	assert.True(t, h.sub.Deleted)

	_, err := h.reg.Subscription(h.sub.SubscriptionID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestStateMachine_S4_RetransmissionEviction(t *testing.T) {
	h := newHarness(t, 10, 5, 10, 2)
	item := domain.NewMonitoredItem(1, 1, 0, 0, true)
	h.sub.MonitoredItems = []*domain.MonitoredItem{item}

	for i := uint32(1); i <= 3; i++ {
		enqueueValues(item, i)
		h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: i})
		h.sm.Tick(h.sub)
	}

	assert.Equal(t, []uint32{3, 2}, h.sub.Retransmission.SnapshotSequenceNumbers())
	assert.Equal(t, 2, h.sub.Retransmission.Len())
}

func TestStateMachine_S5_MoreNotificationsRecursion(t *testing.T) {
	h := newHarness(t, 2, 5, 10, 0)
	item := domain.NewMonitoredItem(1, 1, 0, 0, true)
	enqueueValues(item, 1, 2, 3, 4, 5)
	h.sub.MonitoredItems = []*domain.MonitoredItem{item}
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 1})
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 2})

	h.sm.Tick(h.sub)

	resps := h.ch.responses()
	require.Len(t, resps, 2)

	assert.Equal(t, uint32(1), resps[0].NotificationMessage.SequenceNumber)
	assert.True(t, resps[0].MoreNotifications)
	assert.Len(t, resps[0].NotificationMessage.NotificationData[0].Value.(*ua.DataChangeNotification).MonitoredItems, 2)

	assert.Equal(t, uint32(2), resps[1].NotificationMessage.SequenceNumber)
	assert.True(t, resps[1].MoreNotifications)
	assert.Len(t, resps[1].NotificationMessage.NotificationData[0].Value.(*ua.DataChangeNotification).MonitoredItems, 2)

	assert.Equal(t, 1, item.CurrentQueueSize())
	assert.Equal(t, 0, h.sess.PendingPublishRequests())
}

func TestStateMachine_S6_NoSubscriptionFanout(t *testing.T) {
	h := newHarness(t, 10, 5, 10, 0)
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 1})
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 2})

	h.sm.Delete(h.sub, h.sess)

	resps := h.ch.responses()
	require.Len(t, resps, 2)
	for _, r := range resps {
		assert.Equal(t, ua.StatusBadNoSubscription, r.ResponseHeader.ServiceResult)
	}
	assert.Equal(t, 0, h.sess.PendingPublishRequests())
	assert.True(t, h.sub.Deleted)
}

func TestStateMachine_Acknowledge_ThenRepeat_IsUnknown(t *testing.T) {
	// Testable property 6 (spec.md §8): Acknowledge(S) then Acknowledge(S)
	// returns BadSequenceNumberUnknown on the second call.
	h := newHarness(t, 10, 5, 10, 0)
	item := domain.NewMonitoredItem(1, 1, 0, 0, true)
	enqueueValues(item, 1)
	h.sub.MonitoredItems = []*domain.MonitoredItem{item}
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 1})

	h.sm.Tick(h.sub)

	require.NoError(t, h.sub.Retransmission.Acknowledge(1))
	err := h.sub.Retransmission.Acknowledge(1)
	assert.ErrorIs(t, err, domain.ErrSequenceNumberUnknown)
}

func TestStateMachine_PublishingDisabled_NoNotifications(t *testing.T) {
	// Testable property 7 (spec.md §8).
	h := newHarness(t, 10, 2, 10, 0)
	h.sub.PublishingEnabled = false
	item := domain.NewMonitoredItem(1, 1, 0, 0, true)
	enqueueValues(item, 1, 2, 3)
	h.sub.MonitoredItems = []*domain.MonitoredItem{item}
	h.sess.EnqueuePublishRequest(domain.PublishResponseEntry{RequestID: 1})

	h.sm.Tick(h.sub)
	h.sm.Tick(h.sub)

	resps := h.ch.responses()
	require.Len(t, resps, 1, "keep-alive still proceeds with publishing disabled")
	assert.Empty(t, resps[0].NotificationMessage.NotificationData)
	assert.Equal(t, 3, item.CurrentQueueSize(), "no values drained while publishing is disabled")
}
