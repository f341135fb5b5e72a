// Package diagnostics implements an optional, out-of-band publisher of
// subscription lifecycle events (SPEC_FULL.md §4.8). It exists purely for
// operational visibility and is never on the publish tick's critical path:
// a disconnected or disabled bridge changes nothing about how subscriptions
// are serviced.
//
// Grounded on the teacher's CommandHandler
// (internal/service/command_handler.go): same paho.mqtt.golang client
// shape, same atomic stats counters, same topic-prefix configuration style
// — retargeted from consuming write commands to emitting lifecycle events.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// EventType names the lifecycle events the bridge can emit.
type EventType string

const (
	EventSubscriptionCreated EventType = "subscription_created"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	EventSubscriptionExpired EventType = "subscription_expired"
	EventSubscriptionLate    EventType = "subscription_late"
)

// Event is the payload published for every lifecycle transition.
type Event struct {
	Type           EventType `json:"type"`
	SubscriptionID uint32    `json:"subscription_id"`
	SessionID      string    `json:"session_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// Config controls the bridge's MQTT wiring.
type Config struct {
	// TopicPrefix is the base topic events are published under, e.g.
	// "$nexus/publish-engine". The full topic is
	// "{TopicPrefix}/events/{subscription_id}".
	TopicPrefix string

	// QoS is the MQTT QoS level for published events.
	QoS byte
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopicPrefix: "$nexus/publish-engine",
		QoS:         1,
	}
}

// Stats tracks bridge publish outcomes.
type Stats struct {
	EventsPublished atomic.Uint64
	EventsDropped   atomic.Uint64
}

// Bridge publishes Events to an MQTT broker on a best-effort basis.
type Bridge struct {
	client mqtt.Client
	config Config
	logger zerolog.Logger
	stats  Stats
}

// NewBridge constructs a Bridge around an already-configured MQTT client.
// The caller owns Connect/Disconnect on client, matching
// CommandHandler's separation of client construction from Start/Stop.
func NewBridge(client mqtt.Client, config Config, logger zerolog.Logger) *Bridge {
	return &Bridge{
		client: client,
		config: config,
		logger: logger.With().Str("component", "diagnostics-bridge").Logger(),
	}
}

// Publish emits ev on the bridge's topic. Best-effort: a disconnected
// client or a publish failure is logged and counted, never returned as an
// error the caller must handle — lifecycle events are diagnostics, not a
// delivery guarantee (SPEC_FULL.md §4.8).
func (b *Bridge) Publish(ev Event) {
	if !b.client.IsConnected() {
		b.stats.EventsDropped.Add(1)
		b.logger.Debug().
			Str("event_type", string(ev.Type)).
			Uint32("subscription_id", ev.SubscriptionID).
			Msg("Dropped lifecycle event: MQTT client not connected")
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.stats.EventsDropped.Add(1)
		b.logger.Error().Err(err).Msg("Failed to marshal lifecycle event")
		return
	}

	topic := fmt.Sprintf("%s/events/%d", b.config.TopicPrefix, ev.SubscriptionID)
	token := b.client.Publish(topic, b.config.QoS, false, payload)
	if token.Wait() && token.Error() != nil {
		b.stats.EventsDropped.Add(1)
		b.logger.Warn().
			Err(token.Error()).
			Str("topic", topic).
			Msg("Failed to publish lifecycle event")
		return
	}

	b.stats.EventsPublished.Add(1)
}

// SubscriptionCreated publishes an EventSubscriptionCreated.
func (b *Bridge) SubscriptionCreated(subscriptionID uint32, sessionID string) {
	b.Publish(Event{Type: EventSubscriptionCreated, SubscriptionID: subscriptionID, SessionID: sessionID, Timestamp: time.Now()})
}

// SubscriptionDeleted publishes an EventSubscriptionDeleted.
func (b *Bridge) SubscriptionDeleted(subscriptionID uint32, sessionID string) {
	b.Publish(Event{Type: EventSubscriptionDeleted, SubscriptionID: subscriptionID, SessionID: sessionID, Timestamp: time.Now()})
}

// SubscriptionExpired publishes an EventSubscriptionExpired.
func (b *Bridge) SubscriptionExpired(subscriptionID uint32, sessionID string) {
	b.Publish(Event{Type: EventSubscriptionExpired, SubscriptionID: subscriptionID, SessionID: sessionID, Timestamp: time.Now()})
}

// GetStats returns a snapshot of publish outcomes.
func (b *Bridge) GetStats() map[string]uint64 {
	return map[string]uint64{
		"events_published": b.stats.EventsPublished.Load(),
		"events_dropped":   b.stats.EventsDropped.Load(),
	}
}

// IsConnected reports whether the underlying MQTT client is connected, for
// use by a health.Checker-style readiness probe.
func (b *Bridge) IsConnected() bool {
	return b.client.IsConnected()
}
