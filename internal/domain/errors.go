// Package domain contains the core entities of the subscription publish
// engine. These types are protocol-agnostic in shape but carry OPC UA wire
// types (github.com/gopcua/opcua/ua) where the spec treats the wire
// representation itself as the natural in-memory model.
package domain

import "errors"

// Protocol errors, returned to the caller that invoked the operation.
var (
	// ErrMonitoredItemIDInvalid is returned by DeleteMonitoredItem when the
	// requested item id is not present on the subscription.
	ErrMonitoredItemIDInvalid = errors.New("monitored item id invalid")

	// ErrSequenceNumberUnknown is returned by Acknowledge when the sequence
	// number does not match any entry currently held in the retransmission
	// buffer.
	ErrSequenceNumberUnknown = errors.New("sequence number unknown")
)

// Resource errors, logged by the tick and left for the caller to observe via
// Subscription state; the tick itself never propagates these upward.
var (
	// ErrOutOfMemory names an allocation failure during message assembly.
	// BuildMessage has no path that returns it: its only allocation is a
	// make, which does not report failure as an error value.
	ErrOutOfMemory = errors.New("out of memory")
)

// Lookup errors for the registry and session layers.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSubscriptionExists   = errors.New("subscription already exists")
)

// ErrNoSubscription mirrors the OPC UA Bad_NoSubscription status. SessionFanout
// answers a session's queued PublishRequests with the ua.StatusBadNoSubscription
// status code itself, not with this error.
var ErrNoSubscription = errors.New("no subscription")
