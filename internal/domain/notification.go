package domain

import (
	"time"

	"github.com/gopcua/opcua/ua"
)

// NotificationMessageEntry is a retransmission record: one previously sent
// NotificationMessage, kept until the client acknowledges it, it ages out,
// or its Subscription is deleted (spec.md §3).
type NotificationMessageEntry struct {
	SequenceNumber          uint32
	PublishTime             time.Time
	EncodedNotificationData []*ua.ExtensionObject
}

// RetransmissionStore is the interface Subscription uses to own its
// retransmission queue without internal/domain depending on
// internal/retransmission (which depends on domain for
// NotificationMessageEntry). internal/retransmission.Buffer implements
// this.
type RetransmissionStore interface {
	// Insert adds entry at the head (most-recent). If at capacity, the
	// tail (oldest) entry is evicted first. Capacity 0 means unlimited.
	Insert(entry NotificationMessageEntry)

	// Acknowledge removes the entry matching seqNum, or reports
	// ErrSequenceNumberUnknown.
	Acknowledge(seqNum uint32) error

	// SnapshotSequenceNumbers returns the buffered sequence numbers in
	// retransmission-queue order (newest first).
	SnapshotSequenceNumbers() []uint32

	// DrainAll empties the buffer, called on subscription deletion.
	DrainAll()

	// Len reports the current buffer size.
	Len() int
}
