// Package notification implements the NotificationAssembler (spec.md §4.2):
// it drains pending MonitoredItem values up to a per-publish cap and
// constructs one NotificationMessage from them.
package notification

import (
	"github.com/gopcua/opcua/ua"

	"github.com/nexus-edge/publish-engine/internal/domain"
)

// Assembler implements spec.md §4.2's CountAvailable/BuildMessage pair.
type Assembler struct{}

// NewAssembler constructs an Assembler. It holds no state: both operations
// act only on the Subscription and its MonitoredItems; BuildMessage drains
// the values it embeds from their queues.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// CountAvailable walks MonitoredItems in insertion order, their queues in
// FIFO order, counting up to notificationsPerPublish. moreFlag is set if
// any queued value remained uncounted. If publishingEnabled is false, it
// always returns (0, false) regardless of what is queued (spec.md §4.2,
// §8 property 7).
func (a *Assembler) CountAvailable(sub *domain.Subscription) (count int, more bool) {
	if !sub.PublishingEnabled {
		return 0, false
	}

	limit := int(sub.NotificationsPerPublish)
	total := 0
	for _, item := range sub.MonitoredItems {
		total += item.CurrentQueueSize()
		if total > limit {
			break
		}
	}

	if total >= limit {
		return limit, total > limit
	}
	return total, false
}

// BuildMessage allocates one aggregate container holding exactly one
// DataChangeNotification with exactly count entries, then traverses
// MonitoredItems in the same order as CountAvailable, dequeuing values
// until count is reached.
//
// Ordering contract: the i-th embedded notification is the i-th value in
// the concatenated FIFO order across items (spec.md §4.2).
//
// The destination slice is pre-allocated to its full length before any
// item is drained, so a hypothetical allocation failure can only occur
// before the point of no return — past that point dequeue and embed happen
// together and cannot fail (spec.md §4.2, §5).
func (a *Assembler) BuildMessage(sub *domain.Subscription, count int) (*ua.DataChangeNotification, error) {
	if count == 0 {
		return &ua.DataChangeNotification{}, nil
	}

	items := make([]*ua.MonitoredItemNotification, count)

	i := 0
	for _, item := range sub.MonitoredItems {
		for i < count {
			qv, ok := item.Dequeue()
			if !ok {
				break
			}
			items[i] = &ua.MonitoredItemNotification{
				ClientHandle: qv.ClientHandle,
				Value:        qv.Value,
			}
			i++
		}
		if i >= count {
			break
		}
	}

	return &ua.DataChangeNotification{MonitoredItems: items[:i]}, nil
}
