package retransmission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-edge/publish-engine/internal/domain"
	"github.com/nexus-edge/publish-engine/internal/retransmission"
)

func entry(seq uint32) domain.NotificationMessageEntry {
	return domain.NotificationMessageEntry{SequenceNumber: seq, PublishTime: time.Now()}
}

func TestBuffer_InsertAndSnapshot_NewestFirst(t *testing.T) {
	b := retransmission.NewBuffer(0)
	b.Insert(entry(1))
	b.Insert(entry(2))
	b.Insert(entry(3))

	assert.Equal(t, []uint32{3, 2, 1}, b.SnapshotSequenceNumbers())
	assert.Equal(t, 3, b.Len())
}

func TestBuffer_EvictsOldestAtCapacity(t *testing.T) {
	// S4 from spec.md §8: maxRetransmissionQueueSize=2, three sends.
	b := retransmission.NewBuffer(2)
	b.Insert(entry(1))
	b.Insert(entry(2))
	b.Insert(entry(3))

	assert.Equal(t, []uint32{3, 2}, b.SnapshotSequenceNumbers())
	assert.Equal(t, 2, b.Len())
}

func TestBuffer_UnlimitedWhenCapacityZero(t *testing.T) {
	b := retransmission.NewBuffer(0)
	for i := uint32(1); i <= 100; i++ {
		b.Insert(entry(i))
	}
	assert.Equal(t, 100, b.Len())
}

func TestBuffer_Acknowledge_RemovesMatchAndErrorsOnRepeat(t *testing.T) {
	b := retransmission.NewBuffer(0)
	b.Insert(entry(1))
	b.Insert(entry(2))

	require.NoError(t, b.Acknowledge(1))
	assert.Equal(t, []uint32{2}, b.SnapshotSequenceNumbers())

	err := b.Acknowledge(1)
	assert.ErrorIs(t, err, domain.ErrSequenceNumberUnknown)
}

func TestBuffer_Acknowledge_UnknownSequenceNumber(t *testing.T) {
	b := retransmission.NewBuffer(0)
	b.Insert(entry(1))

	err := b.Acknowledge(42)
	assert.ErrorIs(t, err, domain.ErrSequenceNumberUnknown)
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_DrainAll(t *testing.T) {
	b := retransmission.NewBuffer(0)
	b.Insert(entry(1))
	b.Insert(entry(2))

	b.DrainAll()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.SnapshotSequenceNumbers())
}
