package domain

import (
	"time"

	"github.com/gopcua/opcua/id"
	"github.com/gopcua/opcua/ua"
)

// EncodeDataChangeNotification wraps a DataChangeNotification in the
// ExtensionObject envelope OPC UA notificationData entries use on the wire.
// Mirrors the teacher's ua.ExtensionObject{TypeID: &ua.ExpandedNodeID{...}}
// wrapping pattern used for DataChangeFilter
// (adapter/opcua/subscription.go createDeadbandFilter), retargeted at the
// DataChangeNotification encoding id from gopcua's id package.
func EncodeDataChangeNotification(dcn *ua.DataChangeNotification) *ua.ExtensionObject {
	return &ua.ExtensionObject{
		TypeID: &ua.ExpandedNodeID{
			NodeID: ua.NewNumericNodeID(0, id.DataChangeNotification_Encoding_DefaultBinary),
		},
		Value: dcn,
	}
}

// NewNotificationMessage builds the single aggregate container the
// assembler is responsible for (spec.md §4.2: "allocates one aggregate
// container holding exactly one DataChangeNotification").
func NewNotificationMessage(sequenceNumber uint32, publishTime time.Time, dcn *ua.DataChangeNotification) *ua.NotificationMessage {
	var data []*ua.ExtensionObject
	if dcn != nil {
		data = []*ua.ExtensionObject{EncodeDataChangeNotification(dcn)}
	}
	return &ua.NotificationMessage{
		SequenceNumber:   sequenceNumber,
		PublishTime:      publishTime,
		NotificationData: data,
	}
}

// NewKeepAliveMessage builds the empty NotificationMessage emitted for a
// keep-alive send: notificationData is empty and sequenceNumber carries the
// next value without advancing the Subscription's counter (spec.md §4.3).
func NewKeepAliveMessage(nextSequenceNumber uint32, publishTime time.Time) *ua.NotificationMessage {
	return &ua.NotificationMessage{
		SequenceNumber:   nextSequenceNumber,
		PublishTime:      publishTime,
		NotificationData: nil,
	}
}

// NewPublishResponse assembles the PublishResponse body described in
// spec.md §6, given the available-sequence-numbers snapshot the
// RetransmissionStore computed for the moment of send.
func NewPublishResponse(subscriptionID uint32, availableSequenceNumbers []uint32, moreNotifications bool, msg *ua.NotificationMessage, serviceResult ua.StatusCode) *ua.PublishResponse {
	return &ua.PublishResponse{
		ResponseHeader: &ua.ResponseHeader{
			Timestamp:     time.Now(),
			ServiceResult: serviceResult,
		},
		SubscriptionID:           subscriptionID,
		AvailableSequenceNumbers: availableSequenceNumbers,
		MoreNotifications:        moreNotifications,
		NotificationMessage:      msg,
	}
}
