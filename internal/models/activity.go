package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ActivityAction identifies a lifecycle event recorded in the activity log.
type ActivityAction string

const (
	ActionListingCreated       ActivityAction = "listing_created"
	ActionBuyerContacted       ActivityAction = "buyer_contacted"
	ActionProposalSubmitted    ActivityAction = "proposal_submitted"
	ActionNegotiationStarted   ActivityAction = "negotiation_started"
	ActionDealFinalized        ActivityAction = "deal_finalized"
	ActionDocumentationStarted ActivityAction = "documentation_started"
	ActionLogisticsArranged    ActivityAction = "logistics_arranged"
	ActionShipmentDispatched   ActivityAction = "shipment_dispatched"
	ActionPaymentReceived      ActivityAction = "payment_received"
	ActionDeliveryConfirmed    ActivityAction = "delivery_confirmed"
	ActionFeedbackReceived     ActivityAction = "feedback_received"

	// Operation-triggered actions appended by the lifecycle operations.
	ActionStatusChanged    ActivityAction = "status_changed"
	ActionBuyerAdded       ActivityAction = "buyer_added"
	ActionLogisticsUpdated ActivityAction = "logistics_updated"
	ActionPaymentUpdated   ActivityAction = "payment_updated"
)

var validActivityActions = map[ActivityAction]bool{
	ActionListingCreated: true, ActionBuyerContacted: true, ActionProposalSubmitted: true,
	ActionNegotiationStarted: true, ActionDealFinalized: true, ActionDocumentationStarted: true,
	ActionLogisticsArranged: true, ActionShipmentDispatched: true, ActionPaymentReceived: true,
	ActionDeliveryConfirmed: true, ActionFeedbackReceived: true,
	ActionStatusChanged: true, ActionBuyerAdded: true, ActionLogisticsUpdated: true,
	ActionPaymentUpdated: true,
}

func (a ActivityAction) Valid() bool { return validActivityActions[a] }

// SystemActor is the PerformedBy value for entries appended by the service
// itself rather than a named user.
const SystemActor = "system"

// ActivityLogEntry is one append-only record in an export's activity log.
// Entries are never edited or removed once appended. Metadata is an open
// key-value map because its shape varies per action type.
type ActivityLogEntry struct {
	Action      ActivityAction `bson:"action" json:"action"`
	Description string         `bson:"description" json:"description"`
	PerformedBy string         `bson:"performed_by" json:"performed_by"`
	Timestamp   time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata    bson.M         `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// NewActivityEntry builds a log entry stamped with the current UTC time.
func NewActivityEntry(action ActivityAction, description, performedBy string, metadata bson.M) ActivityLogEntry {
	if performedBy == "" {
		performedBy = SystemActor
	}
	return ActivityLogEntry{
		Action:      action,
		Description: description,
		PerformedBy: performedBy,
		Timestamp:   time.Now().UTC(),
		Metadata:    metadata,
	}
}
