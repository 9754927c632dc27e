package models

import (
	"math"
	"time"
)

// completionByStatus maps each lifecycle status to a rough percentage of the
// deal done. Unknown statuses map to 0.
var completionByStatus = map[ExportStatus]int{
	StatusDraft:       10,
	StatusActive:      20,
	StatusNegotiating: 40,
	StatusFinalized:   60,
	StatusInProgress:  70,
	StatusShipped:     85,
	StatusDelivered:   95,
	StatusCompleted:   100,
	StatusCancelled:   0,
}

// CompletionPercentage reports how far along the deal is, from its status alone.
func (e *Export) CompletionPercentage() int {
	return completionByStatus[e.Status]
}

// AgeInDays is the number of whole days since the record was created.
func (e *Export) AgeInDays(now time.Time) int {
	return int(math.Floor(now.Sub(e.CreatedAt).Hours() / 24))
}

// DaysUntilDelivery is the number of days (rounded up) until the expected
// delivery date, or nil when no expected delivery date is set. Past dates
// yield negative values.
func (e *Export) DaysUntilDelivery(now time.Time) *int {
	if e.Timeline.ExpectedDeliveryDate == nil {
		return nil
	}
	days := int(math.Ceil(e.Timeline.ExpectedDeliveryDate.Sub(now).Hours() / 24))
	return &days
}
