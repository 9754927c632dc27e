package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompletionPercentage(t *testing.T) {
	cases := map[ExportStatus]int{
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
	for status, want := range cases {
		e := &Export{Status: status}
		assert.Equal(t, want, e.CompletionPercentage(), "status %s", status)
	}

	unknown := &Export{Status: "bogus"}
	assert.Equal(t, 0, unknown.CompletionPercentage())
}

func TestAgeInDays(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	e := &Export{CreatedAt: now.AddDate(0, 0, -10)}
	assert.Equal(t, 10, e.AgeInDays(now))

	// Partial days round down.
	e.CreatedAt = now.Add(-36 * time.Hour)
	assert.Equal(t, 1, e.AgeInDays(now))

	e.CreatedAt = now
	assert.Equal(t, 0, e.AgeInDays(now))
}

func TestDaysUntilDelivery(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	e := &Export{}
	assert.Nil(t, e.DaysUntilDelivery(now))

	// Partial days round up.
	in := now.Add(36 * time.Hour)
	e.Timeline.ExpectedDeliveryDate = &in
	got := e.DaysUntilDelivery(now)
	assert.NotNil(t, got)
	assert.Equal(t, 2, *got)

	// Overdue deliveries go negative rather than clamping.
	past := now.AddDate(0, 0, -3)
	e.Timeline.ExpectedDeliveryDate = &past
	got = e.DaysUntilDelivery(now)
	assert.NotNil(t, got)
	assert.Equal(t, -3, *got)
}

func TestNewActivityEntry(t *testing.T) {
	entry := NewActivityEntry(ActionStatusChanged, "Status changed to active", "", nil)
	assert.Equal(t, SystemActor, entry.PerformedBy)
	assert.Equal(t, ActionStatusChanged, entry.Action)
	assert.WithinDuration(t, time.Now().UTC(), entry.Timestamp, 5*time.Second)

	entry = NewActivityEntry(ActionBuyerContacted, "Reached out", "farmer-1", nil)
	assert.Equal(t, "farmer-1", entry.PerformedBy)
}
