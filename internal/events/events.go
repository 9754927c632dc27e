// Package events exposes the hook points the core offers to external
// notification/eventing collaborators. The core only makes state transitions
// observable here; delivering notifications is someone else's job.
package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Type identifies what happened to an export.
type Type string

const (
	TypeExportCreated       Type = "export.created"
	TypeExportStatusChanged Type = "export.status_changed"
	TypeExportDeleted       Type = "export.deleted"
)

// Event is one observable state transition on an export.
type Event struct {
	Type       Type                   `json:"type"`
	ExportID   string                 `json:"export_id"`
	OwnerID    string                 `json:"owner_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// New builds an event stamped with the current UTC time.
func New(t Type, exportID, ownerID string, data map[string]interface{}) Event {
	return Event{
		Type:       t,
		ExportID:   exportID,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher receives export events. Implementations must not block the
// publishing operation longer than necessary; delivery guarantees are theirs.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// CompositePublisher fans an event out to multiple publishers and collects
// every error encountered rather than stopping at the first.
type CompositePublisher struct {
	publishers []Publisher
}

// NewCompositePublisher creates a CompositePublisher. It returns the concrete
// type so AddPublisher can be called directly.
func NewCompositePublisher(publishers ...Publisher) *CompositePublisher {
	return &CompositePublisher{publishers: publishers}
}

// AddPublisher adds a publisher to the composite's list.
func (cp *CompositePublisher) AddPublisher(p Publisher) {
	if p != nil {
		cp.publishers = append(cp.publishers, p)
	}
}

// Publish delivers the event to every registered publisher. Errors are
// collected and returned as a single error.
func (cp *CompositePublisher) Publish(ctx context.Context, ev Event) error {
	var allErrors []string
	for _, p := range cp.publishers {
		if err := p.Publish(ctx, ev); err != nil {
			allErrors = append(allErrors, err.Error())
		}
	}
	if len(allErrors) > 0 {
		return fmt.Errorf("composite publish failed: [ %s ]", strings.Join(allErrors, "; "))
	}
	return nil
}

// LogPublisher writes events to the process log. Useful in development and as
// a last-resort observer when no external collaborator is wired.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

func (lp *LogPublisher) Publish(_ context.Context, ev Event) error {
	log.Printf("event %s export=%s owner=%s", ev.Type, ev.ExportID, ev.OwnerID)
	return nil
}
