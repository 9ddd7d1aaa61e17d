// Package events publishes crawl run and contact change events to a Redis stream.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/roster/internal/domain"
)

// StreamName is the Redis stream roster appends events to.
const StreamName = "roster-events"

// EventType represents the type of event.
type EventType string

const (
	// CrawlStarted indicates a crawl run began.
	CrawlStarted EventType = "CRAWL_STARTED"
	// CrawlSucceeded indicates a crawl run finished without a fatal error.
	CrawlSucceeded EventType = "CRAWL_SUCCEEDED"
	// CrawlFailed indicates a crawl run aborted.
	CrawlFailed EventType = "CRAWL_FAILED"
	// ContactCreated indicates a contact was created through the API.
	ContactCreated EventType = "CONTACT_CREATED"
	// ContactUpdated indicates a contact was modified through the API.
	ContactUpdated EventType = "CONTACT_UPDATED"
	// ContactDeleted indicates one or more contacts were removed.
	ContactDeleted EventType = "CONTACT_DELETED"
)

// Event is the envelope for every event on the stream. SubjectID is the run id for crawl events
// and the contact id or name for contact events.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	SubjectID string    `json:"subject_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// CrawlPayload contains data for CRAWL_* events.
type CrawlPayload struct {
	StartURL    string            `json:"start_url,omitempty"`
	TriggeredBy string            `json:"triggered_by"`
	Report      *domain.RunReport `json:"report,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// ContactPayload contains data for CONTACT_* events.
type ContactPayload struct {
	Contact *domain.ContactRecord `json:"contact,omitempty"`
	Removed int64                 `json:"removed,omitempty"`
}
