package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// Publisher publishes events to Redis Streams. A nil *Publisher is valid and drops every event.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
	stream string
}

// NewPublisher creates a new event publisher.
// Returns nil if client is nil.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{
		client: client,
		log:    log,
		stream: StreamName,
	}
}

// Publish sends an event to the Redis stream.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": string(event.EventType),
			"event":      string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published event",
		logger.String("event_type", string(event.EventType)),
		logger.String("subject_id", event.SubjectID),
		logger.String("stream_id", result.Val()),
	)

	return nil
}

// PublishAsync publishes an event asynchronously.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(event Event) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				logger.String("event_type", string(event.EventType)),
				logger.String("subject_id", event.SubjectID),
				logger.Error(err),
			)
		}
	}()
}

// CrawlStarted announces a run.
func (p *Publisher) CrawlStarted(run domain.CrawlRun, startURL string) {
	p.PublishAsync(Event{
		EventType: CrawlStarted,
		SubjectID: run.ID,
		Payload:   CrawlPayload{StartURL: startURL, TriggeredBy: run.TriggeredBy},
	})
}

// CrawlFinished announces the terminal state of a run.
func (p *Publisher) CrawlFinished(run domain.CrawlRun) {
	eventType := CrawlSucceeded
	payload := CrawlPayload{TriggeredBy: run.TriggeredBy, Report: &run.Report}
	if run.State == domain.StateFailed {
		eventType = CrawlFailed
		if run.ErrorMessage != nil {
			payload.Error = *run.ErrorMessage
		}
	}

	p.PublishAsync(Event{EventType: eventType, SubjectID: run.ID, Payload: payload})
}

// ContactChanged announces a create or update.
func (p *Publisher) ContactChanged(eventType EventType, c domain.ContactRecord) {
	p.PublishAsync(Event{
		EventType: eventType,
		SubjectID: strconv.FormatInt(c.ID, 10),
		Payload:   ContactPayload{Contact: &c},
	})
}

// ContactsDeleted announces a delete. subject is the id or the name that was removed.
func (p *Publisher) ContactsDeleted(subject string, removed int64) {
	p.PublishAsync(Event{
		EventType: ContactDeleted,
		SubjectID: subject,
		Payload:   ContactPayload{Removed: removed},
	})
}
