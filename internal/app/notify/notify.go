// Package notify publishes application lifecycle events to interested
// consumers (mailers, dashboards). Delivery is fire and forget: the engine
// logs publish failures and carries on.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/talenthive/recruiting_layer/internal/errors"
)

// Event types emitted by the lifecycle engine.
const (
	EventSubmitted          = "application.submitted"
	EventStatusChanged      = "application.status_changed"
	EventWithdrawn          = "application.withdrawn"
	EventInterviewScheduled = "application.interview_scheduled"
)

// Event describes a single lifecycle occurrence.
type Event struct {
	Type          string                 `json:"type"`
	ApplicationID string                 `json:"applicationId"`
	JobID         string                 `json:"jobId,omitempty"`
	CandidateID   string                 `json:"candidateId,omitempty"`
	CompanyID     string                 `json:"companyId,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	OccurredAt    time.Time              `json:"occurredAt"`
}

// Notifier delivers events to consumers.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Redis publishes events on a Redis pub/sub channel.
type Redis struct {
	client  redis.UniversalClient
	channel string
}

var _ Notifier = (*Redis)(nil)
var _ Notifier = Noop{}

// NewRedis builds a publisher over the client. channel defaults to
// "recruiting.applications".
func NewRedis(client redis.UniversalClient, channel string) *Redis {
	if channel == "" {
		channel = "recruiting.applications"
	}
	return &Redis{client: client, channel: channel}
}

func (r *Redis) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return errors.Internal("encode event", err)
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		return errors.StorageFailure("publish event", err)
	}
	return nil
}
