// Package events delivers gamification events to the live feed and the Redis stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"wolontariat/models"

	"github.com/google/uuid"
)

// Publisher delivers gamification events. Delivery is best effort: callers
// log a failed publish and carry on, the stored state is already committed.
type Publisher interface {
	Publish(ctx context.Context, event models.GamificationEvent) error
}

// Event is the envelope written to the Redis stream
type Event struct {
	ID        string                   `json:"id"`
	Type      string                   `json:"type"`
	Payload   models.GamificationEvent `json:"payload"`
	Timestamp int64                    `json:"timestamp"`
}

// NewEvent wraps a gamification event in a stream envelope
func NewEvent(event models.GamificationEvent) *Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      event.Type,
		Payload:   event,
		Timestamp: event.Timestamp.Unix(),
	}
}

// MarshalEvent marshals an event to JSON string for the Redis stream
func MarshalEvent(event *Event) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalEvent unmarshals a JSON string to an Event
func UnmarshalEvent(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, models.GamificationEvent) error { return nil }

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.GamificationEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []models.GamificationEvent
}

func (r *Recorder) Publish(_ context.Context, event models.GamificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []models.GamificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.GamificationEvent, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of the given type
func (r *Recorder) OfType(eventType string) []models.GamificationEvent {
	var out []models.GamificationEvent
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
