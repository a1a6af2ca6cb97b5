package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SubjectPrefix namespaces every event subject, e.g. "events.survey_published".
const SubjectPrefix = "events."

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "survey_published").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New builds an event from any JSON-encodable payload struct.
func New(eventType string, payload any) (BaseEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return BaseEvent{}, fmt.Errorf("%s payload must be an object: %w", eventType, err)
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}, nil
}

// Decode copies an event payload into out.
func Decode(e Event, out any) error {
	raw, err := json.Marshal(e.Payload())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Subject is the bus subject an event is published on.
func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// TypeFromSubject strips the subject prefix.
func TypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}

// Handler processes one event. Returning an error asks the bus to redeliver
// where the bus supports it.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Subscriber interface {
	// Subscribe registers handler for subjects matching pattern. Patterns use
	// NATS syntax: "*" matches one token and ">" matches the rest.
	Subscribe(pattern string, durableName string, handler Handler) error
}

// Bus publishes and subscribes.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// envelope is the wire format shared by every bus.
type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, err
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("event has no type")
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// SubjectMatches reports whether subject matches a NATS-style pattern.
func SubjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i < len(st)
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
