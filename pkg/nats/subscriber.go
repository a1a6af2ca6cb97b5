package nats

import (
	"context"
	"fmt"
	"log"
	"sync"

	"enculture-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subscriber handles listening for events from NATS with durable consumers,
// so events published while a worker is down are delivered on restart.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// ackMessage is the part of jetstream.Msg the consume loop needs.
type ackMessage interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// consumerConfig builds a durable consumer that starts at the first event
// published after it is created and resumes from its ack floor afterwards.
func consumerConfig(subject, durableName string) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	}
}

func (s *Subscriber) Subscribe(subject string, durableName string, handler events.Handler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, streamName, consumerConfig(subject, durableName))
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		handleMessage(context.Background(), msg, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()

	log.Printf("Subscribed to %s with durable %s", subject, durableName)
	return nil
}

// handleMessage acks a handled event, naks a failed one for redelivery and
// terminates one that cannot be decoded.
func handleMessage(ctx context.Context, msg ackMessage, handler events.Handler) {
	event, err := events.Unmarshal(msg.Data())
	if err != nil {
		log.Printf("Error unmarshalling event data on %s: %v", msg.Subject(), err)
		_ = msg.Term()
		return
	}

	if err := handler(ctx, event); err != nil {
		log.Printf("Handler failed for event %s: %v", msg.Subject(), err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

func (s *Subscriber) Close() {
	s.mu.Lock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
	s.mu.Unlock()

	if s.nc != nil {
		s.nc.Close()
	}
}
