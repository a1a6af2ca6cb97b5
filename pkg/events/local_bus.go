package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// localTopic carries every event; subscribers filter by subject pattern
// because gochannel topics do not support wildcards.
const localTopic = "events"

// LocalBus is the in-process bus used when no NATS server is configured.
// Handler errors are logged and the message is acked; there is no redelivery.
type LocalBus struct {
	pubSub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus(logger watermill.LoggerAdapter) *LocalBus {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 128}, logger),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *LocalBus) Publish(_ context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("subject", Subject(event.EventType()))
	if err := b.pubSub.Publish(localTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe starts a goroutine delivering matching events to handler until
// the bus is closed. durableName only labels log lines here.
func (b *LocalBus) Subscribe(pattern string, durableName string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(b.ctx, localTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", durableName, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			b.dispatch(pattern, durableName, handler, msg)
		}
	}()
	return nil
}

func (b *LocalBus) dispatch(pattern, durableName string, handler Handler, msg *message.Message) {
	defer msg.Ack()

	if !SubjectMatches(pattern, msg.Metadata.Get("subject")) {
		return
	}
	event, err := Unmarshal(msg.Payload)
	if err != nil {
		b.logger.Error("Dropping malformed event", err, watermill.LogFields{"consumer": durableName})
		return
	}
	if err := handler(b.ctx, event); err != nil {
		b.logger.Error("Event handler failed", err, watermill.LogFields{
			"consumer": durableName,
			"type":     event.EventType(),
		})
	}
}

// Close stops all subscriptions and waits for in-flight handlers.
func (b *LocalBus) Close() error {
	b.cancel()
	err := b.pubSub.Close()
	b.wg.Wait()
	return err
}
