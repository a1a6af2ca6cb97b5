package nats

import "enculture-be/pkg/events"

// Bus pairs a Publisher and a Subscriber on separate connections.
type Bus struct {
	*Publisher
	*Subscriber
}

var _ events.Bus = (*Bus)(nil)

func NewBus(url string) (*Bus, error) {
	pub, err := NewPublisher(url)
	if err != nil {
		return nil, err
	}
	sub, err := NewSubscriber(url)
	if err != nil {
		pub.Close()
		return nil, err
	}
	return &Bus{Publisher: pub, Subscriber: sub}, nil
}

func (b *Bus) Close() error {
	b.Subscriber.Close()
	b.Publisher.Close()
	return nil
}
