package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"enculture-be/internal/pkg/logger"
	"enculture-be/pkg/docstore"
	"enculture-be/pkg/events"
	"enculture-be/pkg/llm"

	"github.com/stretchr/testify/require"
)

var nopLogger = logger.NewNopLogger()

func newBackend(t *testing.T) docstore.Backend {
	t.Helper()
	backend, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return backend
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeProvider replies with reply, or fails with err. It records the last
// history it was given.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	history []llm.Message
}

func (p *fakeProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.history = history
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var errProviderDown = errors.New("provider down")

// recordingDelivery stands in for the hub.
type recordingDelivery struct {
	mu        sync.Mutex
	connected map[string]bool
	sent      map[string][]any
	broadcast []any
}

func newRecordingDelivery(connected ...string) *recordingDelivery {
	d := &recordingDelivery{connected: map[string]bool{}, sent: map[string][]any{}}
	for _, u := range connected {
		d.connected[u] = true
	}
	return d
}

func (d *recordingDelivery) SendToUser(userID string, message any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected[userID] {
		return false
	}
	d.sent[userID] = append(d.sent[userID], message)
	return true
}

func (d *recordingDelivery) Broadcast(message any) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcast = append(d.broadcast, message)
	return len(d.connected)
}

func (d *recordingDelivery) messagesFor(userID string) []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]any(nil), d.sent[userID]...)
}
