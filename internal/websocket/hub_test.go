package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"enculture-be/internal/dto"
	"enculture-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	broken bool
	closed int
}

func (f *fakeConn) Send(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken || f.closed > 0 {
		return false
	}
	f.frames = append(f.frames, data)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

func (f *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

func newTestHub() *Hub {
	return NewHub(logger.NewNopLogger())
}

func TestRegisterGreetsOnlyTheNewConnection(t *testing.T) {
	hub := newTestHub()
	first, second := &fakeConn{}, &fakeConn{}

	hub.Register(first, "u1")
	hub.Register(second, "u1")

	require.Len(t, first.messages(t), 1)
	greeting := second.messages(t)
	require.Len(t, greeting, 1)
	assert.Equal(t, "connection_established", greeting[0]["type"])
	assert.Equal(t, "Connected to Enculture notifications", greeting[0]["message"])
	assert.NotEmpty(t, greeting[0]["timestamp"])
	assert.Equal(t, 2, hub.ConnectionCount("u1"))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Register(conn, "u1")

	hub.Unregister(conn, "u1")
	hub.Unregister(conn, "u1")
	hub.Unregister(&fakeConn{}, "nobody")

	assert.Empty(t, hub.ConnectedUsers())
	assert.Equal(t, 0, hub.ConnectionCount(""))
	assert.Equal(t, 1, conn.closed)
}

func TestSendToUserDropsOnlyFailingConnections(t *testing.T) {
	hub := newTestHub()
	conns := []*fakeConn{{}, {}, {}}
	for _, c := range conns {
		hub.Register(c, "u1")
	}
	conns[1].broken = true

	ok := hub.SendToUser("u1", map[string]string{"type": "ping"})

	assert.True(t, ok)
	assert.Equal(t, 2, hub.ConnectionCount("u1"))
	assert.Len(t, conns[0].messages(t), 2)
	assert.Len(t, conns[2].messages(t), 2)
	assert.Equal(t, 1, conns[1].closed)
}

func TestSendToUserWithoutConnections(t *testing.T) {
	hub := newTestHub()
	assert.False(t, hub.SendToUser("ghost", map[string]string{"type": "ping"}))

	only := &fakeConn{}
	hub.Register(only, "u1")
	only.broken = true
	assert.False(t, hub.SendToUser("u1", map[string]string{"type": "ping"}))
	assert.NotContains(t, hub.ConnectedUsers(), "u1")
}

func TestBroadcastCountsDeliveries(t *testing.T) {
	hub := newTestHub()
	a1, a2, b, broken := &fakeConn{}, &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register(a1, "a")
	hub.Register(a2, "a")
	hub.Register(b, "b")
	hub.Register(broken, "c")
	broken.broken = true

	n := hub.Broadcast(dto.SystemBroadcastMessage{Type: dto.MessageTypeSystemBroadcast, Title: "t", Message: "m"})

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b"}, hub.ConnectedUsers())
	assert.Equal(t, "system_broadcast", b.messages(t)[1]["type"])
}

func TestNotifySurveyPublishedCountsReachedUsers(t *testing.T) {
	hub := newTestHub()
	u1 := &fakeConn{}
	hub.Register(u1, "u1")

	reached := hub.NotifySurveyPublished(dto.SurveySummary{Id: "survey_1", Name: "Pulse"}, []string{"u1", "u2"})

	assert.Equal(t, 1, reached)
	msgs := u1.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "survey_notification", msgs[1]["type"])
	assert.Equal(t, "New survey available: Pulse", msgs[1]["message"])
	survey := msgs[1]["survey"].(map[string]any)
	assert.Equal(t, "survey_1", survey["id"])
}

func TestNotifySurveyPublishedUntitled(t *testing.T) {
	hub := newTestHub()
	u1 := &fakeConn{}
	hub.Register(u1, "u1")

	hub.NotifySurveyPublished(dto.SurveySummary{Id: "survey_2"}, []string{"u1"})

	msgs := u1.messages(t)
	assert.Equal(t, "New survey available: Untitled Survey", msgs[1]["message"])
}

func TestConnectedUsersSortedAndCounts(t *testing.T) {
	hub := newTestHub()
	hub.Register(&fakeConn{}, "zoe")
	hub.Register(&fakeConn{}, "adam")
	hub.Register(&fakeConn{}, "adam")

	assert.Equal(t, []string{"adam", "zoe"}, hub.ConnectedUsers())
	assert.Equal(t, 2, hub.ConnectionCount("adam"))
	assert.Equal(t, 3, hub.ConnectionCount(""))
	assert.Equal(t, 0, hub.ConnectionCount("nobody"))
}

func TestRegisterDropsConnectionThatCannotBeGreeted(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{broken: true}
	hub.Register(conn, "u1")

	assert.Equal(t, 0, hub.ConnectionCount("u1"))
	assert.Equal(t, 1, conn.closed)
}

func TestConcurrentRegisterAndSend(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := &fakeConn{}
			hub.Register(c, "u")
			hub.Unregister(c, "u")
		}()
		go func() {
			defer wg.Done()
			hub.SendToUser("u", map[string]int{"n": 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.ConnectionCount("u"))
}
