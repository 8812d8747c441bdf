package websocket

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestClient(hub *Hub, sessionID uuid.UUID) *Client {
	return &Client{
		Hub:       hub,
		Send:      make(chan domain.Event, 4),
		SessionID: sessionID,
		clock:     time.Now,
		cfg:       ClientConfig{Location: time.UTC},
		logger:    testLogger(),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func receive(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case event, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestHub_ForwardsBusEventsToEveryClient(t *testing.T) {
	hub := startHub(t)
	bus := services.NewEventBus(testLogger())
	detach := hub.Attach(bus)
	defer detach()

	session := uuid.New()
	first := newTestClient(hub, session)
	second := newTestClient(hub, session)
	other := newTestClient(hub, uuid.New())
	for _, c := range []*Client{first, second, other} {
		require.True(t, hub.Join(c))
	}
	require.Eventually(t, func() bool { return hub.GetClientCount() == 3 }, time.Second, 10*time.Millisecond)

	bus.Publish(context.Background(), domain.Event{Type: domain.EventDatasetUpdated, Payload: "update"})

	for _, c := range []*Client{first, second, other} {
		event := receive(t, c)
		assert.Equal(t, domain.EventDatasetUpdated, event.Type)
		assert.Equal(t, "update", event.Payload)
	}
}

func TestHub_IgnoresInternalEvents(t *testing.T) {
	hub := startHub(t)
	bus := services.NewEventBus(testLogger())
	hub.Attach(bus)

	client := newTestClient(hub, uuid.New())
	require.True(t, hub.Join(client))
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	bus.Publish(context.Background(), domain.Event{Type: domain.EventDatasetReplaced})
	bus.Publish(context.Background(), domain.Event{Type: domain.EventFilterChanged})

	assert.Equal(t, domain.EventFilterChanged, receive(t, client).Type)
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	session := uuid.New()
	client := newTestClient(hub, session)

	require.True(t, hub.Join(client))
	require.Eventually(t, func() bool { return hub.IsSessionConnected(session) }, time.Second, 10*time.Millisecond)

	hub.Leave(client)
	require.Eventually(t, func() bool { return !hub.IsSessionConnected(session) }, time.Second, 10*time.Millisecond)

	_, open := <-client.Send
	assert.False(t, open)
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := startHub(t)
	slow := &Client{Hub: hub, Send: make(chan domain.Event), SessionID: uuid.New(), logger: testLogger()}

	require.True(t, hub.Join(slow))
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(domain.Event{Type: domain.EventDatasetUpdated})

	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := newTestClient(hub, uuid.New())
	require.True(t, hub.Join(client))

	cancel()
	<-stopped

	_, open := <-client.Send
	assert.False(t, open)
	assert.False(t, hub.Join(newTestClient(hub, uuid.New())))
	hub.Leave(client)
}
