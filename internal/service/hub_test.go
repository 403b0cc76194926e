package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davshiv20/PingPollz/internal/model"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Shutdown)
	return h
}

func newTestClient() *Client {
	return &Client{
		ConnID: uuid.NewString(),
		Role:   model.RoleParticipant,
		Send:   make(chan []byte, 64),
	}
}

// awaitEvent drains the client's channel until an event of the wanted type
// arrives. Other events in between are skipped.
func awaitEvent(t *testing.T, c *Client, eventType string) *model.WSEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				t.Fatalf("client channel closed while waiting for %s", eventType)
			}
			var ev model.WSEvent
			require.NoError(t, json.Unmarshal(msg, &ev))
			if ev.Type == eventType {
				return &ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

// assertNoEvent asserts the client receives nothing of the given type within a
// short window.
func assertNoEvent(t *testing.T, c *Client, eventType string) {
	t.Helper()
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			var ev model.WSEvent
			require.NoError(t, json.Unmarshal(msg, &ev))
			if ev.Type == eventType {
				t.Fatalf("unexpected %s event: %s", eventType, ev.Data)
			}
		case <-deadline:
			return
		}
	}
}

func decodeData(t *testing.T, ev *model.WSEvent, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ev.Data, out))
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	h := newTestHub(t)

	clients := []*Client{newTestClient(), newTestClient(), newTestClient()}
	for _, c := range clients {
		h.Register(c)
	}

	h.Broadcast(model.NewEvent(model.EventChatMessage, map[string]string{"message": "hi"}))

	for _, c := range clients {
		ev := awaitEvent(t, c, model.EventChatMessage)
		assert.Equal(t, model.EventChatMessage, ev.Type)
	}
}

func TestHubUnicastOnlyReachesTarget(t *testing.T) {
	h := newTestHub(t)

	target := newTestClient()
	bystander := newTestClient()
	h.Register(target)
	h.Register(bystander)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 2
	}, time.Second, 10*time.Millisecond)
	h.Bind(target, uuid.NewString(), "Ada")
	h.Bind(bystander, uuid.NewString(), "Eve")

	ok := h.SendToParticipant(target.ParticipantID, model.NewEvent(model.EventKicked, model.KickedPayload{
		ParticipantID: target.ParticipantID,
	}))
	assert.True(t, ok)

	awaitEvent(t, target, model.EventKicked)
	assertNoEvent(t, bystander, model.EventKicked)

	ok = h.SendToParticipant("no-such-participant", model.NewEvent(model.EventKicked, nil))
	assert.False(t, ok)
}

func TestHubDropsSaturatedClient(t *testing.T) {
	h := newTestHub(t)

	healthy := newTestClient()
	// Unbuffered channel with no reader: the first broadcast cannot be
	// delivered and the client must be dropped, not waited on.
	stuck := &Client{ConnID: uuid.NewString(), Send: make(chan []byte)}
	h.Register(healthy)
	h.Register(stuck)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 2
	}, time.Second, 10*time.Millisecond)

	h.Broadcast(model.NewEvent(model.EventChatMessage, map[string]string{"message": "hi"}))

	awaitEvent(t, healthy, model.EventChatMessage)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Later broadcasts still reach the survivors.
	h.Broadcast(model.NewEvent(model.EventChatMessage, map[string]string{"message": "again"}))
	awaitEvent(t, healthy, model.EventChatMessage)
}

func TestHubRefusesSendToDroppedClient(t *testing.T) {
	h := newTestHub(t)

	healthy := newTestClient()
	stuck := &Client{ConnID: uuid.NewString(), Send: make(chan []byte)}
	h.Register(healthy)
	h.Register(stuck)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 2
	}, time.Second, 10*time.Millisecond)

	h.Broadcast(model.NewEvent(model.EventChatMessage, map[string]string{"message": "hi"}))
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 1
	}, time.Second, 10*time.Millisecond)

	// The dropped client's channel is closed; a late reply aimed at it must
	// be refused instead of pushed into the closed channel.
	ok := h.SendToClient(stuck, model.NewEvent(model.EventPong, nil))
	assert.False(t, ok)

	ok = h.SendToClient(healthy, model.NewEvent(model.EventPong, nil))
	assert.True(t, ok)
	awaitEvent(t, healthy, model.EventPong)
}

func TestHubBindVisibleToUnicast(t *testing.T) {
	h := newTestHub(t)

	c := newTestClient()
	h.Register(c)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 1
	}, time.Second, 10*time.Millisecond)

	id := uuid.NewString()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if h.SendToParticipant(id, model.NewEvent(model.EventKicked, model.KickedPayload{ParticipantID: id})) {
				return
			}
		}
	}()

	h.Bind(c, id, "Ada")
	<-done

	require.Eventually(t, func() bool {
		return h.SendToParticipant(id, model.NewEvent(model.EventKicked, model.KickedPayload{ParticipantID: id}))
	}, time.Second, 10*time.Millisecond)
	awaitEvent(t, c, model.EventKicked)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := newTestHub(t)

	c := newTestClient()
	h.Register(c)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 1
	}, time.Second, 10*time.Millisecond)

	h.Unregister(c)
	require.Eventually(t, func() bool {
		return h.OnlineCount() == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}
