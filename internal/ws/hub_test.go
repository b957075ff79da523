package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmatch/classmatch/internal/db"
)

func testHub() *Hub {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go h.Run()
	return h
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pushed event")
		return Event{}
	}
}

// TestNotifyMessageReachesSubscribersOnly verifies routing by chat key.
func TestNotifyMessageReachesSubscribersOnly(t *testing.T) {
	hub := testHub()

	amy := NewClient(hub, nil, "amy")
	amy.Subscribe("amy_ben")
	hub.register <- amy

	eve := NewClient(hub, nil, "eve")
	hub.register <- eve

	msg := db.ChatMessage{ID: "m1", ChatKey: "amy_ben", SenderID: "ben", Text: "hi"}
	hub.NotifyMessage("amy_ben", msg)

	evt := receive(t, amy)
	assert.Equal(t, EventMessageNew, evt.Type)
	assert.Equal(t, "amy_ben", evt.ChatKey)

	var pushed db.ChatMessage
	require.NoError(t, json.Unmarshal(evt.Payload, &pushed))
	assert.Equal(t, "m1", pushed.ID)

	select {
	case <-eve.send:
		t.Fatal("unsubscribed client received a push")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestUnsubscribeStopsDelivery verifies dropping a subscription stops
// pushes for that chat.
func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := testHub()

	amy := NewClient(hub, nil, "amy")
	amy.Subscribe("amy_ben")
	hub.register <- amy

	hub.NotifyMessage("amy_ben", db.ChatMessage{ID: "m1", ChatKey: "amy_ben"})
	receive(t, amy)

	amy.Unsubscribe("amy_ben")
	hub.NotifyMessage("amy_ben", db.ChatMessage{ID: "m2", ChatKey: "amy_ben"})

	select {
	case <-amy.send:
		t.Fatal("unsubscribed client received a push")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestReconnectReplacesClient verifies a second connection for the same
// user supplants the first.
func TestReconnectReplacesClient(t *testing.T) {
	hub := testHub()

	first := NewClient(hub, nil, "amy")
	first.Subscribe("amy_ben")
	hub.register <- first

	second := NewClient(hub, nil, "amy")
	second.Subscribe("amy_ben")
	hub.register <- second

	hub.NotifyMessage("amy_ben", db.ChatMessage{ID: "m1", ChatKey: "amy_ben"})

	evt := receive(t, second)
	assert.Equal(t, EventMessageNew, evt.Type)

	// the first client's channel was closed on replacement
	select {
	case _, ok := <-first.done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("first client was not dropped")
	}
}
