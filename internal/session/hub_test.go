package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishUpdatesSnapshotAndNotifies(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	var got []Event
	unsubscribe := hub.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	ada := &User{UID: "u1", Email: "ada@example.com", DisplayName: "Ada"}
	hub.Publish(Event{UID: "u1", User: ada})

	current, ok := hub.Current("u1")
	require.True(t, ok)
	assert.Equal(t, *ada, *current)

	hub.Publish(Event{UID: "u1"})
	_, ok = hub.Current("u1")
	assert.False(t, ok)

	unsubscribe()
	unsubscribe()
	hub.Publish(Event{UID: "u1", User: ada})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.True(t, got[0].SignedIn())
	assert.False(t, got[1].SignedIn())
	assert.False(t, got[0].At.IsZero())
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHub_SubscriberMayUnsubscribeDuringDelivery(t *testing.T) {
	hub := NewHub()

	calls := 0
	var unsubscribe func()
	unsubscribe = hub.Subscribe(func(Event) {
		calls++
		unsubscribe()
	})

	hub.Publish(Event{UID: "u1"})
	hub.Publish(Event{UID: "u1"})
	assert.Equal(t, 1, calls)
}

func TestRelay_ForwardTagsOrigin(t *testing.T) {
	db, mock := redismock.NewClientMock()
	relay := NewRelay(NewHub(), db, zerolog.Nop())

	ev := Event{UID: "u1", User: &User{UID: "u1"}}
	tagged := ev
	tagged.Origin = relay.origin
	payload, err := json.Marshal(tagged)
	require.NoError(t, err)

	mock.ExpectPublish(relay.channel, payload).SetVal(1)
	require.NoError(t, relay.forward(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelay_ReceiveRepublishesRemoteEventsOnly(t *testing.T) {
	db, _ := redismock.NewClientMock()
	hub := NewHub()
	relay := NewRelay(hub, db, zerolog.Nop())

	var received []Event
	hub.Subscribe(func(ev Event) { received = append(received, ev) })

	remote, _ := json.Marshal(Event{UID: "u1", User: &User{UID: "u1"}, Origin: "other-instance"})
	own, _ := json.Marshal(Event{UID: "u2", Origin: relay.origin})

	relay.receive(string(remote))
	relay.receive(string(own))
	relay.receive("not json")

	require.Len(t, received, 1)
	assert.Equal(t, "u1", received[0].UID)
	_, ok := hub.Current("u1")
	assert.True(t, ok)
}
