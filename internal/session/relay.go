package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
)

// Relay mirrors hub events across server instances through Redis PubSub.
// Local events are forwarded with this instance's origin; remote events are
// republished into the local hub and never forwarded again.
type Relay struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
	origin  string
	log     zerolog.Logger
}

// NewRelay creates a relay for the hub.
func NewRelay(hub *Hub, rdb *redis.Client, log zerolog.Logger) *Relay {
	return &Relay{
		hub:     hub,
		rdb:     rdb,
		channel: config.CacheKey.SessionEventsChannel(),
		origin:  uuid.NewString(),
		log:     log.With().Str("component", "session_relay").Logger(),
	}
}

// Run forwards and receives events until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	unsubscribe := r.hub.Subscribe(func(ev Event) {
		if ev.Origin != "" {
			return
		}
		if err := r.forward(ctx, ev); err != nil {
			r.log.Warn().Err(err).Str("uid", ev.UID).Msg("Failed to forward session event")
		}
	})
	defer unsubscribe()

	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	r.log.Info().Str("channel", r.channel).Msg("Session relay started")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Session relay stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.receive(msg.Payload)
		}
	}
}

func (r *Relay) forward(ctx context.Context, ev Event) error {
	ev.Origin = r.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, payload).Err()
}

func (r *Relay) receive(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.log.Warn().Err(err).Msg("Dropping malformed session event")
		return
	}
	if ev.Origin == "" || ev.Origin == r.origin {
		return
	}
	r.hub.Publish(ev)
}
