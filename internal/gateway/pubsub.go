package gateway

import (
	"context"
	"fmt"
	"log"

	goredis "github.com/go-redis/redis/v8"
)

// PubSubRouter subscribes to the feed channel and routes every payload to
// the Hub.
type PubSubRouter struct {
	rdb     *goredis.Client
	channel string
	hub     *Hub
}

// NewPubSubRouter creates a router for channel.
func NewPubSubRouter(rdb *goredis.Client, channel string, hub *Hub) *PubSubRouter {
	return &PubSubRouter{rdb: rdb, channel: channel, hub: hub}
}

// Run subscribes and dispatches messages until ctx is cancelled. go-redis
// reconnects the subscription on its own; Run only returns an error when the
// initial subscribe fails.
func (r *PubSubRouter) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation before reporting healthy.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.setSubscribed(true)
	defer r.setSubscribed(false)
	log.Printf("[gateway] subscribed to feed channel %s", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Dispatch([]byte(msg.Payload))
		}
	}
}

func (r *PubSubRouter) setSubscribed(v bool) {
	if r.hub.health != nil {
		r.hub.health.SetFeedSubscribed(v)
	}
}
