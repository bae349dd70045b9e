package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
)

// Conn is the subset of the Redis client used for publishing.
type Conn interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// PublisherConfig configures channels and breaker thresholds.
type PublisherConfig struct {
	FeedChannel     string // live-data-all
	EmissionChannel string // config:emission
	MaxFailures     int
	Cooldown        time.Duration
}

func (c *PublisherConfig) defaults() {
	if c.FeedChannel == "" {
		c.FeedChannel = "live-data-all"
	}
	if c.EmissionChannel == "" {
		c.EmissionChannel = "config:emission"
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.Cooldown == 0 {
		c.Cooldown = 5 * time.Second
	}
}

type pendingPublish struct {
	channel string
	payload []byte
}

// Publisher sends level snapshots and emission settings through a circuit
// breaker. Config publishes that fail are kept (latest per key) and resent
// after the next successful publish.
type Publisher struct {
	conn    Conn
	cfg     PublisherConfig
	breaker *Breaker
	metrics *metrics.Metrics

	mu      sync.Mutex
	pending map[string]pendingPublish
	order   []string
}

// NewPublisher creates a Publisher. m may be nil.
func NewPublisher(conn Conn, cfg PublisherConfig, m *metrics.Metrics) *Publisher {
	cfg.defaults()
	p := &Publisher{
		conn:    conn,
		cfg:     cfg,
		breaker: NewBreaker(cfg.MaxFailures, cfg.Cooldown),
		metrics: m,
		pending: make(map[string]pendingPublish),
	}
	p.breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] publish breaker %s -> %s", from, to)
	}
	return p
}

// PublishLevels broadcasts the full manual level list on the feed channel.
func (p *Publisher) PublishLevels(ctx context.Context, levels []model.ManualLevel) error {
	if levels == nil {
		levels = []model.ManualLevel{}
	}
	payload, err := json.Marshal(model.LevelSnapshot{Symbols: levels})
	if err != nil {
		return fmt.Errorf("encode levels: %w", err)
	}
	return p.publishConfig(ctx, "levels", p.cfg.FeedChannel, payload)
}

// PublishEmission tells the upstream feed which indicators to emit.
func (p *Publisher) PublishEmission(ctx context.Context, s model.EmissionSettings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode emission settings: %w", err)
	}
	return p.publishConfig(ctx, "emission:"+s.Symbol, p.cfg.EmissionChannel, payload)
}

// PublishEvent sends one raw feed event. Feed events are not retried.
func (p *Publisher) PublishEvent(ctx context.Context, raw []byte) error {
	return p.send(ctx, p.cfg.FeedChannel, raw)
}

// Pending returns the number of config publishes waiting for a resend.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Breaker exposes the breaker state for health reporting.
func (p *Publisher) Breaker() *Breaker { return p.breaker }

func (p *Publisher) publishConfig(ctx context.Context, key, channel string, payload []byte) error {
	if err := p.send(ctx, channel, payload); err != nil {
		p.stash(key, pendingPublish{channel: channel, payload: payload})
		return err
	}
	p.mu.Lock()
	p.drop(key)
	p.mu.Unlock()
	p.Flush(ctx)
	return nil
}

func (p *Publisher) send(ctx context.Context, channel string, payload []byte) error {
	err := p.breaker.Do(func() error {
		return p.conn.Publish(ctx, channel, payload).Err()
	})
	if err != nil {
		p.metrics.PublishFailed(channel)
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Flush resends pending config publishes in their original order.
func (p *Publisher) Flush(ctx context.Context) {
	p.mu.Lock()
	keys := p.order
	batch := p.pending
	p.order = nil
	p.pending = make(map[string]pendingPublish)
	p.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	sent := 0
	for _, k := range keys {
		pp := batch[k]
		if err := p.send(ctx, pp.channel, pp.payload); err != nil {
			p.stashIfAbsent(k, pp)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("[redis] flushed %d pending publishes", sent)
	}
}

func (p *Publisher) stash(key string, pp pendingPublish) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drop(key)
	p.pending[key] = pp
	p.order = append(p.order, key)
}

// stashIfAbsent re-queues pp unless a newer value was stashed meanwhile.
func (p *Publisher) stashIfAbsent(key string, pp pendingPublish) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[key]; ok {
		return
	}
	p.pending[key] = pp
	p.order = append(p.order, key)
}

// drop removes key; p.mu must be held.
func (p *Publisher) drop(key string) {
	if _, ok := p.pending[key]; !ok {
		return
	}
	delete(p.pending, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i:i], p.order[i+1:]...)
			break
		}
	}
}
