package gateway

import (
	"encoding/json"
	"sync/atomic"

	"indicator-dashboard/internal/ingest"
)

// Broadcaster wraps feed events in the live-data-all envelope and hands them
// to the sessions that want them.
type Broadcaster struct {
	hub *Hub
	seq atomic.Int64
}

// NewBroadcaster creates a Broadcaster backed by the given Hub.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Seq returns the number of envelopes built so far.
func (b *Broadcaster) Seq() int64 { return b.seq.Load() }

// Broadcast fans one applied event out. fields is shared by every receiving
// session and must not be modified after this call.
func (b *Broadcaster) Broadcast(raw []byte, fields map[string]json.RawMessage, res ingest.Result) int {
	seq := b.seq.Add(1)
	ev := sessionEvent{fields: fields, envelope: liveEnvelope(raw, seq), seq: seq}

	b.hub.mu.RLock()
	defer b.hub.mu.RUnlock()
	n := 0
	for c := range b.hub.clients {
		if res.Kind != ingest.LevelSnapshot && !c.session.Wants(res.Symbol) {
			continue
		}
		if c.deliver(ev) {
			n++
		}
	}
	return n
}
