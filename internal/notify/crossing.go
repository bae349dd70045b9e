package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
)

// Text renders the alert as one line.
func (a Alert) Text() string {
	return fmt.Sprintf("%s crossed %s level %s %s (price %s)",
		a.Symbol, strings.ToUpper(a.Side), normalize.FormatNumber(a.Level), a.Direction, normalize.FormatNumber(a.Price))
}

// CrossDetector watches market prices and raises an alert whenever a price
// moves through a manual level of the same symbol. Alerts are queued and
// delivered by Run, so Observe never blocks the feed.
type CrossDetector struct {
	notifier Notifier
	queue    chan Alert
	now      func() time.Time

	mu   sync.Mutex
	last map[string]float64 // by upper-cased symbol

	dropped atomic.Int64
}

// NewCrossDetector creates a detector with a queue of size buffered alerts.
func NewCrossDetector(n Notifier, size int) *CrossDetector {
	if size <= 0 {
		size = 64
	}
	return &CrossDetector{
		notifier: n,
		queue:    make(chan Alert, size),
		now:      time.Now,
		last:     make(map[string]float64),
	}
}

// Observe records price for symbol and queues an alert for every level
// between the previous and the new price. The first price seen for a symbol
// only sets the baseline. Touching a level counts as crossing it; leaving it
// again does not.
func (d *CrossDetector) Observe(symbol string, price float64, levels []model.ManualLevel) []Alert {
	if price <= 0 || normalize.IsNoData(price) {
		return nil
	}
	key := strings.ToUpper(strings.TrimSpace(symbol))

	d.mu.Lock()
	prev, seen := d.last[key]
	d.last[key] = price
	d.mu.Unlock()
	if !seen || prev == price {
		return nil
	}

	var fired []Alert
	for _, l := range levels {
		if !strings.EqualFold(strings.TrimSpace(l.Symbol), key) {
			continue
		}
		var dir Direction
		switch {
		case prev < l.EntryPrice && price >= l.EntryPrice:
			dir = Up
		case prev > l.EntryPrice && price <= l.EntryPrice:
			dir = Down
		default:
			continue
		}
		a := Alert{
			Symbol:    key,
			Side:      string(l.Side),
			Level:     l.EntryPrice,
			Price:     price,
			Direction: dir,
			LevelID:   l.ID,
			At:        d.now(),
		}
		select {
		case d.queue <- a:
		default:
			d.dropped.Add(1)
		}
		fired = append(fired, a)
	}
	return fired
}

// Dropped returns how many alerts were discarded because the queue was full.
func (d *CrossDetector) Dropped() int64 { return d.dropped.Load() }

// Forget drops the baseline for symbol.
func (d *CrossDetector) Forget(symbol string) {
	d.mu.Lock()
	delete(d.last, strings.ToUpper(strings.TrimSpace(symbol)))
	d.mu.Unlock()
}

// Run delivers queued alerts until ctx is cancelled.
func (d *CrossDetector) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-d.queue:
			sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			if err := d.notifier.Send(sendCtx, a); err != nil {
				log.Printf("[notify] delivery failed for %s: %v", a.Symbol, err)
			}
			cancel()
		}
	}
}
