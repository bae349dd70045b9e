// Package feedsim generates synthetic live-data-all events for demos and
// load tests without an upstream indicator feed.
//
// Each Step advances a random walk per symbol and emits a price-only tick.
// Every timeframe closes a bar after a fixed number of steps and emits a full
// indicator tick for it; with Live set, bars that are still forming emit
// partial ticks (moving averages and RSI only) computed with Peek.
package feedsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/model"
)

// Config holds generator settings.
type Config struct {
	Symbols    []string
	Timeframes []model.Timeframe
	// StartPrices overrides the initial price per symbol (default 100).
	StartPrices map[string]float64
	// SentinelRate is the probability that a scalar payload is replaced by
	// the 1e100 no-data marker.
	SentinelRate float64
	// Live emits partial ticks for forming bars on every step.
	Live bool
	Seed int64
}

// sentinel is the upstream "value not available" marker.
const sentinel = 1e100

// Engine config order; indexes below refer to it.
var engineConfigs = []indicator.Config{
	{Type: "EMA", Period: 50},
	{Type: "EMA", Period: 200},
	{Type: "RSI", Period: 14},
	{Type: "MACD", Period: 12, Slow: 26, Signal: 9},
	{Type: "SMA", Period: 20},
	{Type: "SMMA", Period: 8},
}

const (
	idxEMA50 = iota
	idxEMA200
	idxRSI
	idxMACD
	idxBB
	idxNW
)

// Generator produces feed events. Not safe for concurrent use.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	engine *indicator.Engine
	syms   []*instrument
	step   int
}

type instrument struct {
	symbol string
	price  float64
	bars   map[model.Timeframe]*series
}

// New validates cfg and seeds per-symbol state.
func New(cfg Config) (*Generator, error) {
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("feedsim: no symbols configured")
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = []model.Timeframe{model.TF1m, model.TF5m, model.TF15m, model.TF1h}
	}
	for _, tf := range cfg.Timeframes {
		if !tf.Valid() {
			return nil, fmt.Errorf("feedsim: unknown timeframe %q", tf)
		}
	}
	if cfg.SentinelRate < 0 || cfg.SentinelRate > 1 {
		return nil, fmt.Errorf("feedsim: sentinel rate %.2f out of [0,1]", cfg.SentinelRate)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	eng, err := indicator.NewEngine(engineConfigs)
	if err != nil {
		return nil, err
	}

	g := &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed)), engine: eng}
	for _, sym := range cfg.Symbols {
		p := cfg.StartPrices[sym]
		if p <= 0 {
			p = 100
		}
		in := &instrument{symbol: sym, price: p, bars: make(map[model.Timeframe]*series, len(cfg.Timeframes))}
		for _, tf := range cfg.Timeframes {
			in.bars[tf] = newSeries(sym, tf, p)
		}
		g.syms = append(g.syms, in)
	}
	return g, nil
}

// barSteps is how many steps make one bar of tf: longer timeframes close
// less often, in display order.
func barSteps(tf model.Timeframe) int {
	return tf.Rank() + 1
}

// walkPrice applies a random walk of at most ±0.2%.
func (g *Generator) walkPrice(price float64) float64 {
	pct := (g.rng.Float64()*0.4 - 0.2) / 100
	next := price * (1 + pct)
	if next < 0.01 {
		next = 0.01
	}
	return next
}

// Step advances the simulation by one tick and returns the encoded events.
func (g *Generator) Step() [][]byte {
	g.step++
	var out [][]byte
	for _, in := range g.syms {
		in.price = g.walkPrice(in.price)
		volume := float64(g.rng.Intn(1000) + 1)
		out = append(out, mustEncode(priceEvent{Symbol: in.symbol, MarketPrice: round2(in.price), Volume: volume}))

		for _, tf := range g.cfg.Timeframes {
			s := in.bars[tf]
			s.tick(in.price)
			if g.step%barSteps(tf) == 0 {
				out = append(out, mustEncode(g.closeBar(s)))
				continue
			}
			if g.cfg.Live {
				if ev := g.liveTick(s); ev != nil {
					out = append(out, mustEncode(ev))
				}
			}
		}
	}
	return out
}

// Run steps every interval and hands each event to publish until ctx is
// cancelled. Publish errors are logged and the event is dropped.
func (g *Generator) Run(ctx context.Context, interval time.Duration, publish func(context.Context, []byte) error) error {
	if interval <= 0 {
		return errors.New("feedsim: interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sent, failed int64
	for {
		select {
		case <-ctx.Done():
			log.Printf("[feedsim] stopped after %d steps (sent=%d failed=%d)", g.step, sent, failed)
			return nil
		case <-ticker.C:
			for _, ev := range g.Step() {
				if err := publish(ctx, ev); err != nil {
					failed++
					if failed%100 == 1 {
						log.Printf("[feedsim] publish error: %v", err)
					}
					continue
				}
				sent++
			}
		}
	}
}

// maybeSentinel returns the no-data marker with probability SentinelRate.
func (g *Generator) maybeSentinel(v float64) float64 {
	if g.cfg.SentinelRate > 0 && g.rng.Float64() < g.cfg.SentinelRate {
		return sentinel
	}
	return round2(v)
}

func mustEncode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// payload types are fixed structs of finite floats
		panic(fmt.Sprintf("feedsim: encode: %v", err))
	}
	return b
}
