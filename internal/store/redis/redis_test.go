package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(max int, cooldown time.Duration) (*Breaker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	b := NewBreaker(max, cooldown)
	b.now = clk.now
	return b, clk
}

var errFail = errors.New("fail")

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	assert.Equal(t, StateClosed, b.State())

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return errFail }), errFail)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenTrial(t *testing.T) {
	b, clk := newTestBreaker(2, time.Second)
	var transitions []string
	b.OnStateChange = func(from, to State) { transitions = append(transitions, from.String()+">"+to.String()) }

	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })
	require.Equal(t, StateOpen, b.State())

	// Failed trial reopens for another full cooldown.
	clk.advance(1100 * time.Millisecond)
	assert.ErrorIs(t, b.Do(func() error { return errFail }), errFail)
	assert.Equal(t, StateOpen, b.State())
	clk.advance(500 * time.Millisecond)
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrCircuitOpen)

	clk.advance(600 * time.Millisecond)
	assert.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{
		"closed>open",
		"open>half-open", "half-open>open",
		"open>half-open", "half-open>closed",
	}, transitions)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })
	b.Do(func() error { return nil })
	b.Do(func() error { return errFail })
	b.Do(func() error { return errFail })
	assert.Equal(t, StateClosed, b.State())
}

type published struct {
	channel string
	payload string
}

type fakeConn struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (f *fakeConn) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	f.sent = append(f.sent, published{channel: channel, payload: string(message.([]byte))})
	return goredis.NewIntResult(1, nil)
}

func (f *fakeConn) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestPublisher_Levels(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, PublisherConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, p.PublishLevels(ctx, nil))
	require.NoError(t, p.PublishLevels(ctx, []model.ManualLevel{
		{ID: "a", Symbol: "NIFTY", EntryPrice: 22000, Side: model.SideBuy},
	}))

	require.Len(t, conn.sent, 2)
	assert.Equal(t, "live-data-all", conn.sent[0].channel)
	assert.JSONEq(t, `{"symbols":[]}`, conn.sent[0].payload)
	assert.JSONEq(t, `{"symbols":[{"_id":"a","symbol":"NIFTY","entryPrice":22000,"side":"buy"}]}`, conn.sent[1].payload)
}

func TestPublisher_Emission(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, PublisherConfig{EmissionChannel: "cfg"}, nil)

	require.NoError(t, p.PublishEmission(context.Background(), model.EmissionSettings{
		Symbol: "X", Indicators: []string{"RSI"}, Timeframes: []model.Timeframe{model.TF1h},
	}))
	require.Len(t, conn.sent, 1)
	assert.Equal(t, "cfg", conn.sent[0].channel)
	assert.JSONEq(t, `{"symbol":"X","indicators":["RSI"],"timeframes":["1h"]}`, conn.sent[0].payload)
}

func TestPublisher_FailedConfigIsResent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	conn := &fakeConn{}
	p := NewPublisher(conn, PublisherConfig{MaxFailures: 10}, m)
	ctx := context.Background()

	conn.setErr(errors.New("connection refused"))
	assert.Error(t, p.PublishLevels(ctx, []model.ManualLevel{{ID: "old"}}))
	assert.Error(t, p.PublishLevels(ctx, []model.ManualLevel{{ID: "new"}}))
	assert.Error(t, p.PublishEmission(ctx, model.EmissionSettings{Symbol: "X"}))
	assert.Error(t, p.PublishEvent(ctx, []byte(`{"symbol":"X","price":1}`)))

	// Latest level snapshot replaces the older one; feed events are not kept.
	assert.Equal(t, 2, p.Pending())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PublishErrors.WithLabelValues("live-data-all")))

	conn.setErr(nil)
	require.NoError(t, p.PublishEmission(ctx, model.EmissionSettings{Symbol: "Y"}))
	assert.Equal(t, 0, p.Pending())

	require.Len(t, conn.sent, 3)
	assert.JSONEq(t, `{"symbol":"Y","indicators":null,"timeframes":null}`, conn.sent[0].payload)
	assert.Contains(t, conn.sent[1].payload, `"new"`)
	assert.NotContains(t, conn.sent[1].payload, `"old"`)
	assert.Equal(t, "config:emission", conn.sent[2].channel)
	assert.Contains(t, conn.sent[2].payload, `"symbol":"X"`)
}

func TestPublisher_OpenBreakerFailsFast(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, PublisherConfig{MaxFailures: 1, Cooldown: time.Hour}, nil)
	ctx := context.Background()

	conn.setErr(errors.New("down"))
	assert.Error(t, p.PublishEvent(ctx, []byte(`{}`)))
	conn.setErr(nil)

	err := p.PublishEvent(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, StateOpen, p.Breaker().State())
	assert.Empty(t, conn.sent)
}
