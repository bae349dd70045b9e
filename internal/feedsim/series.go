package feedsim

import (
	"math"

	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/model"
)

const extremesWindow = 10

type bar struct {
	open, high, low, close float64
}

// series is the bar state of one (symbol, timeframe).
type series struct {
	symbol string
	tf     model.Timeframe
	key    string

	cur   bar
	fresh bool // next tick opens a new bar
	prev  *bar
	count int64

	highs, lows []float64 // closed bars, newest last

	dev          *indicator.SMMA // |close - NW basis|
	upper, lower float64         // previous envelope
}

func newSeries(symbol string, tf model.Timeframe, price float64) *series {
	return &series{
		symbol: symbol,
		tf:     tf,
		key:    symbol + "|" + string(tf),
		cur:    bar{price, price, price, price},
		fresh:  true,
		dev:    indicator.NewSMMA(8),
	}
}

func (s *series) tick(price float64) {
	if s.fresh {
		s.cur = bar{price, price, price, price}
		s.fresh = false
		return
	}
	s.cur.high = math.Max(s.cur.high, price)
	s.cur.low = math.Min(s.cur.low, price)
	s.cur.close = price
}

func (s *series) roll() {
	b := s.cur
	s.prev = &b
	s.highs = appendWindow(s.highs, b.high)
	s.lows = appendWindow(s.lows, b.low)
	s.fresh = true
	s.count++
}

func appendWindow(w []float64, v float64) []float64 {
	w = append(w, v)
	if len(w) > extremesWindow {
		w = w[len(w)-extremesWindow:]
	}
	return w
}

func maxOf(w []float64) float64 {
	m := math.Inf(-1)
	for _, v := range w {
		m = math.Max(m, v)
	}
	return m
}

func minOf(w []float64) float64 {
	m := math.Inf(1)
	for _, v := range w {
		m = math.Min(m, v)
	}
	return m
}

func tail(w []float64, n int) []float64 {
	if len(w) <= n {
		return w
	}
	return w[len(w)-n:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// closeBar feeds the finished bar through the indicator engine and renders a
// full indicator tick for it.
func (g *Generator) closeBar(s *series) indicatorEvent {
	results := g.engine.Process(s.key, s.cur.close)
	inds := g.engine.Indicators(s.key)

	ev := indicatorEvent{Symbol: s.symbol, Timeframe: string(s.tf)}
	ev.EMA50 = &valuePayload{Value: g.readyValue(results[idxEMA50])}
	ev.EMA200 = &valuePayload{Value: g.readyValue(results[idxEMA200])}
	ev.RSI = &rsiPayload{Value: g.readyValue(results[idxRSI]), Overbought: 70, Oversold: 30}

	if m, ok := inds[idxMACD].(*indicator.MACD); ok {
		if m.Ready() {
			ev.MACD = &macdPayload{
				MACD:      g.maybeSentinel(m.Value()),
				Signal:    round2(m.Signal()),
				Histogram: round2(m.Histogram()),
			}
		} else {
			ev.MACD = &macdPayload{MACD: sentinel, Signal: sentinel, Histogram: sentinel}
		}
	}

	if sma, ok := inds[idxBB].(*indicator.SMA); ok && sma.Ready() {
		basis, sd := sma.Value(), sma.StdDev()
		ev.BB = &bandsPayload{Upper: round2(basis + 2*sd), Basis: g.maybeSentinel(basis), Lower: round2(basis - 2*sd)}
	}

	if nw := results[idxNW]; nw.Ready {
		s.dev.Update(math.Abs(s.cur.close - nw.Value))
		upper := nw.Value + 3*s.dev.Value()
		lower := nw.Value - 3*s.dev.Value()
		if s.upper == 0 {
			s.upper, s.lower = upper, lower
		}
		ev.NWLux = &nwPayload{Lines: []bandLine{
			{Y1: round2(s.upper), Y2: round2(upper)},
			{Y1: round2(s.lower), Y2: round2(lower)},
		}}
		s.upper, s.lower = upper, lower
	}

	ev.Candlestick = candleFlags(s.cur, s.prev, s.count)

	s.roll()

	ev.PivotHighLow = []pivotPoint{
		{Type: "H", Value: round2(maxOf(s.highs))},
		{Type: "L", Value: round2(minOf(s.lows))},
	}
	if len(s.highs) > 3 {
		ev.PivotHighLow = append(ev.PivotHighLow,
			pivotPoint{Type: "H", Value: round2(maxOf(tail(s.highs, 3)))},
			pivotPoint{Type: "L", Value: round2(minOf(tail(s.lows, 3)))},
		)
	}
	ev.SRv2 = []srLevel{
		{Value: round2(maxOf(s.highs))},
		{Value: round2(s.prev.high)},
		{Value: round2(s.prev.low)},
		{Value: round2(minOf(s.lows))},
	}
	ev.PivotPointsStandard = standardPivots(*s.prev)
	return ev
}

// liveTick renders the forming bar's moving averages and RSI, or nil when
// the series has no closed bar yet.
func (g *Generator) liveTick(s *series) *indicatorEvent {
	results := g.engine.ProcessPeek(s.key, s.cur.close)
	if results == nil {
		return nil
	}
	ev := &indicatorEvent{Symbol: s.symbol, Timeframe: string(s.tf)}
	if r := results[idxEMA50]; r.Ready {
		ev.EMA50 = &valuePayload{Value: round2(r.Value)}
	}
	if r := results[idxEMA200]; r.Ready {
		ev.EMA200 = &valuePayload{Value: round2(r.Value)}
	}
	if r := results[idxRSI]; r.Ready {
		ev.RSI = &rsiPayload{Value: round2(r.Value), Overbought: 70, Oversold: 30}
	}
	if ev.EMA50 == nil && ev.EMA200 == nil && ev.RSI == nil {
		return nil
	}
	return ev
}

func (g *Generator) readyValue(r indicator.Result) float64 {
	if !r.Ready {
		return sentinel
	}
	return g.maybeSentinel(r.Value)
}

func candleFlags(cur bar, prev *bar, idx int64) *candlePayload {
	body := math.Abs(cur.close - cur.open)
	span := cur.high - cur.low
	upperShadow := cur.high - math.Max(cur.open, cur.close)
	lowerShadow := math.Min(cur.open, cur.close) - cur.low

	c := &candlePayload{Time: idx}
	if span > 0 && body <= 0.1*span {
		c.Doji = 1
	}
	if body > 0 && lowerShadow >= 2*body && upperShadow <= body {
		c.Hammer = 1
	}
	if body > 0 && upperShadow >= 2*body && lowerShadow <= body {
		c.ShootingStar = 1
	}
	if prev != nil {
		prevBody := math.Abs(prev.close - prev.open)
		bullish := cur.close > cur.open && prev.close < prev.open &&
			cur.open <= prev.close && cur.close >= prev.open
		bearish := cur.close < cur.open && prev.close > prev.open &&
			cur.open >= prev.close && cur.close <= prev.open
		if body > prevBody && (bullish || bearish) {
			c.Engulfing = 1
		}
	}
	return c
}

func standardPivots(b bar) *standardPayload {
	p := (b.high + b.low + b.close) / 3
	r := b.high - b.low
	return &standardPayload{
		P:  round2(p),
		R1: round2(2*p - b.low),
		S1: round2(2*p - b.high),
		R2: round2(p + r),
		S2: round2(p - r),
	}
}
