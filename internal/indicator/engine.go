package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// Config specifies a single indicator to compute.
type Config struct {
	Type   string // "SMA", "EMA", "SMMA", "RSI", "MACD"
	Period int    // MACD: fast period
	Slow   int    // MACD only
	Signal int    // MACD only
}

// Key names the result, e.g. "EMA_50" or "MACD_12_26_9".
func (c Config) Key() string {
	if strings.EqualFold(c.Type, "MACD") {
		return "MACD_" + strconv.Itoa(c.Period) + "_" + strconv.Itoa(c.Slow) + "_" + strconv.Itoa(c.Signal)
	}
	return strings.ToUpper(c.Type) + "_" + strconv.Itoa(c.Period)
}

// Result is one indicator value for a series.
type Result struct {
	Name  string
	Value float64
	Ready bool
}

// Engine computes a fixed set of indicators for many independent series
// (one per symbol and timeframe). Single-goroutine use; no locks.
type Engine struct {
	configs []Config
	state   map[string][]Indicator
}

// NewEngine creates an engine; every series gets its own instances of configs.
func NewEngine(configs []Config) (*Engine, error) {
	for _, c := range configs {
		if _, err := newIndicator(c); err != nil {
			return nil, err
		}
	}
	return &Engine{configs: configs, state: make(map[string][]Indicator, 64)}, nil
}

// Process feeds a completed bar close to the series and returns every
// indicator's value, ready or not.
func (e *Engine) Process(series string, price float64) []Result {
	inds := e.series(series)
	results := make([]Result, 0, len(inds))
	for i, ind := range inds {
		ind.Update(price)
		results = append(results, Result{Name: e.configs[i].Key(), Value: ind.Value(), Ready: ind.Ready()})
	}
	return results
}

// ProcessPeek computes values for a forming bar without mutating state.
// Returns nil for a series that has never been processed.
func (e *Engine) ProcessPeek(series string, price float64) []Result {
	inds, ok := e.state[series]
	if !ok {
		return nil
	}
	results := make([]Result, 0, len(inds))
	for i, ind := range inds {
		results = append(results, Result{Name: e.configs[i].Key(), Value: ind.Peek(price), Ready: ind.Ready()})
	}
	return results
}

// Indicators returns the live instances for a series, creating them on
// first use. Index-aligned with the engine's configs.
func (e *Engine) Indicators(series string) []Indicator {
	return e.series(series)
}

func (e *Engine) series(key string) []Indicator {
	inds, ok := e.state[key]
	if ok {
		return inds
	}
	inds = make([]Indicator, len(e.configs))
	for i, c := range e.configs {
		inds[i], _ = newIndicator(c) // validated in NewEngine
	}
	e.state[key] = inds
	return inds
}

func newIndicator(c Config) (Indicator, error) {
	if c.Period < 1 {
		return nil, fmt.Errorf("indicator %s: period must be positive", c.Type)
	}
	switch strings.ToUpper(c.Type) {
	case "SMA":
		return NewSMA(c.Period), nil
	case "EMA":
		return NewEMA(c.Period), nil
	case "SMMA":
		return NewSMMA(c.Period), nil
	case "RSI":
		return NewRSI(c.Period), nil
	case "MACD":
		if c.Slow <= c.Period || c.Signal < 1 {
			return nil, fmt.Errorf("indicator MACD: need fast < slow and signal > 0")
		}
		return NewMACD(c.Period, c.Slow, c.Signal), nil
	}
	return nil, fmt.Errorf("unknown indicator type %q", c.Type)
}
