package indicator

import "testing"

func TestEngine_SeriesAreIndependent(t *testing.T) {
	engine, err := NewEngine([]Config{{Type: "SMA", Period: 3}, {Type: "ema", Period: 3}})
	if err != nil {
		t.Fatal(err)
	}

	var results []Result
	for _, p := range []float64{100, 102, 104} {
		results = engine.Process("NIFTY|15m", p)
	}
	engine.Process("BANKNIFTY|15m", 500)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "SMA_3" || results[1].Name != "EMA_3" {
		t.Errorf("unexpected names: %s, %s", results[0].Name, results[1].Name)
	}
	for _, r := range results {
		if !r.Ready {
			t.Errorf("%s should be ready", r.Name)
		}
		assertClose(t, r.Name, r.Value, 102, 1e-9)
	}

	other := engine.Indicators("BANKNIFTY|15m")
	if other[0].Ready() {
		t.Errorf("second series must not share state")
	}
}

func TestEngine_PeekDoesNotMutate(t *testing.T) {
	engine, err := NewEngine([]Config{{Type: "SMA", Period: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if engine.ProcessPeek("X", 1) != nil {
		t.Errorf("peek on an unseen series should be nil")
	}
	for _, p := range []float64{100, 102, 104} {
		engine.Process("X", p)
	}

	peek := engine.ProcessPeek("X", 106)
	assertClose(t, "peek", peek[0].Value, 104, 1e-9)
	assertClose(t, "value", engine.Indicators("X")[0].Value(), 102, 1e-9)
}

func TestEngine_MACDKey(t *testing.T) {
	c := Config{Type: "MACD", Period: 12, Slow: 26, Signal: 9}
	if c.Key() != "MACD_12_26_9" {
		t.Errorf("key = %s", c.Key())
	}
	if _, err := NewEngine([]Config{c}); err != nil {
		t.Errorf("valid MACD rejected: %v", err)
	}
}

func TestEngine_RejectsBadConfig(t *testing.T) {
	bad := [][]Config{
		{{Type: "VWAP", Period: 10}},
		{{Type: "EMA", Period: 0}},
		{{Type: "MACD", Period: 26, Slow: 12, Signal: 9}},
	}
	for _, cfg := range bad {
		if _, err := NewEngine(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}
