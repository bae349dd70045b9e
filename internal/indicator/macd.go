package indicator

// MACD is the difference of a fast and a slow EMA, with an EMA signal line
// over that difference. Value returns the MACD line.
type MACD struct {
	fast, slow *EMA
	signal     *EMA
}

// NewMACD creates a MACD(fast, slow, signal), typically (12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: NewEMA(fast), slow: NewEMA(slow), signal: NewEMA(signal)}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(price float64) {
	m.fast.Update(price)
	m.slow.Update(price)
	if m.slow.Ready() && m.fast.Ready() {
		m.signal.Update(m.fast.Value() - m.slow.Value())
	}
}

func (m *MACD) Value() float64 {
	if !m.slow.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

// Signal returns the signal line.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Histogram returns MACD minus signal.
func (m *MACD) Histogram() float64 { return m.Value() - m.Signal() }

func (m *MACD) Ready() bool { return m.signal.Ready() }

func (m *MACD) Peek(price float64) float64 {
	return m.fast.Peek(price) - m.slow.Peek(price)
}

// PeekAll returns (macd, signal, histogram) as if a bar closing at price
// were added next.
func (m *MACD) PeekAll(price float64) (macd, signal, hist float64) {
	macd = m.Peek(price)
	if !m.slow.Ready() {
		return macd, 0, 0
	}
	signal = m.signal.Peek(macd)
	return macd, signal, macd - signal
}
