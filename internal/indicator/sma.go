package indicator

import "math"

// SMA calculates a Simple Moving Average over a rolling window backed by a
// preallocated circular buffer. It also tracks the window's population
// standard deviation for Bollinger-style bands.
type SMA struct {
	period  int
	buf     []float64
	idx     int // next write position
	count   int
	sum     float64
	sumSq   float64
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(price float64) {
	if s.count >= s.period {
		old := s.buf[s.idx]
		s.sum -= old
		s.sumSq -= old * old
	}
	s.buf[s.idx] = price
	s.sum += price
	s.sumSq += price * price
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.sum / float64(s.period)
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.count >= s.period }

func (s *SMA) Peek(price float64) float64 {
	if s.count < s.period {
		return (s.sum + price) / float64(s.count+1)
	}
	return (s.sum - s.buf[s.idx] + price) / float64(s.period)
}

// StdDev returns the population standard deviation of the current window,
// or 0 before the window is full.
func (s *SMA) StdDev() float64 {
	if !s.Ready() {
		return 0
	}
	n := float64(s.period)
	mean := s.sum / n
	v := s.sumSq/n - mean*mean
	if v < 0 {
		// float cancellation on flat series
		v = 0
	}
	return math.Sqrt(v)
}

// Reset clears the SMA state for reuse.
func (s *SMA) Reset() {
	s.idx = 0
	s.count = 0
	s.sum = 0
	s.sumSq = 0
	s.current = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}
