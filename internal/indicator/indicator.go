// Package indicator provides streaming technical indicators over close prices.
//
// Every indicator is O(1) per update and exposes Peek for values of a bar
// that is still forming.
package indicator

// Indicator is the interface for all streaming indicators.
type Indicator interface {
	// Name returns the indicator family, e.g. "EMA".
	Name() string

	// Update feeds the close of a completed bar.
	Update(price float64)

	// Value returns the current value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough bars have been accumulated.
	Ready() bool

	// Peek computes what Value() would be if a bar closing at price were
	// added next, without mutating state.
	Peek(price float64) float64
}
