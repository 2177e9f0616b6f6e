package risk

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of ascending sorted values, linearly
// interpolating between the order statistics around (n-1)*p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// sortedWindow keeps the values of a sliding window in ascending order.
type sortedWindow struct {
	values []float64
}

func newSortedWindow(capacity int) *sortedWindow {
	return &sortedWindow{values: make([]float64, 0, capacity)}
}

func (w *sortedWindow) insert(v float64) {
	i := sort.SearchFloat64s(w.values, v)
	w.values = append(w.values, 0)
	copy(w.values[i+1:], w.values[i:])
	w.values[i] = v
}

func (w *sortedWindow) remove(v float64) {
	i := sort.SearchFloat64s(w.values, v)
	if i < len(w.values) && w.values[i] == v {
		w.values = append(w.values[:i], w.values[i+1:]...)
	}
}

func (w *sortedWindow) len() int {
	return len(w.values)
}
