package rangevec

import "math"

// Histogram is a schema-tagged bucket set. Two histograms are additively
// combinable only when their SchemaID matches; see Add.
type Histogram struct {
	SchemaID int32
	Buckets  []float64
}

// IsEmpty reports whether h carries no buckets (the zero Histogram, standing
// in for "no histogram sample at this position").
func (h Histogram) IsEmpty() bool { return len(h.Buckets) == 0 }

// Add combines h and other bucket-wise when their schemas match. When the
// schemas differ (including differing bucket counts), it returns a
// histogram of all-NaN bucket values at the wider of the two bucket counts,
// per the "NaN rather than fail" design note: downstream aggregators observe
// NaNs in histogram buckets exactly as they observe NaN doubles, and skip
// them.
func (h Histogram) Add(other Histogram) Histogram {
	if h.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return h
	}
	if h.SchemaID != other.SchemaID || len(h.Buckets) != len(other.Buckets) {
		n := len(h.Buckets)
		if len(other.Buckets) > n {
			n = len(other.Buckets)
		}
		nan := make([]float64, n)
		for i := range nan {
			nan[i] = math.NaN()
		}
		return Histogram{SchemaID: h.SchemaID, Buckets: nan}
	}
	sum := make([]float64, len(h.Buckets))
	for i := range sum {
		sum[i] = addNaNAware(h.Buckets[i], other.Buckets[i])
	}
	return Histogram{SchemaID: h.SchemaID, Buckets: sum}
}

func addNaNAware(a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	return a + b
}
