package smre

import (
	"sort"

	"github.com/cwbudde/algo-smre/array"
)

// medianOf returns the median of an ascending, non-empty slice: the middle
// element for odd n, the mean of the two middle elements for even n.
func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// EstimateStddev implements the robust median-absolute-deviation estimator,
// ported from original_source/src/image_variance.h's
// median_absolute_deviation: 1.4826 * median(|y - median(y)|).
func EstimateStddev(y array.Real) float64 {
	values := append([]float64(nil), y.Data...)
	sort.Float64s(values)
	med := medianOf(values)

	absDev := make([]float64, len(y.Data))
	for i, v := range y.Data {
		d := v - med
		if d < 0 {
			d = -d
		}
		absDev[i] = d
	}
	sort.Float64s(absDev)

	return 1.4826 * medianOf(absDev)
}
