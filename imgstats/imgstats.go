// Package imgstats computes summary statistics over a 2-D image grid in a
// single pass, grounded on stats/time/stats.go's Welford-based accumulator
// but reduced to the fields that carry meaning for a dense amplitude grid
// rather than a 1-D audio signal (no zero-crossing rate, no dB-scaled
// fields: an image's mean and range are already in the units the caller
// cares about).
package imgstats

import (
	"math"

	"github.com/cwbudde/algo-smre/array"
)

// Stats holds single-pass summary statistics over an image's samples.
type Stats struct {
	Count       int
	Mean        float64
	RMS         float64
	Min         float64
	MinAt       [2]int // row, col
	Max         float64
	MaxAt       [2]int
	Peak        float64 // max(|max|, |min|)
	Range       float64 // max - min
	Variance    float64
	Skewness    float64
	Kurtosis    float64
	CrestFactor float64 // peak / RMS
}

// Calculate computes Stats over img in a single pass using Welford's online
// algorithm for the higher-order moments, matching stats/time's Calculate.
func Calculate(img array.Real) Stats {
	n := len(img.Data)
	if n == 0 {
		return Stats{}
	}

	var (
		mean, m2, m3, m4 float64
		sumSq            float64
	)

	maxVal, minVal := img.Data[0], img.Data[0]
	var maxAt, minAt [2]int

	for i, x := range img.Data {
		ni := float64(i + 1)
		delta := x - mean
		deltaN := delta / ni
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * float64(i)

		m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m2 - 4*deltaN*m3
		m3 += term1*deltaN*(float64(i)-1) - 3*deltaN*m2
		m2 += term1
		mean += deltaN

		sumSq += x * x

		if x > maxVal {
			maxVal = x
			maxAt = [2]int{i / img.W, i % img.W}
		}
		if x < minVal {
			minVal = x
			minAt = [2]int{i / img.W, i % img.W}
		}
	}

	nf := float64(n)
	rms := math.Sqrt(sumSq / nf)
	peak := math.Max(math.Abs(maxVal), math.Abs(minVal))

	var crest float64
	if rms != 0 {
		crest = peak / rms
	}

	variance := m2 / nf
	var skewness, kurtosis float64
	if variance > 0 {
		skewness = (m3 / nf) / (variance * math.Sqrt(variance))
		kurtosis = (m4/nf)/(variance*variance) - 3
	}

	return Stats{
		Count:       n,
		Mean:        mean,
		RMS:         rms,
		Min:         minVal,
		MinAt:       minAt,
		Max:         maxVal,
		MaxAt:       maxAt,
		Peak:        peak,
		Range:       maxVal - minVal,
		Variance:    variance,
		Skewness:    skewness,
		Kurtosis:    kurtosis,
		CrestFactor: crest,
	}
}
