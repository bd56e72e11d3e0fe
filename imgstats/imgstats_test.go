package imgstats

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-smre/array"
)

const tolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func constantImage(h, w int, v float64) array.Real {
	img := array.New(h, w)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

func TestCalculateConstantImage(t *testing.T) {
	img := constantImage(4, 4, 2.5)
	s := Calculate(img)

	if !almostEqual(s.Mean, 2.5, tolerance) {
		t.Fatalf("Mean = %v, want 2.5", s.Mean)
	}
	if !almostEqual(s.RMS, 2.5, tolerance) {
		t.Fatalf("RMS = %v, want 2.5", s.RMS)
	}
	if s.Variance != 0 {
		t.Fatalf("Variance = %v, want 0", s.Variance)
	}
	if s.Range != 0 {
		t.Fatalf("Range = %v, want 0", s.Range)
	}
	if s.Count != 16 {
		t.Fatalf("Count = %v, want 16", s.Count)
	}
}

func TestCalculateLocatesExtrema(t *testing.T) {
	img := array.New(3, 3)
	img.Set(1, 2, 9)
	img.Set(2, 0, -4)

	s := Calculate(img)

	if s.Max != 9 || s.MaxAt != [2]int{1, 2} {
		t.Fatalf("Max = %v at %v, want 9 at [1 2]", s.Max, s.MaxAt)
	}
	if s.Min != -4 || s.MinAt != [2]int{2, 0} {
		t.Fatalf("Min = %v at %v, want -4 at [2 0]", s.Min, s.MinAt)
	}
	if s.Peak != 9 {
		t.Fatalf("Peak = %v, want 9", s.Peak)
	}
	if s.Range != 13 {
		t.Fatalf("Range = %v, want 13", s.Range)
	}
}

func TestCalculateMeanZeroVarianceMatchesManual(t *testing.T) {
	img := array.New(2, 2)
	img.Data = []float64{1, -1, 2, -2}

	s := Calculate(img)

	if !almostEqual(s.Mean, 0, tolerance) {
		t.Fatalf("Mean = %v, want 0", s.Mean)
	}
	wantVariance := (1.0 + 1.0 + 4.0 + 4.0) / 4.0
	if !almostEqual(s.Variance, wantVariance, tolerance) {
		t.Fatalf("Variance = %v, want %v", s.Variance, wantVariance)
	}
}

func TestCalculateCrestFactorZeroRMS(t *testing.T) {
	img := constantImage(2, 2, 0)
	s := Calculate(img)

	if s.CrestFactor != 0 {
		t.Fatalf("CrestFactor = %v, want 0 when RMS is 0", s.CrestFactor)
	}
}
