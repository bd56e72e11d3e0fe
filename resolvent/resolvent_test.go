package resolvent

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/internal/testutil"
)

func TestL2FixedPoint(t *testing.T) {
	h, w := 4, 4
	u := array.New(h, w)
	for i := range u.Data {
		u.Data[i] = float64(i) - 3.5
	}

	tau := 0.7
	scaled := array.New(h, w)
	array.Scale(scaled, u, 1+tau)

	l2 := NewL2()
	got, err := l2.Evaluate(tau, scaled)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i := range got.Data {
		if math.Abs(got.Data[i]-u.Data[i]) > 1e-9 {
			t.Fatalf("fixed point violated at %d: got %v want %v", i, got.Data[i], u.Data[i])
		}
	}
}

func TestL2Gamma(t *testing.T) {
	if g := NewL2().Gamma(); g != 1 {
		t.Fatalf("Gamma() = %v, want 1", g)
	}
}

func TestH1ZeroIsFixedPoint(t *testing.T) {
	h, w := 8, 8
	delta := 0.5
	r, err := NewH1(delta, h, w)
	if err != nil {
		t.Fatalf("NewH1: %v", err)
	}

	zero := array.New(h, w)
	got, err := r.Evaluate(1.0, zero)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	testutil.RequireFinite(t, got.Data)
	for i := range got.Data {
		if math.Abs(got.Data[i]) > 1e-9 {
			t.Fatalf("evaluate(tau, 0)[%d] = %v, want 0", i, got.Data[i])
		}
	}
}

func TestH1Gamma(t *testing.T) {
	r, err := NewH1(0.3, 4, 4)
	if err != nil {
		t.Fatalf("NewH1: %v", err)
	}
	want := 0.7
	if g := r.Gamma(); math.Abs(g-want) > 1e-9 {
		t.Fatalf("Gamma() = %v, want %v", g, want)
	}
}

func TestH1RejectsZeroTauDelta(t *testing.T) {
	r, err := NewH1(0.5, 4, 4)
	if err != nil {
		t.Fatalf("NewH1: %v", err)
	}
	_, err = r.Evaluate(0, array.New(4, 4))
	if err == nil {
		t.Fatal("expected a NumericalError for tau=0")
	}
	var numErr *NumericalError
	if ne, ok := err.(*NumericalError); ok {
		numErr = ne
	}
	if numErr == nil {
		t.Fatalf("expected *NumericalError, got %T: %v", err, err)
	}
}

func TestH1RejectsInvalidDelta(t *testing.T) {
	if _, err := NewH1(0, 4, 4); err == nil {
		t.Fatal("expected an error for delta=0")
	}
	if _, err := NewH1(1.5, 4, 4); err == nil {
		t.Fatal("expected an error for delta=1.5")
	}
}
