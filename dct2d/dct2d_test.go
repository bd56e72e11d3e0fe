package dct2d

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-smre/array"
)

func TestRoundTripScale(t *testing.T) {
	h, w := 4, 8
	p, err := NewPlanner(h, w)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	in := array.New(h, w)
	for i := range in.Data {
		in.Data[i] = float64(i) * 0.37
	}

	fwd, err := p.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	back := p.Inverse(fwd)

	scale := float64(4 * h * w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			want := in.At(i, j) * scale
			got := back.At(i, j)
			if math.Abs(got-want) > 1e-6*math.Abs(want)+1e-9 {
				t.Fatalf("(%d,%d): got %v want %v", i, j, got, want)
			}
		}
	}
}

func TestNewPlannerRejectsUnsupportedShape(t *testing.T) {
	if _, err := NewPlanner(5, 7); err == nil {
		t.Fatal("expected an error for a shape algo-fft cannot double into a plan size")
	}
}

func TestForwardVector1DImpulse(t *testing.T) {
	x := []float64{1, 0, 0, 0}
	y, err := ForwardVector1D(x)
	if err != nil {
		t.Fatalf("ForwardVector1D: %v", err)
	}
	for k, v := range y {
		want := 2 * math.Cos(math.Pi/4*0.5*float64(k))
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("y[%d] = %v, want %v", k, v, want)
		}
	}
}
