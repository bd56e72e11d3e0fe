package array

import "testing"

func TestPeriodicIndexing(t *testing.T) {
	a := New(4, 5)
	a.Set(0, 0, 7)
	a.Set(3, 4, 9)

	if got := a.At(4, 5); got != 7 {
		t.Fatalf("At(4,5) = %v, want 7 (wrap to 0,0)", got)
	}
	if got := a.At(-1, -1); got != 9 {
		t.Fatalf("At(-1,-1) = %v, want 9 (wrap to 3,4)", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := New(2, 2)
	a.Set(0, 0, 1)
	b := a.Clone()
	b.Set(0, 0, 2)

	if a.At(0, 0) != 1 {
		t.Fatalf("mutating clone affected original: %v", a.At(0, 0))
	}
}

func TestAddScale(t *testing.T) {
	a := New(1, 3)
	copy(a.Data, []float64{1, 2, 3})
	b := New(1, 3)
	copy(b.Data, []float64{10, 20, 30})

	out := New(1, 3)
	Add(out, a, b)
	want := []float64{11, 22, 33}
	for i, v := range want {
		if out.Data[i] != v {
			t.Fatalf("Add[%d] = %v, want %v", i, out.Data[i], v)
		}
	}

	Scale(out, a, 2)
	for i, v := range []float64{2, 4, 6} {
		if out.Data[i] != v {
			t.Fatalf("Scale[%d] = %v, want %v", i, out.Data[i], v)
		}
	}
}

func TestSub(t *testing.T) {
	a := New(1, 3)
	copy(a.Data, []float64{5, 5, 5})
	b := New(1, 3)
	copy(b.Data, []float64{1, 2, 3})
	out := New(1, 3)
	Sub(out, a, b)
	want := []float64{4, 3, 2}
	for i, v := range want {
		if out.Data[i] != v {
			t.Fatalf("Sub[%d] = %v, want %v", i, out.Data[i], v)
		}
	}
}

func TestMaxAbsL1(t *testing.T) {
	a := New(1, 3)
	copy(a.Data, []float64{-5, 2, -1})
	if got := MaxAbs(a); got != 5 {
		t.Fatalf("MaxAbs = %v, want 5", got)
	}
	if got := L1Norm(a); got != 8 {
		t.Fatalf("L1Norm = %v, want 8", got)
	}
}
