package resolvent

import (
	"fmt"

	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/dct2d"
)

// H1 implements the resolvent of J_delta(u) = (delta/2)||grad u||^2 +
// ((1-delta)/2)||u||^2 for delta in (0,1], via the discrete Helmholtz solve
// Delta*v - alpha*v = -u/(tau*delta) with Neumann boundary conditions.
// Grounded on resolvent_h1/helmholtz in
// original_source/src/resolvent.h: the Laplacian's DCT-II eigenvalues are
// precomputed once at construction, and each Evaluate call transforms,
// divides pointwise, and inverse-transforms.
type H1 struct {
	delta      float64
	planner    *dct2d.Planner
	laplaceDCT array.Real
}

// NewH1 builds the H1 resolvent for an h x w domain and a fixed delta in
// (0,1]. h and w must be sizes dct2d.NewPlanner's FFT-backed DCT-II
// supports (in practice, powers of two).
func NewH1(delta float64, h, w int) (*H1, error) {
	if delta <= 0 || delta > 1 {
		return nil, fmt.Errorf("resolvent: delta must be in (0,1], got %v", delta)
	}
	planner, err := dct2d.NewPlanner(h, w)
	if err != nil {
		return nil, err
	}
	laplaceDCT, err := laplacianEigenvalues(h, w)
	if err != nil {
		return nil, err
	}
	return &H1{
		delta:      delta,
		planner:    planner,
		laplaceDCT: laplaceDCT,
	}, nil
}

// Gamma is 1-delta for the H1 resolvent.
func (r *H1) Gamma() float64 { return 1 - r.delta }

// Evaluate solves the Helmholtz problem via the precomputed DCT-II
// eigenvalues of the discrete Laplacian.
func (r *H1) Evaluate(tau float64, u array.Real) (array.Real, error) {
	if tau*r.delta == 0 {
		return array.Real{}, &NumericalError{Op: "H1.Evaluate", Err: errZeroTauDelta}
	}

	h, w := u.H, u.W
	alpha := (1 + tau*(1-r.delta)) / (tau * r.delta)

	scaled := array.New(h, w)
	array.Scale(scaled, u, 1/(-tau*r.delta))

	freq, err := r.planner.Forward(scaled)
	if err != nil {
		return array.Real{}, &NumericalError{Op: "H1.Evaluate", Err: err}
	}

	scale := 1.0 / (4 * float64(h) * float64(w))
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			freq.Set(i, j, scale*freq.At(i, j)/(r.laplaceDCT.At(i, j)-alpha))
		}
	}

	return r.planner.Inverse(freq), nil
}

// laplacianEigenvalues precomputes the DCT-II image of the discrete
// Laplacian stencil, following original_source/src/resolvent.h's
// laplacian<T>(): the 1-D DCT of a unit-difference sequence divided by the
// 1-D DCT of a unit impulse, summed across both axes.
func laplacianEigenvalues(h, w int) (array.Real, error) {
	dl1, de1, err := laplacian1D(h)
	if err != nil {
		return array.Real{}, err
	}
	dl2, de2, err := laplacian1D(w)
	if err != nil {
		return array.Real{}, err
	}

	out := array.New(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			out.Set(i, j, dl1[i]/de1[i]+dl2[j]/de2[j])
		}
	}
	return out, nil
}

// laplacian1D returns the DCT-II transforms of the length-n sequences
// (-1,1,0,...,0) and (1,0,...,0).
func laplacian1D(n int) (dl, de []float64, err error) {
	diff := make([]float64, n)
	diff[0] = -1
	if n > 1 {
		diff[1] = 1
	}
	impulse := make([]float64, n)
	impulse[0] = 1

	dl, err = dct2d.ForwardVector1D(diff)
	if err != nil {
		return nil, nil, err
	}
	de, err = dct2d.ForwardVector1D(impulse)
	if err != nil {
		return nil, nil, err
	}
	return dl, de, nil
}
