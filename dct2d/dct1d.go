package dct2d

import (
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-smre/fft2d"
)

// planMu serializes algofft plan creation, the same precaution fft2d takes
// around concurrent algofft.NewPlan64 calls; plan *execution* needs no such
// lock.
var planMu sync.Mutex

// fftDCTII1D computes the 1-D DCT-II of a fixed-length vector by an
// even-symmetric extension to length 2n followed by a complex FFT, the
// construction r2r.DCT2Plan.Forward uses in
// _examples/other_examples/c03df5d9_MeKo-Christian-algo-pde__r2r-dct.go.go
// on top of algo-fft's Plan[complex128] — the same plan type fft2d.Planner
// wraps for the ordinary 2-D FFT.
type fftDCTII1D struct {
	n         int
	extendedN int
	plan      *algofft.Plan[complex128]
	in, out   []complex128
	phase     []complex128 // exp(-i*pi*k/(2n)) per output index k
}

func newFFTDCTII1D(n int) (*fftDCTII1D, error) {
	extendedN := 2 * n

	planMu.Lock()
	plan, err := algofft.NewPlan64(extendedN)
	planMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dct2d: cannot build a DCT-II plan for size %d (needs a length-%d FFT plan): %w",
			n, extendedN, &fft2d.PlanCreationError{Size: extendedN, Err: err})
	}

	phase := make([]complex128, n)
	den := 2.0 * float64(n)
	for k := 0; k < n; k++ {
		angle := -math.Pi * float64(k) / den
		phase[k] = complex(math.Cos(angle), math.Sin(angle))
	}

	return &fftDCTII1D{
		n:         n,
		extendedN: extendedN,
		plan:      plan,
		in:        make([]complex128, extendedN),
		out:       make([]complex128, extendedN),
		phase:     phase,
	}, nil
}

// apply computes the unnormalised DCT-II dst[k] = 2 * sum_i src[i] *
// cos(pi/n*(i+0.5)*k) (FFTW's REDFT10 convention) for k, i in [0,n). dst and
// src must both have length n; they may not alias p's internal buffers.
func (p *fftDCTII1D) apply(dst, src []float64) error {
	for i := range p.in {
		p.in[i] = 0
	}
	// Even extension: [x0, x1, ..., x(n-1), x(n-1), ..., x1, x0].
	for i := 0; i < p.n; i++ {
		p.in[i] = complex(src[i], 0)
		p.in[p.extendedN-1-i] = complex(src[i], 0)
	}

	if err := p.plan.Forward(p.out, p.in); err != nil {
		return fmt.Errorf("dct2d: forward FFT: %w", err)
	}

	for k := 0; k < p.n; k++ {
		dst[k] = real(p.out[k] * p.phase[k])
	}
	return nil
}

// ForwardVector1D computes the 1-D DCT-II (FFTW's REDFT10) of x. It exists
// so resolvent.H1 can precompute the discrete Laplacian's per-axis
// eigenvalues (original_source/src/resolvent.h's laplacian helper) without
// building a full 2-D Planner for a single setup-time vector. Like Planner,
// it needs a length-2*len(x) algo-fft plan, so len(x) must be a size
// algo-fft supports doubled (in practice, a power of two); an unsupported
// length is reported as an error rather than a panic.
func ForwardVector1D(x []float64) ([]float64, error) {
	plan, err := newFFTDCTII1D(len(x))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	if err := plan.apply(out, x); err != nil {
		return nil, err
	}
	return out, nil
}
