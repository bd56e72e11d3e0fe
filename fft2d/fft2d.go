// Package fft2d provides a 2-D discrete Fourier transform built by composing
// two 1-D complex FFT plans (one per axis), a separable construction. The
// underlying 1-D plan is algo-fft's algofft.Plan[complex128], the same plan
// type used elsewhere in this module family for framed 1-D FFTs
// (dsp/conv.OverlapAdd, measure/thd, dsp/effects/pitch); dct2d builds its
// own length-2N plans of that same type for the Helmholtz solver's DCT-II.
//
// algo-fft only builds plans for power-of-two sizes (nextPowerOf2 callers
// throughout this module family attest to this); NewPlanner reports that
// as a PlanCreationError instead of letting the backend panic.
//
// algo-fft exposes no real-optimised r2c transform, so the frequency domain
// here is a full H x W array.Complex grid rather than a halved (H, W/2+1)
// packing a dedicated r2c backend would use. The numeric contract —
// unnormalised forward, 1/(H*W)-normalised inverse, periodic convolution
// semantics — is identical; only the storage packing differs, and nothing
// outside this package and conv ever looks at it. See DESIGN.md for the
// Open Question this resolves.
package fft2d

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-smre/array"
)

// PlanCreationError is returned when algo-fft cannot build a plan for the
// requested size, e.g. because it is not supported by the backend.
type PlanCreationError struct {
	Size int
	Err  error
}

func (e *PlanCreationError) Error() string {
	return fmt.Sprintf("fft2d: cannot create FFT plan of size %d: %v", e.Size, e.Err)
}

func (e *PlanCreationError) Unwrap() error { return e.Err }

// planMu serializes this package's algofft plan creation: at most one fft2d
// plan is under construction at a time. dct2d builds its plans under its
// own, separate lock, so an fft2d plan and a dct2d plan can be built at the
// same time. Plan *execution*
// (Forward/Inverse) needs no such lock; algofft's Plan.Forward/Inverse only
// read the plan's internal twiddle tables and write to caller-supplied
// buffers.
var planMu sync.Mutex

func newPlan(size int) (*algofft.Plan[complex128], error) {
	planMu.Lock()
	defer planMu.Unlock()

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, &PlanCreationError{Size: size, Err: err}
	}
	return plan, nil
}

// Planner computes 2-D forward and inverse FFTs of a fixed (H, W) shape by
// separable row/column 1-D transforms.
type Planner struct {
	h, w    int
	rowPlan *algofft.Plan[complex128] // size w, applied to each of the H rows
	colPlan *algofft.Plan[complex128] // size h, applied to each of the W columns
}

// NewPlanner builds row and column plans for an h x w transform.
func NewPlanner(h, w int) (*Planner, error) {
	rowPlan, err := newPlan(w)
	if err != nil {
		return nil, err
	}
	colPlan, err := newPlan(h)
	if err != nil {
		return nil, err
	}
	return &Planner{h: h, w: w, rowPlan: rowPlan, colPlan: colPlan}, nil
}

// Shape returns the (H, W) this planner was built for.
func (p *Planner) Shape() array.Shape { return array.Shape{H: p.h, W: p.w} }

// Forward computes the unnormalised 2-D DFT of img.
func (p *Planner) Forward(img array.Real) (array.Complex, error) {
	if img.H != p.h || img.W != p.w {
		panic(fmt.Sprintf("fft2d: shape mismatch: planner is %dx%d, image is %dx%d", p.h, p.w, img.H, img.W))
	}

	out := array.NewComplex(p.h, p.w)

	rowIn := make([]complex128, p.w)
	rowOut := make([]complex128, p.w)
	for i := 0; i < p.h; i++ {
		for j := 0; j < p.w; j++ {
			rowIn[j] = complex(img.At(i, j), 0)
		}
		if err := p.rowPlan.Forward(rowOut, rowIn); err != nil {
			return array.Complex{}, fmt.Errorf("fft2d: row FFT: %w", err)
		}
		for j := 0; j < p.w; j++ {
			out.Set(i, j, rowOut[j])
		}
	}

	colIn := make([]complex128, p.h)
	colOut := make([]complex128, p.h)
	for j := 0; j < p.w; j++ {
		for i := 0; i < p.h; i++ {
			colIn[i] = out.At(i, j)
		}
		if err := p.colPlan.Forward(colOut, colIn); err != nil {
			return array.Complex{}, fmt.Errorf("fft2d: column FFT: %w", err)
		}
		for i := 0; i < p.h; i++ {
			out.Set(i, j, colOut[i])
		}
	}

	return out, nil
}

// Inverse computes the 1/(H*W)-normalised inverse 2-D DFT of freq, returning
// its real part. algofft's 1-D Inverse already normalises by the
// per-axis length, so composing a column inverse with a row inverse yields
// the full 1/(H*W) factor automatically.
func (p *Planner) Inverse(freq array.Complex) (array.Real, error) {
	if freq.H != p.h || freq.W != p.w {
		panic(fmt.Sprintf("fft2d: shape mismatch: planner is %dx%d, spectrum is %dx%d", p.h, p.w, freq.H, freq.W))
	}

	temp := array.NewComplex(p.h, p.w)

	colIn := make([]complex128, p.h)
	colOut := make([]complex128, p.h)
	for j := 0; j < p.w; j++ {
		for i := 0; i < p.h; i++ {
			colIn[i] = freq.At(i, j)
		}
		if err := p.colPlan.Inverse(colOut, colIn); err != nil {
			return array.Real{}, fmt.Errorf("fft2d: inverse column FFT: %w", err)
		}
		for i := 0; i < p.h; i++ {
			temp.Set(i, j, colOut[i])
		}
	}

	out := array.New(p.h, p.w)
	rowIn := make([]complex128, p.w)
	rowOut := make([]complex128, p.w)
	for i := 0; i < p.h; i++ {
		for j := 0; j < p.w; j++ {
			rowIn[j] = temp.At(i, j)
		}
		if err := p.rowPlan.Inverse(rowOut, rowIn); err != nil {
			return array.Real{}, fmt.Errorf("fft2d: inverse row FFT: %w", err)
		}
		for j := 0; j < p.w; j++ {
			out.Set(i, j, real(rowOut[j]))
		}
	}

	return out, nil
}
