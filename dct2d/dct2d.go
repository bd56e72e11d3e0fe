// Package dct2d implements the 2-D discrete cosine transform the H1
// resolvent's Helmholtz solver needs (resolvent.H1), ported from the
// REDFT10 (DCT-II, forward)/REDFT01 (DCT-III, inverse) pair
// original_source/src/resolvent.h builds on FFTW. Forward is built on an
// FFT-accelerated DCT-II: an even-symmetric extension followed by a complex
// FFT, the construction r2r.DCT2Plan.Forward uses in
// _examples/other_examples/c03df5d9_MeKo-Christian-algo-pde__r2r-dct.go.go
// on top of algo-fft's Plan[complex128], the same plan type fft2d.Planner
// already wraps. Inverse stays a direct N x N cosine-matrix multiply,
// matching that same file's DCT2Plan.Inverse, which itself falls back to
// the weighted transpose of the DCT-II kernel rather than an FFT
// construction. The transform is applied separably: a 1-D DCT along rows,
// then along columns, the same decomposition fft2d uses for the ordinary
// FFT.
package dct2d

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-smre/array"
)

// matrix1D is an N x N row-major cosine matrix used to apply the 1-D
// DCT-III by direct matrix-vector multiplication.
type matrix1D struct {
	n    int
	data []float64 // data[k*n+i] is the coefficient for output k, input i
}

func newDCTIIIMatrix(n int) matrix1D {
	m := matrix1D{n: n, data: make([]float64, n*n)}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			c := 1.0
			if i == 0 {
				c = 0.5
			}
			m.data[k*n+i] = 2 * c * math.Cos(math.Pi/float64(n)*float64(i)*(float64(k)+0.5))
		}
	}
	return m
}

func (m matrix1D) apply(dst, src []float64) {
	for k := 0; k < m.n; k++ {
		row := m.data[k*m.n : k*m.n+m.n]
		sum := 0.0
		for i, c := range row {
			sum += c * src[i]
		}
		dst[k] = sum
	}
}

// Planner applies the separable 2-D DCT-II (Forward) and DCT-III (Inverse)
// for a fixed (H, W) shape.
type Planner struct {
	h, w           int
	rowII, colII   *fftDCTII1D
	rowIII, colIII matrix1D
}

// NewPlanner builds the row/column transforms for an h x w shape. Forward
// needs a length-2h and a length-2w algo-fft plan (in practice, h and w
// must be sizes algo-fft supports doubled, i.e. powers of two); an
// unsupported shape is reported as an error here rather than left to panic
// later, the same contract fft2d.NewPlanner and conv.NewFFTConvolver have.
// Inverse's direct cosine matrix carries no such restriction.
func NewPlanner(h, w int) (*Planner, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("dct2d: invalid shape %dx%d", h, w)
	}
	rowII, err := newFFTDCTII1D(w)
	if err != nil {
		return nil, err
	}
	colII, err := newFFTDCTII1D(h)
	if err != nil {
		return nil, err
	}
	return &Planner{
		h: h, w: w,
		rowII: rowII, colII: colII,
		rowIII: newDCTIIIMatrix(w), colIII: newDCTIIIMatrix(h),
	}, nil
}

// Shape returns the (H, W) this planner was built for.
func (p *Planner) Shape() array.Shape { return array.Shape{H: p.h, W: p.w} }

// Forward computes the 2-D DCT-II of in (FFTW's REDFT10 x REDFT10).
func (p *Planner) Forward(in array.Real) (array.Real, error) {
	if in.H != p.h || in.W != p.w {
		panic(fmt.Sprintf("dct2d: shape mismatch: planner is %dx%d, input is %dx%d", p.h, p.w, in.H, in.W))
	}

	rowTransformed := array.New(p.h, p.w)
	rowIn := make([]float64, p.w)
	rowOut := make([]float64, p.w)
	for i := 0; i < p.h; i++ {
		for j := 0; j < p.w; j++ {
			rowIn[j] = in.At(i, j)
		}
		if err := p.rowII.apply(rowOut, rowIn); err != nil {
			return array.Real{}, err
		}
		for j := 0; j < p.w; j++ {
			rowTransformed.Set(i, j, rowOut[j])
		}
	}

	out := array.New(p.h, p.w)
	colIn := make([]float64, p.h)
	colOut := make([]float64, p.h)
	for j := 0; j < p.w; j++ {
		for i := 0; i < p.h; i++ {
			colIn[i] = rowTransformed.At(i, j)
		}
		if err := p.colII.apply(colOut, colIn); err != nil {
			return array.Real{}, err
		}
		for i := 0; i < p.h; i++ {
			out.Set(i, j, colOut[i])
		}
	}

	return out, nil
}

// Inverse computes the 2-D DCT-III of in (FFTW's REDFT01 x REDFT01), the
// exact algebraic inverse of Forward up to the 4*H*W scale factor
// original_source/src/resolvent.h folds into its Helmholtz solve
// (resolvent.H1 applies the 1/(4*H*W) normalisation once, after dividing
// by the Laplacian eigenvalues).
func (p *Planner) Inverse(in array.Real) array.Real {
	return p.transform(in, p.rowIII, p.colIII)
}

func (p *Planner) transform(in array.Real, rowM, colM matrix1D) array.Real {
	if in.H != p.h || in.W != p.w {
		panic(fmt.Sprintf("dct2d: shape mismatch: planner is %dx%d, input is %dx%d", p.h, p.w, in.H, in.W))
	}

	// DCT along rows.
	rowTransformed := array.New(p.h, p.w)
	rowIn := make([]float64, p.w)
	rowOut := make([]float64, p.w)
	for i := 0; i < p.h; i++ {
		for j := 0; j < p.w; j++ {
			rowIn[j] = in.At(i, j)
		}
		rowM.apply(rowOut, rowIn)
		for j := 0; j < p.w; j++ {
			rowTransformed.Set(i, j, rowOut[j])
		}
	}

	// DCT along columns.
	out := array.New(p.h, p.w)
	colIn := make([]float64, p.h)
	colOut := make([]float64, p.h)
	for j := 0; j < p.w; j++ {
		for i := 0; i < p.h; i++ {
			colIn[i] = rowTransformed.At(i, j)
		}
		colM.apply(colOut, colIn)
		for i := 0; i < p.h; i++ {
			out.Set(i, j, colOut[i])
		}
	}

	return out
}
