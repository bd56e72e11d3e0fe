package conv

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-smre/array"
)

// SATConvolver implements Convolver with a toroidal summed-area table,
// ported from original_source/src/convolution.h's cpu_sat_convolver. It
// needs no FFT plan, so it accepts any positive H, W (no power-of-two
// restriction).
type SATConvolver struct {
	h, w int
}

// NewSATConvolver builds a SAT-backed convolver for an h x w image.
func NewSATConvolver(h, w int) *SATConvolver {
	return &SATConvolver{h: h, w: w}
}

type satPreparedImage struct {
	sat array.Real
}

func (*satPreparedImage) preparedImage() {}

type satPreparedKernel struct {
	h       int
	adjoint bool
}

func (*satPreparedKernel) preparedKernel() {}

// PrepareImage builds the toroidal summed-area table S[i][j] =
// sum_{a<=i,b<=j} img[a][b].
func (c *SATConvolver) PrepareImage(img array.Real) (PreparedImage, error) {
	if img.H != c.h || img.W != c.w {
		return nil, fmt.Errorf("%w: convolver is %dx%d, image is %dx%d", ErrShapeMismatch, c.h, c.w, img.H, img.W)
	}

	sat := array.New(c.h, c.w)
	for i0 := 0; i0 < c.h; i0++ {
		for i1 := 0; i1 < c.w; i1++ {
			v := img.At(i0, i1)
			if i0 > 0 {
				v += sat.At(i0-1, i1)
			}
			if i1 > 0 {
				v += sat.At(i0, i1-1)
			}
			if i0 > 0 && i1 > 0 {
				v -= sat.At(i0-1, i1-1)
			}
			sat.Set(i0, i1, v)
		}
	}
	return &satPreparedImage{sat: sat}, nil
}

// PrepareKernel just records (h, adjoint); the SAT backend has no per-kernel
// state to precompute.
func (c *SATConvolver) PrepareKernel(h int, adjoint bool) (PreparedKernel, error) {
	return &satPreparedKernel{h: h, adjoint: adjoint}, nil
}

// boxSum returns the toroidal rectangle sum of sat over the box whose
// opposite corners are (i0,i1) (exclusive, "one before" the box) and
// (j0,j1) (inclusive), wrapping around the image when i0>j0 or i1>j1, per
// the four-corner formula cpu_sat_convolver::box_sum uses.
func (c *SATConvolver) boxSum(sat array.Real, i0, i1, j0, j1 int) float64 {
	sum := sat.At(i0, i1) - sat.At(i0, j1) - sat.At(j0, i1) + sat.At(j0, j1)
	if i0 > j0 {
		sum += sat.At(c.h-1, j1) - sat.At(c.h-1, i1)
	}
	if i1 > j1 {
		sum += sat.At(j0, c.w-1) - sat.At(i0, c.w-1)
		if i0 > j0 {
			sum += sat.At(c.h-1, c.w-1)
		}
	}
	return sum
}

// Conv computes the scaled box sum at every pixel: 1/(sqrt(2)*h) times the
// wrapped h x h rectangle sum, using the trailing box for the adjoint and
// the leading box for the forward operator.
func (c *SATConvolver) Conv(pi PreparedImage, pk PreparedKernel, out array.Real) error {
	img, ok := pi.(*satPreparedImage)
	if !ok {
		return fmt.Errorf("%w: prepared image is not from a SATConvolver", ErrShapeMismatch)
	}
	kernel, ok := pk.(*satPreparedKernel)
	if !ok {
		return fmt.Errorf("%w: prepared kernel is not from a SATConvolver", ErrShapeMismatch)
	}
	if out.H != c.h || out.W != c.w {
		return fmt.Errorf("%w: convolver is %dx%d, output is %dx%d", ErrShapeMismatch, c.h, c.w, out.H, out.W)
	}

	v := 1 / (math.Sqrt2 * float64(kernel.h))
	if kernel.adjoint {
		for i0 := 0; i0 < c.h; i0++ {
			for i1 := 0; i1 < c.w; i1++ {
				sum := c.boxSum(img.sat, mod(i0-kernel.h, c.h), mod(i1-kernel.h, c.w), i0, i1)
				out.Set(i0, i1, v*sum)
			}
		}
	} else {
		for i0 := 0; i0 < c.h; i0++ {
			for i1 := 0; i1 < c.w; i1++ {
				sum := c.boxSum(img.sat,
					mod(i0-1, c.h), mod(i1-1, c.w),
					mod(i0+kernel.h-1, c.h), mod(i1+kernel.h-1, c.w))
				out.Set(i0, i1, v*sum)
			}
		}
	}
	return nil
}
