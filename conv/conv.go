// Package conv implements the polymorphic "apply kernel K (or its adjoint
// K*) to image I" operation behind two interchangeable backends — an
// FFT-based one (FFTConvolver) and a summed-area-table-based one
// (SATConvolver), each computing a toroidal (periodic) box convolution and
// its exact adjoint. Both backends are grounded on
// original_source/src/convolution.h's cpu_fft_convolver/cpu_sat_convolver,
// adapted from boost::multi_array to this module's array.Real/array.Complex.
package conv

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-smre/array"
)

// ErrShapeMismatch is a programming error: the caller passed a prepared
// image/kernel or output buffer whose shape doesn't match the convolver's.
// Shape mismatches are fatal and are never retried.
var ErrShapeMismatch = errors.New("conv: shape mismatch")

// BackendError reports a runtime failure inside a compute kernel, aborting
// the current run. Plan *construction* failures are reported by the
// underlying façade (fft2d.PlanCreationError) instead, and are not wrapped
// here.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("conv: backend error during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// PreparedImage is an opaque, backend-private handle produced by
// Convolver.PrepareImage. The driver never inspects it; each backend's own
// Conv method downcasts it via a private marker method, so the two
// backends' handles can never be mixed across a Conv call by accident.
type PreparedImage interface {
	preparedImage()
}

// PreparedKernel is the backend-private analogue of PreparedImage for a
// prepared kernel.
type PreparedKernel interface {
	preparedKernel()
}

// Convolver prepares an image once per iteration, prepares a kernel for a
// (size, adjoint) pair, and convolves a prepared image against a prepared
// kernel into a caller-supplied output buffer. FFTConvolver caches each
// prepared kernel for its lifetime; SATConvolver's prepared kernel is only
// a (size, adjoint) descriptor and is built fresh on every call.
type Convolver interface {
	PrepareImage(img array.Real) (PreparedImage, error)
	PrepareKernel(h int, adjoint bool) (PreparedKernel, error)
	Conv(img PreparedImage, k PreparedKernel, out array.Real) error
}

// mod returns x modulo n, always in [0, n).
func mod(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
