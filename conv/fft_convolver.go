package conv

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/fft2d"
)

// FFTConvolver implements Convolver in the frequency domain via fft2d.
// Prepared kernels are cached for the lifetime of the FFTConvolver, keyed
// by (size, adjoint), so a run never refits the same kernel twice.
type FFTConvolver struct {
	h, w    int
	planner *fft2d.Planner

	mu          sync.Mutex
	kernelCache map[kernelKey]*fftPreparedKernel
}

type kernelKey struct {
	h       int
	adjoint bool
}

// NewFFTConvolver builds an FFT-backed convolver for an h x w image. h and w
// must be sizes fft2d's underlying FFT backend supports (powers of two);
// otherwise a *fft2d.PlanCreationError is returned.
func NewFFTConvolver(h, w int) (*FFTConvolver, error) {
	planner, err := fft2d.NewPlanner(h, w)
	if err != nil {
		return nil, err
	}
	return &FFTConvolver{
		h: h, w: w,
		planner:     planner,
		kernelCache: make(map[kernelKey]*fftPreparedKernel),
	}, nil
}

type fftPreparedImage struct {
	freq array.Complex
}

func (*fftPreparedImage) preparedImage() {}

type fftPreparedKernel struct {
	freq array.Complex
}

func (*fftPreparedKernel) preparedKernel() {}

// PrepareImage computes the forward FFT of img.
func (c *FFTConvolver) PrepareImage(img array.Real) (PreparedImage, error) {
	if img.H != c.h || img.W != c.w {
		return nil, fmt.Errorf("%w: convolver is %dx%d, image is %dx%d", ErrShapeMismatch, c.h, c.w, img.H, img.W)
	}
	freq, err := c.planner.Forward(img)
	if err != nil {
		return nil, &BackendError{Op: "prepare image", Err: err}
	}
	return &fftPreparedImage{freq: freq}, nil
}

// PrepareKernel builds (or fetches, if cached) the FFT of the h x h box
// kernel, scaled by 1/(sqrt(2)*h) and placed at the top-left h x h box for
// the adjoint, or that same box reflected through the origin (wrapped) for
// the forward operator.
//
// Unlike original_source/src/convolution.h's cpu_fft_convolver, no extra
// 1/(H*W) factor is folded into the kernel here: fft2d's Inverse already
// applies that normalisation once (see fft2d's doc comment), and Conv calls
// Inverse exactly once per convolution, so folding it into the kernel too
// would double-normalise.
func (c *FFTConvolver) PrepareKernel(h int, adjoint bool) (PreparedKernel, error) {
	key := kernelKey{h: h, adjoint: adjoint}

	c.mu.Lock()
	if pk, ok := c.kernelCache[key]; ok {
		c.mu.Unlock()
		return pk, nil
	}
	c.mu.Unlock()

	kernel := array.New(c.h, c.w)
	v := 1 / (math.Sqrt2 * float64(h))
	for i0 := 0; i0 < h; i0++ {
		for i1 := 0; i1 < h; i1++ {
			if adjoint {
				kernel.Set(i0, i1, v)
			} else {
				kernel.Set(mod(-i0, c.h), mod(-i1, c.w), v)
			}
		}
	}

	freq, err := c.planner.Forward(kernel)
	if err != nil {
		return nil, &BackendError{Op: "prepare kernel", Err: err}
	}
	pk := &fftPreparedKernel{freq: freq}

	c.mu.Lock()
	c.kernelCache[key] = pk
	c.mu.Unlock()

	return pk, nil
}

// Conv multiplies the prepared image and kernel spectra pointwise and
// inverse-transforms the result into out.
func (c *FFTConvolver) Conv(pi PreparedImage, pk PreparedKernel, out array.Real) error {
	img, ok := pi.(*fftPreparedImage)
	if !ok {
		return fmt.Errorf("%w: prepared image is not from an FFTConvolver", ErrShapeMismatch)
	}
	kernel, ok := pk.(*fftPreparedKernel)
	if !ok {
		return fmt.Errorf("%w: prepared kernel is not from an FFTConvolver", ErrShapeMismatch)
	}
	if out.H != c.h || out.W != c.w {
		return fmt.Errorf("%w: convolver is %dx%d, output is %dx%d", ErrShapeMismatch, c.h, c.w, out.H, out.W)
	}

	product := array.NewComplex(c.h, c.w)
	for i := range product.Data {
		product.Data[i] = img.freq.Data[i] * kernel.freq.Data[i]
	}

	result, err := c.planner.Inverse(product)
	if err != nil {
		return &BackendError{Op: "convolve", Err: err}
	}
	copy(out.Data, result.Data)
	return nil
}
