package smre

import (
	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/qcache"
)

// ResolventKind selects which resolvent variant a Driver uses.
type ResolventKind int

const (
	// ResolventL2 selects the pointwise-shrinkage resolvent.
	ResolventL2 ResolventKind = iota
	// ResolventH1 selects the DCT-based Helmholtz resolvent.
	ResolventH1
)

// Params holds the immutable, per-run configuration for a Driver. Build one
// with NewParams and a chain of Option values.
type Params struct {
	Shape           array.Shape
	KernelSizes     []int
	Tau             float64
	Sigma           float64
	MaxSteps        int
	Tolerance       float64
	MonteCarloSteps int
	PenalizedScan   bool
	UseFFT          bool
	InputStddev     float64 // < 0 means "estimate via MAD"
	Resolvent       ResolventKind
	Delta           float64 // H1 resolvent parameter
	Quantile        float64
	CacheDir        string // empty disables the on-disk q-cache
}

// Option mutates a Params during construction.
type Option func(*Params)

// WithKernelSizes sets the ordered list of box-kernel sizes h_i.
func WithKernelSizes(sizes ...int) Option {
	return func(p *Params) { p.KernelSizes = append([]int(nil), sizes...) }
}

// WithTau sets the initial primal step size tau_0.
func WithTau(tau float64) Option {
	return func(p *Params) { p.Tau = tau }
}

// WithSigma sets the initial dual step size sigma_0 (before the 1/(tau*total_norm) rescale).
func WithSigma(sigma float64) Option {
	return func(p *Params) { p.Sigma = sigma }
}

// WithMaxSteps sets the hard iteration cap N.
func WithMaxSteps(n int) Option {
	return func(p *Params) { p.MaxSteps = n }
}

// WithTolerance sets the relative stopping threshold epsilon; 0 disables it.
func WithTolerance(eps float64) Option {
	return func(p *Params) { p.Tolerance = eps }
}

// WithMonteCarloSteps sets the number of samples M for q calibration.
func WithMonteCarloSteps(m int) Option {
	return func(p *Params) { p.MonteCarloSteps = m }
}

// WithPenalizedScan enables the per-kernel shift s_i.
func WithPenalizedScan(enabled bool) Option {
	return func(p *Params) { p.PenalizedScan = enabled }
}

// WithFFTBackend selects the FFT convolver backend (the default is SAT).
func WithFFTBackend() Option {
	return func(p *Params) { p.UseFFT = true }
}

// WithSATBackend selects the SAT convolver backend.
func WithSATBackend() Option {
	return func(p *Params) { p.UseFFT = false }
}

// WithInputStddev fixes the estimated input standard deviation instead of
// computing it via the MAD estimator.
func WithInputStddev(s float64) Option {
	return func(p *Params) { p.InputStddev = s }
}

// WithL2Resolvent selects the l2 resolvent (the default).
func WithL2Resolvent() Option {
	return func(p *Params) { p.Resolvent = ResolventL2 }
}

// WithH1Resolvent selects the H1 resolvent with the given delta in (0,1].
func WithH1Resolvent(delta float64) Option {
	return func(p *Params) {
		p.Resolvent = ResolventH1
		p.Delta = delta
	}
}

// WithQuantile overrides the Monte Carlo quantile used to derive q (default qcache.DefaultQuantile).
func WithQuantile(q float64) Option {
	return func(p *Params) { p.Quantile = q }
}

// WithCacheDir enables an on-disk q-cache rooted at dir.
func WithCacheDir(dir string) Option {
	return func(p *Params) { p.CacheDir = dir }
}

// NewParams builds a validated Params for an H x W run, applying opts over
// these defaults: Tau=50, Sigma=1, MaxSteps=10, MonteCarloSteps=64,
// InputStddev=-1 (estimate via MAD), Resolvent=ResolventL2,
// Quantile=qcache.DefaultQuantile — matching
// original_source/src/chambolle_pock.h's chambolle_pock{}'s own defaults
// where it names one (max_steps=10, tau=50, sigma=1, gamma=1).
func NewParams(shape array.Shape, opts ...Option) (Params, error) {
	p := Params{
		Shape:           shape,
		Tau:             50,
		Sigma:           1,
		MaxSteps:        10,
		MonteCarloSteps: 64,
		InputStddev:     -1,
		Resolvent:       ResolventL2,
		Delta:           0.5,
		Quantile:        qcache.DefaultQuantile,
	}
	for _, opt := range opts {
		opt(&p)
	}

	if err := p.validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (p Params) validate() error {
	if p.Shape.H <= 0 || p.Shape.W <= 0 {
		return invalidParameter("shape must be positive, got %dx%d", p.Shape.H, p.Shape.W)
	}
	if len(p.KernelSizes) == 0 {
		return invalidParameter("kernel_sizes must be non-empty")
	}
	minDim := p.Shape.H
	if p.Shape.W < minDim {
		minDim = p.Shape.W
	}
	for _, h := range p.KernelSizes {
		if h <= 0 || h > minDim {
			return invalidParameter("kernel size %d must be in (0, min(H,W)=%d]", h, minDim)
		}
	}
	if p.Tau <= 0 {
		return invalidParameter("tau must be > 0, got %v", p.Tau)
	}
	if p.Sigma <= 0 {
		return invalidParameter("sigma must be > 0, got %v", p.Sigma)
	}
	if p.MaxSteps < 1 {
		return invalidParameter("max_steps must be >= 1, got %d", p.MaxSteps)
	}
	if p.Tolerance < 0 {
		return invalidParameter("tolerance must be >= 0, got %v", p.Tolerance)
	}
	if p.MonteCarloSteps < 1 {
		return invalidParameter("monte_carlo_steps must be >= 1, got %d", p.MonteCarloSteps)
	}
	if p.Resolvent == ResolventH1 && (p.Delta <= 0 || p.Delta > 1) {
		return invalidParameter("delta must be in (0,1], got %v", p.Delta)
	}
	return nil
}
