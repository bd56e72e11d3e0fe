// Package smre implements the Chambolle-Pock primal-dual driver that ties
// the array/fft2d/dct2d, conv, resolvent, and qcache packages together into
// the multiscale SMRE denoising iteration, grounded on
// original_source/src/chambolle_pock_cpu.h's chambolle_pock_cpu.
package smre

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/conv"
	"github.com/cwbudde/algo-smre/imgstats"
	"github.com/cwbudde/algo-smre/qcache"
	"github.com/cwbudde/algo-smre/resolvent"
)

// DebugFrame is one named snapshot captured after a labeled sub-step, when
// a Debug hook is installed.
type DebugFrame struct {
	Name  string
	Image array.Real
}

// ProgressFunc is called once per completed step with the step index, the
// total step count, and a human-readable label.
type ProgressFunc func(step, total int, label string)

// DebugFunc receives a DebugFrame after a labeled sub-step.
type DebugFunc func(frame DebugFrame)

// CurrentFunc is called with the current output estimate after each step;
// returning false stops the run early with the partial result.
type CurrentFunc func(out array.Real, step int) bool

// CacheWarningFunc is called when the q-cache has a soft failure: a
// CacheIOError that is logged through this hook while the run proceeds as
// if the cache were empty.
type CacheWarningFunc func(err error)

// StatsFunc receives summary statistics for a named debug frame, computed
// alongside the Debug hook. Installing it is cheaper than recomputing
// statistics from the raw frames a Debug hook already receives, and lets a
// caller log a compact per-step trace instead of whole images.
type StatsFunc func(name string, s imgstats.Stats)

// Driver runs the Chambolle-Pock iteration for a fixed Params.
type Driver struct {
	params    Params
	convolver conv.Convolver
	resolv    resolvent.Resolvent
	cache     *qcache.Store

	Progress     ProgressFunc
	Debug        DebugFunc
	Current      CurrentFunc
	CacheWarning CacheWarningFunc
	Stats        StatsFunc

	constraints []Constraint
	totalNorm   float64
	initialized bool

	debugMu sync.Mutex
}

// New builds a Driver for params, constructing the selected convolver
// backend and resolvent. Kernel preparation and q-calibration are deferred
// to the first Run call (original_source/src/chambolle_pock_cpu.h's
// `initialized` guard).
func New(params Params) (*Driver, error) {
	var convolver conv.Convolver
	if params.UseFFT {
		c, err := conv.NewFFTConvolver(params.Shape.H, params.Shape.W)
		if err != nil {
			return nil, wrap(err)
		}
		convolver = c
	} else {
		convolver = conv.NewSATConvolver(params.Shape.H, params.Shape.W)
	}

	var resolv resolvent.Resolvent
	switch params.Resolvent {
	case ResolventL2:
		resolv = resolvent.NewL2()
	case ResolventH1:
		r, err := resolvent.NewH1(params.Delta, params.Shape.H, params.Shape.W)
		if err != nil {
			return nil, wrap(err)
		}
		resolv = r
	default:
		return nil, invalidParameter("unknown resolvent kind %v", params.Resolvent)
	}

	var cache *qcache.Store
	if params.CacheDir != "" {
		cache = qcache.NewStore(params.CacheDir)
	}

	return &Driver{
		params:    params,
		convolver: convolver,
		resolv:    resolv,
		cache:     cache,
	}, nil
}

func (d *Driver) cacheKey() qcache.Key {
	tag := qcache.ResolventL2
	var delta float32
	if d.params.Resolvent == ResolventH1 {
		tag = qcache.ResolventH1
		delta = float32(d.params.Delta)
	}
	return qcache.Key{
		Shape:           d.params.Shape,
		KernelSizes:     d.params.KernelSizes,
		Resolvent:       tag,
		Delta:           delta,
		MonteCarloSteps: d.params.MonteCarloSteps,
		PenalizedScan:   d.params.PenalizedScan,
	}
}

// updateKernels builds the Constraints (prepared forward/adjoint kernels,
// fresh dual variables) and calibrates q, following
// original_source/src/chambolle_pock_cpu.h's update_kernels/calc_q.
func (d *Driver) updateKernels() error {
	constraints := make([]Constraint, len(d.params.KernelSizes))
	totalNorm := 0.0
	for i, h := range d.params.KernelSizes {
		fwd, err := d.convolver.PrepareKernel(h, false)
		if err != nil {
			return wrap(err)
		}
		adj, err := d.convolver.PrepareKernel(h, true)
		if err != nil {
			return wrap(err)
		}
		constraints[i] = Constraint{
			KernelSize: h,
			Forward:    fwd,
			Adjoint:    adj,
			Y:          array.New(d.params.Shape.H, d.params.Shape.W),
		}
		totalNorm += float64(h*h) / 2
	}

	if d.params.PenalizedScan {
		area := float64(d.params.Shape.H * d.params.Shape.W)
		for i := range constraints {
			h := constraints[i].KernelSize
			constraints[i].ShiftQ = math.Sqrt(math.Log(area / float64(h*h)))
		}
	}

	cfg := qcache.CalibrateConfig{
		Shape:           d.params.Shape,
		KernelSizes:     d.params.KernelSizes,
		PenalizedScan:   d.params.PenalizedScan,
		MonteCarloSteps: d.params.MonteCarloSteps,
		Quantile:        d.params.Quantile,
	}

	var q float64
	var err error
	if d.cache != nil {
		var warning error
		q, _, warning, err = qcache.CalibrateCached(d.cache, d.cacheKey(), cfg, d.convolver)
		if warning != nil && d.CacheWarning != nil {
			d.CacheWarning(warning)
		}
	} else {
		q, _, err = qcache.Calibrate(cfg, d.convolver)
	}
	if err != nil {
		return wrap(err)
	}

	for i := range constraints {
		constraints[i].Q = q + constraints[i].ShiftQ
	}

	d.constraints = constraints
	d.totalNorm = totalNorm
	return nil
}

// emitDebug is called from the per-constraint worker goroutines as well as
// the sequential state machine, so the hook invocation itself is
// serialised (original_source/src/chambolle_pock_cpu.h guards its own
// debug() with `#pragma omp critical`).
func (d *Driver) emitDebug(name string, img array.Real) {
	if d.Debug == nil && d.Stats == nil {
		return
	}
	d.debugMu.Lock()
	defer d.debugMu.Unlock()
	if d.Debug != nil {
		d.Debug(DebugFrame{Name: name, Image: img.Clone()})
	}
	if d.Stats != nil {
		d.Stats(name, imgstats.Calculate(img))
	}
}

// Run executes a single state machine run: init, iterate, finalise. The dual variables y_i are reset to zero at the start of every
// Run, even across repeated calls on the same Driver.
func (d *Driver) Run(y array.Real) (array.Real, error) {
	if y.H != d.params.Shape.H || y.W != d.params.Shape.W {
		return array.Real{}, invalidParameter("input shape %dx%d does not match driver shape %dx%d",
			y.H, y.W, d.params.Shape.H, d.params.Shape.W)
	}

	if !d.initialized {
		if err := d.updateKernels(); err != nil {
			return array.Real{}, err
		}
		d.initialized = true
	}

	stddev := d.params.InputStddev
	if stddev < 0 {
		stddev = EstimateStddev(y)
	}

	h, w := d.params.Shape.H, d.params.Shape.W
	x := y.Clone()
	barX := y.Clone()
	for i := range d.constraints {
		d.constraints[i].Y.Zero()
	}

	d.emitDebug("x_in", x)

	tau := d.params.Tau
	sigma := d.params.Sigma
	sigma /= tau * d.totalNorm

	out := array.New(h, w)

	for n := 0; n < d.params.MaxSteps; n++ {
		accum := array.New(h, w)

		fBarX, err := d.convolver.PrepareImage(barX)
		if err != nil {
			return array.Real{}, wrap(err)
		}

		results := make([]array.Real, len(d.constraints))
		errs := make([]error, len(d.constraints))
		var wg sync.WaitGroup
		for i := range d.constraints {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c := &d.constraints[i]

				convolved := array.New(h, w)
				if err := d.convolver.Conv(fBarX, c.Forward, convolved); err != nil {
					errs[i] = err
					return
				}
				d.emitDebug(fmt.Sprintf("convolved_%d", i), convolved)

				array.ScaleInPlace(convolved, sigma)
				array.AddInPlace(c.Y, convolved)
				threshold := c.Q * sigma * stddev
				for k := range c.Y.Data {
					c.Y.Data[k] = softShrink(c.Y.Data[k], threshold)
				}
				d.emitDebug(fmt.Sprintf("y_%d", i), c.Y)

				fY, err := d.convolver.PrepareImage(c.Y)
				if err != nil {
					errs[i] = err
					return
				}

				adjConvolved := array.New(h, w)
				if err := d.convolver.Conv(fY, c.Adjoint, adjConvolved); err != nil {
					errs[i] = err
					return
				}
				d.emitDebug(fmt.Sprintf("adj_convolved_%d", i), adjConvolved)

				results[i] = adjConvolved
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return array.Real{}, wrap(err)
			}
		}
		for _, r := range results {
			array.AddInPlace(accum, r)
		}

		xPrev := x.Clone()
		array.ScaleInPlace(accum, tau)
		barXTmp := array.New(h, w)
		array.Sub(barXTmp, x, y)
		array.Sub(barXTmp, barXTmp, accum)
		d.emitDebug("resolv_in", barXTmp)

		resolved, err := d.resolv.Evaluate(tau, barXTmp)
		if err != nil {
			return array.Real{}, wrap(err)
		}
		x = array.New(h, w)
		array.Add(x, resolved, y)
		d.emitDebug("resolv_out", x)

		theta := 1 / math.Sqrt(1+2*tau*d.resolv.Gamma())
		tau *= theta
		sigma /= theta

		diff := array.New(h, w)
		array.Sub(diff, x, xPrev)

		scaledDiff := array.New(h, w)
		array.Scale(scaledDiff, diff, theta)
		array.Add(barX, x, scaledDiff)
		d.emitDebug("bar_x", barX)

		array.Sub(out, y, x)

		if d.Progress != nil {
			d.Progress(n, d.params.MaxSteps, fmt.Sprintf("Chambolle-Pock step %d", n))
		}
		if d.Current != nil && !d.Current(out, n) {
			break
		}

		if n > 1 && d.params.Tolerance > 0 {
			change := array.L1Norm(x) / array.L1Norm(diff)
			if change >= d.params.Tolerance {
				break
			}
		}
	}

	return out, nil
}
