package qcache

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/conv"
	"gonum.org/v1/gonum/stat"
)

// DefaultQuantile is the high quantile used to derive q from the
// per-sample maxima: the 90th percentile. Any deterministic high-quantile
// rule would do here; this one just needs to be stable and documented.
const DefaultQuantile = 0.9

// MonteCarloError reports a hard failure in the calibration loop itself
// (a convolution backend failing mid-simulation), as opposed to a cache
// I/O problem. It aborts the run.
type MonteCarloError struct {
	Op  string
	Err error
}

func (e *MonteCarloError) Error() string {
	return fmt.Sprintf("qcache: monte carlo error during %s: %v", e.Op, e.Err)
}

func (e *MonteCarloError) Unwrap() error { return e.Err }

// CalibrateConfig parameterises one Monte Carlo calibration run.
type CalibrateConfig struct {
	Shape           array.Shape
	KernelSizes     []int
	PenalizedScan   bool
	MonteCarloSteps int
	// Quantile is the high quantile applied to the per-sample maxima; zero
	// means DefaultQuantile.
	Quantile float64
}

func (cfg CalibrateConfig) quantile() float64 {
	if cfg.Quantile == 0 {
		return DefaultQuantile
	}
	return cfg.Quantile
}

// Shifts returns the per-constraint shift s_i: sqrt(log(H*W/h_i^2)) when
// PenalizedScan is set, else 0.
func (cfg CalibrateConfig) Shifts() []float64 {
	shifts := make([]float64, len(cfg.KernelSizes))
	if cfg.PenalizedScan {
		area := float64(cfg.Shape.H * cfg.Shape.W)
		for i, h := range cfg.KernelSizes {
			shifts[i] = math.Sqrt(math.Log(area / float64(h*h)))
		}
	}
	return shifts
}

// Calibrate draws MonteCarloSteps standard-normal images, convolves each
// with every constraint's forward kernel, reduces to the per-constraint
// supremum, and derives q as the configured quantile of the per-sample
// maxima. Sampling is parallel over m, bounded by runtime.GOMAXPROCS(0).
func Calibrate(cfg CalibrateConfig, convolver conv.Convolver) (float64, Entry, error) {
	m := cfg.MonteCarloSteps
	if m < 1 {
		return 0, Entry{}, &MonteCarloError{Op: "calibrate", Err: fmt.Errorf("monte_carlo_steps must be >= 1, got %d", m)}
	}
	if len(cfg.KernelSizes) == 0 {
		return 0, Entry{}, &MonteCarloError{Op: "calibrate", Err: fmt.Errorf("kernel_sizes must be non-empty")}
	}

	shifts := cfg.Shifts()

	kernels := make([]conv.PreparedKernel, len(cfg.KernelSizes))
	for i, h := range cfg.KernelSizes {
		pk, err := convolver.PrepareKernel(h, false)
		if err != nil {
			return 0, Entry{}, &MonteCarloError{Op: "prepare kernel", Err: err}
		}
		kernels[i] = pk
	}

	samples := make([][]float64, len(cfg.KernelSizes))
	for i := range samples {
		samples[i] = make([]float64, m)
	}
	perSampleMax := make([]float64, m)

	baseSeed, err := randomBaseSeed()
	if err != nil {
		return 0, Entry{}, &MonteCarloError{Op: "seed", Err: err}
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > m {
		workers = m
	}

	jobs := make(chan int, m)
	for i := 0; i < m; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(baseSeed, uint64(workerID)))

			for sampleIdx := range jobs {
				img := array.New(cfg.Shape.H, cfg.Shape.W)
				for i := range img.Data {
					img.Data[i] = rng.NormFloat64()
				}

				pi, err := convolver.PrepareImage(img)
				if err != nil {
					errs[workerID] = err
					return
				}

				out := array.New(cfg.Shape.H, cfg.Shape.W)
				maxC := math.Inf(-1)
				for i, pk := range kernels {
					if err := convolver.Conv(pi, pk, out); err != nil {
						errs[workerID] = err
						return
					}
					c := array.MaxAbs(out) - shifts[i]
					samples[i][sampleIdx] = c
					if c > maxC {
						maxC = c
					}
				}
				perSampleMax[sampleIdx] = maxC
			}
		}(w)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return 0, Entry{}, &MonteCarloError{Op: "sample", Err: e}
		}
	}

	entry := Entry{Samples: samples}
	return QuantileOf(entry, cfg.quantile()), entry, nil
}

// QuantileOf recomputes q from a (possibly cache-loaded) Entry at an
// arbitrary quantile, without re-running the simulation: the per-sample
// maximum across constraints is reduced from Entry.Samples, then the
// requested empirical quantile is taken. This is what lets a cached
// Entry's q be recomputed under an alternative quantile policy.
func QuantileOf(entry Entry, quantile float64) float64 {
	if len(entry.Samples) == 0 {
		return 0
	}
	perSampleMax := append([]float64(nil), entry.Samples[0]...)
	for i := 1; i < len(entry.Samples); i++ {
		for m, v := range entry.Samples[i] {
			if v > perSampleMax[m] {
				perSampleMax[m] = v
			}
		}
	}
	sort.Float64s(perSampleMax)
	return stat.Quantile(quantile, stat.Empirical, perSampleMax, nil)
}

// randomBaseSeed draws a cryptographically random 64-bit seed to derive
// per-worker generators from, so repeated calibration runs are not
// accidentally correlated across processes.
func randomBaseSeed() (uint64, error) {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// CalibrateCached looks up key in store before falling back to a fresh
// Calibrate. A cache I/O failure is soft: it is returned as cacheWarning
// alongside a freshly computed result, never as err. A
// successful fresh calibration is persisted back to store; a save failure
// is likewise reported only as cacheWarning.
func CalibrateCached(store *Store, key Key, cfg CalibrateConfig, convolver conv.Convolver) (q float64, entry Entry, cacheWarning error, err error) {
	if entry, found, loadErr := store.Load(key); loadErr != nil {
		cacheWarning = loadErr
	} else if found {
		return QuantileOf(entry, cfg.quantile()), entry, nil, nil
	}

	q, entry, err = Calibrate(cfg, convolver)
	if err != nil {
		return 0, Entry{}, cacheWarning, err
	}

	if saveErr := store.Save(key, entry); saveErr != nil {
		if cacheWarning == nil {
			cacheWarning = saveErr
		}
	}

	return q, entry, cacheWarning, nil
}
