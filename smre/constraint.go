package smre

import (
	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/conv"
)

// Constraint is one kernel's worth of driver state: prepared forward and
// adjoint kernels, the dual variable Y, and the calibrated threshold Q
// (= q + ShiftQ).
type Constraint struct {
	KernelSize       int
	Forward, Adjoint conv.PreparedKernel
	Y                array.Real
	ShiftQ           float64
	Q                float64
}

// softShrink is the pointwise soft-shrinkage operator:
// v-q if v>q, v+q if v<-q, else 0.
func softShrink(v, q float64) float64 {
	switch {
	case v > q:
		return v - q
	case v < -q:
		return v + q
	default:
		return 0
	}
}
