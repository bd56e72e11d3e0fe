// Package resolvent implements the two "evaluate (id + tau*dJ)^-1(u)"
// variants the Chambolle-Pock driver needs: a pointwise l2 shrinkage and an
// H1 (discrete-cosine Helmholtz) solve, both ported from
// original_source/src/resolvent.h's resolvent_l2/resolvent_h1.
package resolvent

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-smre/array"
)

// NumericalError reports a non-finite or otherwise degenerate evaluation,
// e.g. the H1 variant's tau*delta == 0 case.
type NumericalError struct {
	Op  string
	Err error
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("resolvent: numerical error in %s: %v", e.Op, e.Err)
}

func (e *NumericalError) Unwrap() error { return e.Err }

var errZeroTauDelta = errors.New("tau*delta must be nonzero")

// Resolvent computes v := (id + tau*dJ)^-1(u) for some convex J, and
// exposes the strong-convexity modulus Gamma the Chambolle-Pock step
// schedule needs.
type Resolvent interface {
	Gamma() float64
	Evaluate(tau float64, u array.Real) (array.Real, error)
}

// L2 implements the resolvent of J(u) = (1/2)||u||^2: the pointwise
// shrinkage v = u/(1+tau). Grounded on resolvent_l2 in
// original_source/src/resolvent.h.
type L2 struct{}

// NewL2 builds the l2 resolvent. It has no setup state.
func NewL2() *L2 { return &L2{} }

// Gamma is 1 for the l2 resolvent.
func (l *L2) Gamma() float64 { return 1 }

// Evaluate computes u/(1+tau) element-wise.
func (l *L2) Evaluate(tau float64, u array.Real) (array.Real, error) {
	out := array.New(u.H, u.W)
	array.Scale(out, u, 1/(1+tau))
	return out, nil
}
