// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lateral

import (
	"errors"

	"github.com/curioloop/lateralqp/osqp"
)

const (
	zero = 0.0
	two  = 2.0
)

// derivativeCap is the finite stand-in for "unconstrained" on the
// derivative and second-derivative variables. The solver requires finite
// bounds on every variable, so a wide symmetric interval is used instead
// of infinity. The value is tied to the reference weighting scale.
const derivativeCap = 2.0

// Config carries the tunable weights of the lateral QP.
type Config struct {
	// Weight on the squared lateral offset.
	OffsetWeight float64
	// Weight on the squared distance from the corridor midpoint.
	ObstacleWeight float64
	// Weight on the squared first derivative.
	DerivativeWeight float64
	// Weight on the squared second derivative.
	SecondOrderWeight float64
	// Maximum lateral jerk between adjacent stations.
	JerkMax float64
	// Print the solver residual trace.
	Verbose bool
}

// State is the lateral state (d, d', d'') at the first station.
type State struct {
	Offset float64 // lateral offset d
	Prime  float64 // first derivative d'
	PPrime float64 // second derivative d''
}

// Bound is the lateral offset corridor at one station.
type Bound struct {
	Lower, Upper float64
}

// Domain errors reported before any matrix construction.
var (
	// ErrTooFewStations indicates fewer than two bound intervals were supplied.
	ErrTooFewStations = errors.New("lateral: at least two stations are required")

	// ErrBadStepSize indicates a non-positive or NaN longitudinal step.
	ErrBadStepSize = errors.New("lateral: step size must be positive")

	// ErrBadBound indicates a corridor interval with lower > upper.
	ErrBadBound = errors.New("lateral: bound interval has lower > upper")
)

// SolveError reports that the QP solver did not return a solution.
// The wrapped status distinguishes infeasibility from iteration exhaustion.
type SolveError struct {
	Status osqp.Status
}

func (e *SolveError) Error() string {
	return "lateral: solver failed: " + e.Status.String()
}
