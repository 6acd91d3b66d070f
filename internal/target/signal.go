// Package target defines the target-signal provider: the external process
// that every sensor in the network is trying to estimate. The core only
// consumes this interface; the trajectory itself is configuration.
package target

import (
	"math"

	"github.com/nvandessel/sensornet/internal/vecmath"
)

// Signal supplies the ground-truth target state at integer time steps.
type Signal interface {
	// PositionAt returns the target's position at time step t.
	PositionAt(t int) vecmath.Vec
	// ReadingAt returns the true reading of the target at time step t.
	ReadingAt(t int) vecmath.Vec
}

// Constant is a Signal fixed at one position and one reading for all time.
// Deterministic test fixtures use it to remove the target as a variable.
type Constant struct {
	Position vecmath.Vec
	Reading  vecmath.Vec
}

func (c Constant) PositionAt(int) vecmath.Vec { return c.Position.Clone() }
func (c Constant) ReadingAt(int) vecmath.Vec  { return c.Reading.Clone() }

// Orbit is a Signal tracing a circular path around a center point while its
// reading drifts sinusoidally around a base level. It is the default
// trajectory for CLI runs.
type Orbit struct {
	Center      vecmath.Vec // orbit center, dimension 2
	Radius      float64     // orbit radius
	AngularStep float64     // radians advanced per time step
	BaseReading float64     // mean reading level
	Amplitude   float64     // reading drift amplitude
}

// DefaultOrbit returns an Orbit centered in a unit-ish region with a slow
// drift, suitable as the out-of-the-box CLI target.
func DefaultOrbit() Orbit {
	return Orbit{
		Center:      vecmath.Vec{5, 5},
		Radius:      3,
		AngularStep: 0.05,
		BaseReading: 50,
		Amplitude:   5,
	}
}

func (o Orbit) PositionAt(t int) vecmath.Vec {
	theta := o.AngularStep * float64(t)
	return vecmath.Vec{
		o.Center[0] + o.Radius*math.Cos(theta),
		o.Center[1] + o.Radius*math.Sin(theta),
	}
}

func (o Orbit) ReadingAt(t int) vecmath.Vec {
	theta := o.AngularStep * float64(t)
	return vecmath.Vec{o.BaseReading + o.Amplitude*math.Sin(theta)}
}
