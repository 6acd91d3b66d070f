// Package fusion implements the weighted-fusion policies a node uses to
// combine its own sensor reading with its neighbors' readings. Exactly four
// policies exist, so they form a closed tagged set rather than an open
// registry; each produces weights that sum to 1 over self plus neighbors,
// making the fused reading a convex combination.
package fusion

import (
	"errors"
	"fmt"

	"github.com/nvandessel/sensornet/internal/vecmath"
)

// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
var ErrUnknownPolicy = errors.New("unknown fusion policy")

// designFactor is the fixed design fraction used by the WeightDesign
// policies.
const designFactor = 0.5

// Policy identifies one of the four fusion weighting rules.
type Policy int

const (
	// MaxDegree assigns uniform mass 1/N per edge, scaled by network size.
	MaxDegree Policy = iota
	// Metropolis uses the classic doubly-stochastic 1/(1+max(di,dj)) rule.
	Metropolis
	// WeightDesign1 spreads a fixed fraction of a noise/range ratio evenly
	// over neighbors.
	WeightDesign1
	// WeightDesign2 derives the self weight from a per-node variance proxy
	// rather than degree alone.
	WeightDesign2
)

var policyNames = map[Policy]string{
	MaxDegree:     "MaxDegree",
	Metropolis:    "Metropolis",
	WeightDesign1: "WeightDesign1",
	WeightDesign2: "WeightDesign2",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a policy name to its Policy value. Unknown names fail
// fast with ErrUnknownPolicy; there is no silent default.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (valid: MaxDegree, Metropolis, WeightDesign1, WeightDesign2)", ErrUnknownPolicy, name)
}

// PolicyNames returns the recognized policy names in declaration order.
func PolicyNames() []string {
	return []string{"MaxDegree", "Metropolis", "WeightDesign1", "WeightDesign2"}
}

// Inputs carries the topology- and noise-derived quantities a policy needs
// to weight one fusion step.
type Inputs struct {
	// NetworkSize is the total number of nodes in the network.
	NetworkSize int

	// NeighborDegrees maps each neighbor's identity to its current degree.
	// Only Metropolis consults it.
	NeighborDegrees map[string]int

	// NoiseCoeff is the node's reading-noise coefficient.
	NoiseCoeff float64

	// SensingRange is the node's optimal sensing range constant.
	SensingRange float64

	// CentroidDistSq is the squared distance from the node's position to
	// the network's average position. Only WeightDesign2 consults it.
	CentroidDistSq float64
}

// Weights computes the self weight and per-neighbor weights for the policy.
// The neighbor slice fixes which nodes participate; its length is the node's
// degree. An isolated node (no neighbors) fuses trivially: self weight 1 and
// no neighbor terms, for every policy.
func (p Policy) Weights(neighbors []string, in Inputs) (float64, map[string]float64) {
	degree := len(neighbors)
	if degree == 0 {
		return 1.0, map[string]float64{}
	}

	weights := make(map[string]float64, degree)

	switch p {
	case MaxDegree:
		w := 1.0 / float64(in.NetworkSize)
		for _, id := range neighbors {
			weights[id] = w
		}
		return 1.0 - float64(degree)/float64(in.NetworkSize), weights

	case Metropolis:
		var sum float64
		for _, id := range neighbors {
			d := in.NeighborDegrees[id]
			if degree > d {
				d = degree
			}
			w := 1.0 / (1.0 + float64(d))
			weights[id] = w
			sum += w
		}
		return 1.0 - sum, weights

	case WeightDesign1:
		rangeSq := in.SensingRange * in.SensingRange
		w := (designFactor * 2.0 * in.NoiseCoeff) / (rangeSq * float64(degree))
		for _, id := range neighbors {
			weights[id] = w
		}
		return 1.0 - w*float64(degree), weights

	case WeightDesign2:
		rangeSq := in.SensingRange * in.SensingRange
		variance := (in.CentroidDistSq + in.NoiseCoeff) / rangeSq
		self := ((designFactor * in.NoiseCoeff) / rangeSq) / variance
		w := (1.0 - self) / float64(degree)
		for _, id := range neighbors {
			weights[id] = w
		}
		return self, weights
	}

	// Unreachable for the closed set; a corrupted Policy value fuses as
	// self-only so the round still produces a proper convex combination.
	return 1.0, map[string]float64{}
}

// Fuse builds the convex combination selfWeight*own + sum(weights[i]*readings[i]).
func Fuse(own vecmath.Vec, readings map[string]vecmath.Vec, selfWeight float64, weights map[string]float64) vecmath.Vec {
	out := vecmath.Zero(len(own))
	out.AddScaled(selfWeight, own)
	for id, w := range weights {
		if r, ok := readings[id]; ok {
			out.AddScaled(w, r)
		}
	}
	return out
}
