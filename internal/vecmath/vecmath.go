// Package vecmath provides small fixed-dimension vector operations used by
// the simulator: positions are 2-vectors, sensor readings are 1-vectors.
package vecmath

import "math"

// Vec is a fixed-dimension real vector.
type Vec []float64

// Clone returns an independent copy of v.
func (v Vec) Clone() Vec {
	out := make(Vec, len(v))
	copy(out, v)
	return out
}

// Add returns v + w. Vectors of different dimensions return nil.
func (v Vec) Add(w Vec) Vec {
	if len(v) != len(w) {
		return nil
	}
	out := make(Vec, len(v))
	for i := range v {
		out[i] = v[i] + w[i]
	}
	return out
}

// Sub returns v - w. Vectors of different dimensions return nil.
func (v Vec) Sub(w Vec) Vec {
	if len(v) != len(w) {
		return nil
	}
	out := make(Vec, len(v))
	for i := range v {
		out[i] = v[i] - w[i]
	}
	return out
}

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec {
	out := make(Vec, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// AddScaled accumulates s*w into v in place and returns v.
// Used by fusion to build convex combinations without per-term allocation.
func (v Vec) AddScaled(s float64, w Vec) Vec {
	for i := range v {
		v[i] += s * w[i]
	}
	return v
}

// Norm returns the Euclidean (L2) norm of v.
func (v Vec) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Distance returns the Euclidean distance between v and w.
// Vectors of different dimensions have distance NaN.
func Distance(v, w Vec) float64 {
	if len(v) != len(w) {
		return math.NaN()
	}
	var sum float64
	for i := range v {
		d := v[i] - w[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// SquaredDistance returns the squared Euclidean distance between v and w.
func SquaredDistance(v, w Vec) float64 {
	if len(v) != len(w) {
		return math.NaN()
	}
	var sum float64
	for i := range v {
		d := v[i] - w[i]
		sum += d * d
	}
	return sum
}

// Mean returns the component-wise mean of vecs, or nil for an empty input.
func Mean(vecs []Vec) Vec {
	if len(vecs) == 0 {
		return nil
	}
	out := make(Vec, len(vecs[0]))
	for _, v := range vecs {
		for i := range out {
			out[i] += v[i]
		}
	}
	return out.Scale(1.0 / float64(len(vecs)))
}

// Zero returns the zero vector of dimension dim.
func Zero(dim int) Vec {
	return make(Vec, dim)
}
