package network

import (
	"math"

	"github.com/nvandessel/sensornet/internal/fusion"
	"github.com/nvandessel/sensornet/internal/noise"
	"github.com/nvandessel/sensornet/internal/topology"
	"github.com/nvandessel/sensornet/internal/vecmath"
)

// Default per-node sensing constants.
const (
	DefaultNoiseCoeff   = 0.01
	DefaultSensingRange = 1.6
)

// NodeParams tunes a node's sensing model. Zero values take the defaults.
type NodeParams struct {
	// NoiseCoeff is the per-node standard-deviation scaling constant.
	NoiseCoeff float64

	// SensingRange is the optimal sensing range constant.
	SensingRange float64
}

// Node is one sensor: a fixed position, a fusion policy, and two reading
// slots. The stable reading is what peers observe; the unstable reading is
// the value being computed this round, invisible until Commit. Nodes hold no
// back-reference to their network; every operation that needs network state
// takes it as an explicit argument.
type Node struct {
	id           string
	position     vecmath.Vec
	noiseCoeff   float64
	sensingRange float64
	policy       fusion.Policy

	// Per-round caches, replaced by collectNeighborReadings.
	neighbors        []string
	neighborReadings map[string]vecmath.Vec
	neighborDegrees  map[string]int

	stable   vecmath.Vec
	unstable vecmath.Vec
}

// NewNode creates a node at the given immutable position. The initial stable
// and unstable readings are both zero vectors of the given reading dimension
// until the first round senses and commits.
func NewNode(id string, position vecmath.Vec, readingDim int, policy fusion.Policy, params NodeParams) *Node {
	if params.NoiseCoeff == 0 {
		params.NoiseCoeff = DefaultNoiseCoeff
	}
	if params.SensingRange == 0 {
		params.SensingRange = DefaultSensingRange
	}
	return &Node{
		id:           id,
		position:     position.Clone(),
		noiseCoeff:   params.NoiseCoeff,
		sensingRange: params.SensingRange,
		policy:       policy,
		stable:       vecmath.Zero(readingDim),
		unstable:     vecmath.Zero(readingDim),
	}
}

// ID returns the node's identity.
func (nd *Node) ID() string { return nd.id }

// Position returns a copy of the node's fixed position.
func (nd *Node) Position() vecmath.Vec { return nd.position.Clone() }

// Policy returns the node's fusion policy.
func (nd *Node) Policy() fusion.Policy { return nd.policy }

// StableReading returns a copy of the committed reading visible to peers.
func (nd *Node) StableReading() vecmath.Vec { return nd.stable.Clone() }

// Degree returns the size of the neighbor set from the last topology
// recomputation for this node.
func (nd *Node) Degree() int { return len(nd.neighbors) }

// Neighbors returns the cached neighbor identities, closest first.
func (nd *Node) Neighbors() []string {
	out := make([]string, len(nd.neighbors))
	copy(out, nd.neighbors)
	return out
}

// SetStableReading overwrites both reading slots. Used to seed the initial
// noisy estimate at construction time.
func (nd *Node) SetStableReading(r vecmath.Vec) {
	nd.stable = r.Clone()
	nd.unstable = r.Clone()
}

// sense draws one noise term per reading component from a normal
// distribution whose standard deviation grows with the node's distance from
// the network centroid:
//
//	stddev = sqrt((dist² + noiseCoeff) / sensingRange²)
//
// and adds it to the true target reading. Each call consumes draws from the
// shared source in component order, so runs are reproducible under a fixed
// seed and fixed call order.
func (nd *Node) sense(net *Network, truth vecmath.Vec, src *noise.Source) vecmath.Vec {
	stddev := math.Sqrt(nd.sensingVariance(net))
	out := make(vecmath.Vec, len(truth))
	for i, v := range truth {
		out[i] = v + src.Normal(0, stddev)
	}
	return out
}

// sensingVariance is the node's noise variance proxy,
// (dist² + noiseCoeff)/sensingRange², shared by sense and WeightDesign2.
func (nd *Node) sensingVariance(net *Network) float64 {
	distSq := vecmath.SquaredDistance(nd.position, net.averagePosition())
	return (distSq + nd.noiseCoeff) / (nd.sensingRange * nd.sensingRange)
}

// refreshNeighbors recomputes the neighbor set under the network's current
// communication radius, replacing the cached set. The cache is only valid
// for the current round because the radius may change between rounds.
func (nd *Node) refreshNeighbors(net *Network) {
	nd.neighbors = topology.NeighborsOf(nd.id, net.positions, net.order, net.topo)
}

// collectNeighborReadings refreshes the neighbor set, then snapshots each
// neighbor's stable reading and current degree. Only stable readings are
// observed, never a peer's in-progress unstable value.
func (nd *Node) collectNeighborReadings(net *Network) {
	nd.refreshNeighbors(net)
	nd.neighborReadings = make(map[string]vecmath.Vec, len(nd.neighbors))
	nd.neighborDegrees = make(map[string]int, len(nd.neighbors))
	for _, id := range nd.neighbors {
		peer := net.nodes[id]
		nd.neighborReadings[id] = peer.stable.Clone()
		nd.neighborDegrees[id] = len(topology.NeighborsOf(id, net.positions, net.order, net.topo))
	}
}

// Compute runs the compute phase for this node: collect the neighbor
// snapshot, sense the target, and fuse under the node's policy. The result
// lands in the unstable slot and is returned; the stable slot is untouched
// until Commit.
func (nd *Node) Compute(net *Network, truth vecmath.Vec, src *noise.Source) vecmath.Vec {
	nd.collectNeighborReadings(net)
	sensed := nd.sense(net, truth, src)

	in := fusion.Inputs{
		NetworkSize:     net.Size(),
		NeighborDegrees: nd.neighborDegrees,
		NoiseCoeff:      nd.noiseCoeff,
		SensingRange:    nd.sensingRange,
		CentroidDistSq:  vecmath.SquaredDistance(nd.position, net.averagePosition()),
	}
	selfWeight, weights := nd.policy.Weights(nd.neighbors, in)
	nd.unstable = fusion.Fuse(sensed, nd.neighborReadings, selfWeight, weights)
	return nd.unstable.Clone()
}

// Commit runs the commit phase: the unstable reading becomes stable. No
// other field changes.
func (nd *Node) Commit() {
	nd.stable = nd.unstable.Clone()
}
