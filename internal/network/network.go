// Package network owns the node registry and the synchronized round
// protocol. A round is two phases: every node computes its next reading from
// peers' stable values, then every node commits. The phase barrier, not any
// lock, is what guarantees that round r observes a single consistent
// snapshot of round r-1.
package network

import (
	"fmt"
	"math"

	"github.com/nvandessel/sensornet/internal/noise"
	"github.com/nvandessel/sensornet/internal/topology"
	"github.com/nvandessel/sensornet/internal/vecmath"
)

// Network is the registry of nodes plus the topology configuration shared by
// their neighbor queries. Registry iteration always follows insertion order,
// which fixes both random-draw order and extremal-degree tie-breaks.
type Network struct {
	nodes     map[string]*Node
	order     []string
	positions map[string]vecmath.Vec
	topo      topology.Config

	avgPos vecmath.Vec // cached; positions are immutable
}

// New creates an empty network with the given topology configuration.
func New(topo topology.Config) *Network {
	return &Network{
		nodes:     make(map[string]*Node),
		positions: make(map[string]vecmath.Vec),
		topo:      topo,
	}
}

// AddNode registers a node. Identities are unique for the network's
// lifetime.
func (n *Network) AddNode(nd *Node) error {
	if _, exists := n.nodes[nd.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, nd.id)
	}
	n.nodes[nd.id] = nd
	n.order = append(n.order, nd.id)
	n.positions[nd.id] = nd.position
	n.avgPos = nil
	return nil
}

// Size returns the number of registered nodes.
func (n *Network) Size() int { return len(n.nodes) }

// NodeIDs returns the node identities in insertion order.
func (n *Network) NodeIDs() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Node returns the node registered under id.
func (n *Network) Node(id string) (*Node, error) {
	nd, ok := n.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return nd, nil
}

// Radius returns the current communication radius, nil meaning unlimited.
func (n *Network) Radius() *float64 { return n.topo.Radius }

// SetRadius changes the communication radius. Callers must only do this
// between rounds; the round protocol assumes the radius is stable within a
// round.
func (n *Network) SetRadius(r *float64) { n.topo.Radius = r }

// Topology returns the network's current topology configuration.
func (n *Network) Topology() topology.Config { return n.topo }

// RunRound executes one synchronized consensus round: the compute phase over
// all nodes, then the commit phase over all nodes. Compute order cannot
// affect the result (each node reads only peers' stable values) but is
// fixed to insertion order so that noise draws are reproducible.
func (n *Network) RunRound(truth vecmath.Vec, src *noise.Source) {
	for _, id := range n.order {
		n.nodes[id].Compute(n, truth, src)
	}
	for _, id := range n.order {
		n.nodes[id].Commit()
	}
}

// SeedReadings initializes every node's stable and unstable readings with
// one noisy sense of the given truth, in insertion order. Called once at
// construction so the consensus starts from a noisy estimate rather than
// zero.
func (n *Network) SeedReadings(truth vecmath.Vec, src *noise.Source) {
	for _, id := range n.order {
		nd := n.nodes[id]
		nd.SetStableReading(nd.sense(n, truth, src))
	}
}

// AverageReading runs one round, then returns the cross-node component-wise
// mean and standard deviation of all stable readings. The round coupling is
// deliberate: the simulation driver advances the network through this query.
func (n *Network) AverageReading(truth vecmath.Vec, src *noise.Source) (mean, stddev vecmath.Vec, err error) {
	if len(n.nodes) == 0 {
		return nil, nil, ErrEmptyNetwork
	}

	n.RunRound(truth, src)

	dim := len(truth)
	mean = vecmath.Zero(dim)
	for _, id := range n.order {
		mean.AddScaled(1, n.nodes[id].stable)
	}
	mean = mean.Scale(1.0 / float64(len(n.order)))

	stddev = vecmath.Zero(dim)
	for _, id := range n.order {
		d := n.nodes[id].stable.Sub(mean)
		for i := range stddev {
			stddev[i] += d[i] * d[i]
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(n.order)))
	}
	return mean, stddev, nil
}

// AveragePosition returns the mean of all node positions.
func (n *Network) AveragePosition() (vecmath.Vec, error) {
	if len(n.nodes) == 0 {
		return nil, ErrEmptyNetwork
	}
	return n.averagePosition().Clone(), nil
}

// averagePosition caches the centroid; positions never change after
// registration.
func (n *Network) averagePosition() vecmath.Vec {
	if n.avgPos == nil {
		vecs := make([]vecmath.Vec, 0, len(n.order))
		for _, id := range n.order {
			vecs = append(vecs, n.positions[id])
		}
		n.avgPos = vecmath.Mean(vecs)
	}
	return n.avgPos
}

// NodeDegree returns the node's degree as of its last topology
// recomputation.
func (n *Network) NodeDegree(id string) (int, error) {
	nd, err := n.Node(id)
	if err != nil {
		return 0, err
	}
	return nd.Degree(), nil
}

// NodeReading returns a copy of the node's stable reading.
func (n *Network) NodeReading(id string) (vecmath.Vec, error) {
	nd, err := n.Node(id)
	if err != nil {
		return nil, err
	}
	return nd.StableReading(), nil
}

// BuildGraph refreshes every node's neighbor set, then unions the (self,
// neighbor) pairs into a deduplicated undirected edge set.
func (n *Network) BuildGraph() []topology.Edge {
	for _, id := range n.order {
		n.nodes[id].refreshNeighbors(n)
	}
	return topology.EdgeSet(n.positions, n.order, n.topo)
}

// Connected reports whether every node has at least one neighbor. With
// refresh, neighbor sets are recomputed first; otherwise the cached sets
// from the last recomputation are scanned.
func (n *Network) Connected(refresh bool) bool {
	for _, id := range n.order {
		nd := n.nodes[id]
		if refresh {
			nd.refreshNeighbors(n)
		}
		if nd.Degree() == 0 {
			return false
		}
	}
	return len(n.nodes) > 0
}

// ExtremalDegreeNodes scans all nodes' cached degrees in insertion order and
// returns the max- and min-degree identities. Comparisons are >= and <=, so
// the last tied node in insertion order wins; insertion order is explicit,
// making the result reproducible.
func (n *Network) ExtremalDegreeNodes() (maxID, minID string, err error) {
	if len(n.nodes) == 0 {
		return "", "", ErrEmptyNetwork
	}
	maxDeg, minDeg := -1, math.MaxInt
	for _, id := range n.order {
		deg := n.nodes[id].Degree()
		if deg >= maxDeg {
			maxDeg, maxID = deg, id
		}
		if deg <= minDeg {
			minDeg, minID = deg, id
		}
	}
	return maxID, minID, nil
}
