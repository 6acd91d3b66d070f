// Package topology derives neighbor relations from node geometry. Neighbor
// sets are pure functions of positions plus a radius/cap configuration; they
// are recomputed on every query because the communication radius can change
// between rounds.
package topology

import (
	"sort"

	"github.com/nvandessel/sensornet/internal/vecmath"
)

// Config holds the parameters of the proximity graph.
type Config struct {
	// Radius is the maximum distance at which two nodes can communicate.
	// A nil radius means every node can reach every other node.
	Radius *float64

	// MaxNeighbors caps each node's neighbor set, keeping the closest
	// first. Zero means uncapped.
	MaxNeighbors int
}

// Radius is a convenience constructor for a Config radius pointer.
func Radius(r float64) *float64 { return &r }

// Edge is an undirected pair of node identities.
type Edge struct {
	A, B string
}

// NeighborsOf returns the identities of the nodes neighboring id, closest
// first. The order slice fixes iteration order over positions so that
// distance ties resolve to the earlier node, keeping results deterministic
// under a fixed seed. An isolated node yields an empty (non-nil) slice.
func NeighborsOf(id string, positions map[string]vecmath.Vec, order []string, cfg Config) []string {
	own, ok := positions[id]
	if !ok {
		return []string{}
	}

	type candidate struct {
		id   string
		dist float64
	}
	candidates := make([]candidate, 0, len(order))
	for _, other := range order {
		if other == id {
			continue
		}
		pos, ok := positions[other]
		if !ok {
			continue
		}
		d := vecmath.Distance(own, pos)
		if cfg.Radius != nil && d > *cfg.Radius {
			continue
		}
		candidates = append(candidates, candidate{id: other, dist: d})
	}

	// Stable sort preserves source order for equal distances.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	if cfg.MaxNeighbors > 0 && len(candidates) > cfg.MaxNeighbors {
		candidates = candidates[:cfg.MaxNeighbors]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

// EdgeSet builds the deduplicated undirected edge set of the proximity
// graph: {a,b} is an edge when b neighbors a or a neighbors b. Used for
// reporting and visualization only.
func EdgeSet(positions map[string]vecmath.Vec, order []string, cfg Config) []Edge {
	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	seen := make(map[[2]string]bool)
	var edges []Edge
	for _, id := range order {
		for _, nb := range NeighborsOf(id, positions, order, cfg) {
			a, b := id, nb
			if index[b] < index[a] {
				a, b = b, a
			}
			key := [2]string{a, b}
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, Edge{A: a, B: b})
		}
	}
	return edges
}

// Connected reports whether every node has at least one neighbor. It scans
// all nodes and short-circuits on the first isolated one.
func Connected(positions map[string]vecmath.Vec, order []string, cfg Config) bool {
	for _, id := range order {
		if len(NeighborsOf(id, positions, order, cfg)) == 0 {
			return false
		}
	}
	return true
}
