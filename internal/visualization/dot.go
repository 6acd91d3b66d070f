// Package visualization renders network topologies in various output formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/sensornet/internal/network"
)

// Format specifies the output format for topology rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// degreeColor picks a fill color from a node's degree so that dense regions
// stand out in the rendered graph.
func degreeColor(degree int) string {
	switch {
	case degree == 0:
		return "tomato"
	case degree <= 2:
		return "lightgray"
	case degree <= 4:
		return "steelblue"
	default:
		return "mediumseagreen"
	}
}

// RenderDOT produces a Graphviz DOT representation of the network topology.
// Node positions are pinned so that neato reproduces the actual geometry.
func RenderDOT(net *network.Network) (string, error) {
	edges := net.BuildGraph()

	var b strings.Builder
	b.WriteString("graph sensornet {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=10];\n")
	b.WriteString("  edge [color=gray50];\n\n")

	for _, id := range net.NodeIDs() {
		nd, err := net.Node(id)
		if err != nil {
			return "", fmt.Errorf("node %s: %w", id, err)
		}
		pos := nd.Position()
		degree, err := net.NodeDegree(id)
		if err != nil {
			return "", fmt.Errorf("degree of %s: %w", id, err)
		}
		b.WriteString(fmt.Sprintf("  %q [pos=\"%.3f,%.3f!\", fillcolor=%q, tooltip=\"degree=%d\"];\n",
			id, pos[0], pos[1], degreeColor(degree), degree))
	}
	b.WriteString("\n")

	for _, e := range edges {
		b.WriteString(fmt.Sprintf("  %q -- %q;\n", e.A, e.B))
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// RenderJSON produces a JSON graph representation with nodes and edges arrays.
func RenderJSON(net *network.Network) (map[string]interface{}, error) {
	edges := net.BuildGraph()

	ids := net.NodeIDs()
	jsonNodes := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		nd, err := net.Node(id)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		degree, err := net.NodeDegree(id)
		if err != nil {
			return nil, fmt.Errorf("degree of %s: %w", id, err)
		}
		pos := nd.Position()
		jsonNodes = append(jsonNodes, map[string]interface{}{
			"id":     id,
			"x":      pos[0],
			"y":      pos[1],
			"degree": degree,
			"policy": nd.Policy().String(),
		})
	}

	jsonEdges := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		jsonEdges = append(jsonEdges, map[string]interface{}{
			"source": e.A,
			"target": e.B,
		})
	}

	return map[string]interface{}{
		"nodes":      jsonNodes,
		"edges":      jsonEdges,
		"node_count": len(jsonNodes),
		"edge_count": len(jsonEdges),
		"connected":  net.Connected(false),
	}, nil
}
