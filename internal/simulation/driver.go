// Package simulation drives the consensus network through time: it places
// nodes, retries construction until the proximity graph is connected, then
// steps the target signal and the round protocol together while recording a
// time series of observables.
package simulation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nvandessel/sensornet/internal/fusion"
	"github.com/nvandessel/sensornet/internal/logging"
	"github.com/nvandessel/sensornet/internal/network"
	"github.com/nvandessel/sensornet/internal/noise"
	"github.com/nvandessel/sensornet/internal/target"
	"github.com/nvandessel/sensornet/internal/topology"
	"github.com/nvandessel/sensornet/internal/vecmath"
)

// ErrNotConnected is returned when no random placement yields a connected
// network within the retry budget.
var ErrNotConnected = errors.New("could not build a connected network")

// DefaultBuildAttempts bounds the build-until-connected retry loop.
const DefaultBuildAttempts = 10

// radiusFlipInterval is the dynamic-topology cadence: the communication
// radius flips between nominal and alternate every this many steps.
const radiusFlipInterval = 10

// Params configures a simulation run.
type Params struct {
	// Nodes is the number of sensors to place.
	Nodes int

	// RegionSize is the side length of the square placement region.
	RegionSize float64

	// Radius is the nominal communication radius. Zero means unlimited.
	Radius float64

	// AlternateRadius, when non-zero, enables dynamic topology: the radius
	// flips between Radius and AlternateRadius every ten steps.
	AlternateRadius float64

	// MaxNeighbors caps each node's neighbor set. Zero means uncapped.
	MaxNeighbors int

	// Policy is the fusion policy every node uses.
	Policy fusion.Policy

	// NodeParams tunes the per-node sensing model.
	NodeParams network.NodeParams

	// BuildAttempts bounds the connectivity retry loop.
	// Zero means DefaultBuildAttempts.
	BuildAttempts int
}

// Record is one time-series sample: the ground truth alongside the
// network's view of it at that step.
type Record struct {
	Step           int         `json:"step"`
	TargetReading  vecmath.Vec `json:"target_reading"`
	TargetPosition vecmath.Vec `json:"target_position"`
	Mean           vecmath.Vec `json:"mean"`
	Stddev         vecmath.Vec `json:"stddev"`
	MaxNodeReading vecmath.Vec `json:"max_node_reading"`
	MinNodeReading vecmath.Vec `json:"min_node_reading"`
	Radius         float64     `json:"radius"` // 0 = unlimited
}

// Driver owns the network, the target signal, the shared random source, and
// the recorded time series.
type Driver struct {
	params Params
	net    *network.Network
	signal target.Signal
	src    *noise.Source
	logger *slog.Logger
	trace  *logging.TraceLogger

	step         int
	useAlternate bool
	series       []Record
}

// Build constructs a Driver using the build-until-connected protocol: place
// Nodes sensors uniformly at random in the region, accept the placement only
// if every node has at least one neighbor, retry up to the attempt budget.
// Exhausting the budget means the requested radius and density cannot yield
// a connected graph; that is a configuration error, not a downgrade.
func Build(params Params, sig target.Signal, src *noise.Source, logger *slog.Logger, trace *logging.TraceLogger) (*Driver, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	attempts := params.BuildAttempts
	if attempts == 0 {
		attempts = DefaultBuildAttempts
	}

	topo := topology.Config{MaxNeighbors: params.MaxNeighbors}
	if params.Radius > 0 {
		topo.Radius = topology.Radius(params.Radius)
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		net := network.New(topo)
		for i := 0; i < params.Nodes; i++ {
			pos := vecmath.Vec{
				src.Uniform(0, params.RegionSize),
				src.Uniform(0, params.RegionSize),
			}
			id := fmt.Sprintf("node-%02d", i)
			nd := network.NewNode(id, pos, len(sig.ReadingAt(0)), params.Policy, params.NodeParams)
			if err := net.AddNode(nd); err != nil {
				return nil, fmt.Errorf("register %s: %w", id, err)
			}
		}

		if !net.Connected(true) {
			logger.Debug("placement not connected, retrying",
				"attempt", attempt, "nodes", params.Nodes, "radius", params.Radius)
			continue
		}

		net.SeedReadings(sig.ReadingAt(0), src)
		logger.Info("network built",
			"attempt", attempt, "nodes", params.Nodes, "radius", params.Radius, "policy", params.Policy.String())

		return &Driver{
			params: params,
			net:    net,
			signal: sig,
			src:    src,
			logger: logger,
			trace:  trace,
		}, nil
	}

	return nil, fmt.Errorf("%w: %d nodes, radius %v, %d attempts",
		ErrNotConnected, params.Nodes, params.Radius, attempts)
}

// Network exposes the driver's network for graph queries.
func (d *Driver) Network() *network.Network { return d.net }

// Series returns the recorded time series so far.
func (d *Driver) Series() []Record { return d.series }

// Run advances the simulation by the given number of time steps, appending
// one Record per step. In dynamic-topology mode the communication radius
// flip-flops between nominal and alternate every ten steps: nominal for
// steps 0-9, alternate for 10-19, nominal again at 20.
func (d *Driver) Run(iterations int) ([]Record, error) {
	for i := 0; i < iterations; i++ {
		if d.params.AlternateRadius > 0 && d.step > 0 && d.step%radiusFlipInterval == 0 {
			d.useAlternate = !d.useAlternate
			r := d.params.Radius
			if d.useAlternate {
				r = d.params.AlternateRadius
			}
			d.net.SetRadius(topology.Radius(r))
			d.logger.Debug("communication radius flipped", "step", d.step, "radius", r)
		}

		rec, err := d.runStep()
		if err != nil {
			return d.series, fmt.Errorf("step %d: %w", d.step, err)
		}
		d.series = append(d.series, rec)
		d.step++
	}
	return d.series, nil
}

// runStep executes one time step: one network round via AverageReading,
// then one record of the observables.
func (d *Driver) runStep() (Record, error) {
	truth := d.signal.ReadingAt(d.step)

	mean, stddev, err := d.net.AverageReading(truth, d.src)
	if err != nil {
		return Record{}, err
	}

	maxID, minID, err := d.net.ExtremalDegreeNodes()
	if err != nil {
		return Record{}, err
	}
	maxReading, err := d.net.NodeReading(maxID)
	if err != nil {
		return Record{}, err
	}
	minReading, err := d.net.NodeReading(minID)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Step:           d.step,
		TargetReading:  truth,
		TargetPosition: d.signal.PositionAt(d.step),
		Mean:           mean,
		Stddev:         stddev,
		MaxNodeReading: maxReading,
		MinNodeReading: minReading,
		Radius:         d.currentRadius(),
	}

	d.logger.Log(nil, logging.LevelTrace, "round complete",
		"step", rec.Step, "truth", truth[0], "mean", mean[0], "stddev", stddev[0])
	d.trace.Log(map[string]any{
		"step":   rec.Step,
		"truth":  truth[0],
		"mean":   mean[0],
		"stddev": stddev[0],
		"max":    maxID,
		"min":    minID,
		"radius": rec.Radius,
	})

	return rec, nil
}

// currentRadius returns the radius in effect this step, 0 when unlimited.
func (d *Driver) currentRadius() float64 {
	if r := d.net.Radius(); r != nil {
		return *r
	}
	return 0
}
