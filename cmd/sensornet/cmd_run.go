package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/sensornet/internal/config"
	"github.com/nvandessel/sensornet/internal/fusion"
	"github.com/nvandessel/sensornet/internal/logging"
	"github.com/nvandessel/sensornet/internal/network"
	"github.com/nvandessel/sensornet/internal/noise"
	"github.com/nvandessel/sensornet/internal/simulation"
	"github.com/nvandessel/sensornet/internal/store"
	"github.com/nvandessel/sensornet/internal/target"
)

// runSummary is the shape printed after a completed run.
type runSummary struct {
	Policy     string  `json:"policy"`
	Nodes      int     `json:"nodes"`
	Seed       int64   `json:"seed"`
	Iterations int     `json:"iterations"`
	FinalMean  float64 `json:"final_mean"`
	FinalTruth float64 `json:"final_truth"`
	RunID      int64   `json:"run_id,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [policy]",
		Short: "Run a consensus simulation",
		Long: `Place sensors at random, verify connectivity, and run the fusion loop
against an orbiting target for the configured number of steps.

The optional positional argument selects the fusion policy; it defaults
to the configured one (MaxDegree out of the box).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applySimFlags(cmd, cfg)
			if len(args) == 1 {
				cfg.Simulation.Policy = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			policy, err := fusion.ParsePolicy(cfg.Simulation.Policy)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			var trace *logging.TraceLogger
			if cfg.Logging.Dir != "" {
				trace = logging.NewTraceLogger(cfg.Logging.Dir, cfg.Logging.Level)
				defer trace.Close()
			}

			driver, err := simulation.Build(simParams(cfg, policy),
				target.DefaultOrbit(), noise.NewSource(cfg.Simulation.Seed), logger, trace)
			if err != nil {
				return err
			}

			series, err := driver.Run(cfg.Simulation.Iterations)
			if err != nil {
				return err
			}

			summary := runSummary{
				Policy:     policy.String(),
				Nodes:      cfg.Simulation.Nodes,
				Seed:       cfg.Simulation.Seed,
				Iterations: len(series),
			}
			if len(series) > 0 {
				final := series[len(series)-1]
				summary.FinalMean = final.Mean[0]
				summary.FinalTruth = final.TargetReading[0]
			}

			if cfg.Store.Path != "" {
				id, err := persistRun(cmd.Context(), cfg, series)
				if err != nil {
					return err
				}
				summary.RunID = id
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes, seed %d, %d steps\n",
				summary.Policy, summary.Nodes, summary.Seed, summary.Iterations)
			fmt.Fprintf(cmd.OutOrStdout(), "final mean %.4f (truth %.4f)\n",
				summary.FinalMean, summary.FinalTruth)
			if summary.RunID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "recorded as run %d in %s\n", summary.RunID, cfg.Store.Path)
			}
			return nil
		},
	}

	registerSimFlags(cmd)
	cmd.Flags().Int("iterations", 0, "Number of simulation steps")
	cmd.Flags().String("db", "", "SQLite file to record the run in")
	cmd.Flags().String("trace-dir", "", "Directory for rounds.jsonl trace output")

	return cmd
}

// loadConfig loads the config file named by --config, or the default chain,
// then overlays the --log-level flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// registerSimFlags declares the placement flags shared by run and graph.
func registerSimFlags(cmd *cobra.Command) {
	cmd.Flags().Int("nodes", 0, "Number of sensor nodes")
	cmd.Flags().Float64("region-size", 0, "Side length of the square region")
	cmd.Flags().Float64("radius", -1, "Communication radius (0 = unlimited)")
	cmd.Flags().Float64("alternate-radius", 0, "Second radius, swapped in every ten steps")
	cmd.Flags().Int("max-neighbors", -1, "Neighbor cap per node (0 = uncapped)")
	cmd.Flags().Int64("seed", 0, "Random seed")
}

// applySimFlags overlays explicitly set flags onto the loaded config.
func applySimFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("nodes") {
		cfg.Simulation.Nodes, _ = cmd.Flags().GetInt("nodes")
	}
	if cmd.Flags().Changed("region-size") {
		cfg.Simulation.RegionSize, _ = cmd.Flags().GetFloat64("region-size")
	}
	if cmd.Flags().Changed("radius") {
		cfg.Simulation.Radius, _ = cmd.Flags().GetFloat64("radius")
	}
	if cmd.Flags().Changed("alternate-radius") {
		cfg.Simulation.AlternateRadius, _ = cmd.Flags().GetFloat64("alternate-radius")
	}
	if cmd.Flags().Changed("max-neighbors") {
		cfg.Simulation.MaxNeighbors, _ = cmd.Flags().GetInt("max-neighbors")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Simulation.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("db") {
		cfg.Store.Path, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("trace-dir") {
		cfg.Logging.Dir, _ = cmd.Flags().GetString("trace-dir")
	}
}

// simParams translates config into simulation parameters.
func simParams(cfg *config.Config, policy fusion.Policy) simulation.Params {
	return simulation.Params{
		Nodes:           cfg.Simulation.Nodes,
		RegionSize:      cfg.Simulation.RegionSize,
		Radius:          cfg.Simulation.Radius,
		AlternateRadius: cfg.Simulation.AlternateRadius,
		MaxNeighbors:    cfg.Simulation.MaxNeighbors,
		Policy:          policy,
		NodeParams: network.NodeParams{
			NoiseCoeff:   cfg.Sensing.NoiseCoeff,
			SensingRange: cfg.Sensing.SensingRange,
		},
		BuildAttempts: cfg.Simulation.BuildAttempts,
	}
}

// persistRun records the finished series in the run store.
func persistRun(ctx context.Context, cfg *config.Config, series []simulation.Record) (int64, error) {
	rs, err := store.NewRunStore(cfg.Store.Path)
	if err != nil {
		return 0, fmt.Errorf("open run store: %w", err)
	}
	defer rs.Close()

	id, err := rs.CreateRun(ctx, store.RunMeta{
		Policy:          cfg.Simulation.Policy,
		Nodes:           cfg.Simulation.Nodes,
		RegionSize:      cfg.Simulation.RegionSize,
		Radius:          cfg.Simulation.Radius,
		AlternateRadius: cfg.Simulation.AlternateRadius,
		MaxNeighbors:    cfg.Simulation.MaxNeighbors,
		Seed:            cfg.Simulation.Seed,
		Iterations:      len(series),
	})
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	if err := rs.AppendSamples(ctx, id, series); err != nil {
		return 0, fmt.Errorf("append samples: %w", err)
	}
	return id, nil
}
