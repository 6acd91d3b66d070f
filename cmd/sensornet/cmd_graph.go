package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/sensornet/internal/fusion"
	"github.com/nvandessel/sensornet/internal/noise"
	"github.com/nvandessel/sensornet/internal/simulation"
	"github.com/nvandessel/sensornet/internal/target"
	"github.com/nvandessel/sensornet/internal/visualization"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Visualize the network topology",
		Long: `Build a connected network for the configured parameters and output its
topology in DOT (Graphviz) or JSON format without running the simulation.

The same seed always yields the same placement, so the rendered graph
matches what a run with identical parameters would use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applySimFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			policy, err := fusion.ParsePolicy(cfg.Simulation.Policy)
			if err != nil {
				return err
			}

			driver, err := simulation.Build(simParams(cfg, policy),
				target.DefaultOrbit(), noise.NewSource(cfg.Simulation.Seed), nil, nil)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			switch visualization.Format(format) {
			case visualization.FormatDOT:
				dot, err := visualization.RenderDOT(driver.Network())
				if err != nil {
					return fmt.Errorf("render DOT: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), dot)

			case visualization.FormatJSON:
				result, err := visualization.RenderJSON(driver.Network())
				if err != nil {
					return fmt.Errorf("render JSON: %w", err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}

			default:
				return fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
			}
			return nil
		},
	}

	registerSimFlags(cmd)
	cmd.Flags().String("format", "dot", "Output format: dot or json")

	return cmd
}
