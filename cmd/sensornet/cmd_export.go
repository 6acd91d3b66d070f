package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nvandessel/sensornet/internal/store"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a recorded run's time series",
		Long: `Export the per-step samples of a recorded run as JSON Lines or as an
Arrow IPC stream for columnar analysis tools.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("db"); path != "" {
				cfg.Store.Path = path
			}
			if cfg.Store.Path == "" {
				return fmt.Errorf("no run database configured (use --db or store.path)")
			}

			rs, err := store.NewRunStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer rs.Close()

			var out io.Writer = cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "jsonl":
				return rs.ExportJSONL(cmd.Context(), runID, out)
			case "arrow":
				return rs.ExportArrow(cmd.Context(), runID, out)
			default:
				return fmt.Errorf("unsupported format %q (use 'jsonl' or 'arrow')", format)
			}
		},
	}

	cmd.Flags().String("db", "", "SQLite file with recorded runs")
	cmd.Flags().String("format", "jsonl", "Output format: jsonl or arrow")
	cmd.Flags().StringP("output", "o", "", "Output file path (default stdout)")

	return cmd
}
