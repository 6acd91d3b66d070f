package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/sensornet/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded simulation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			runs, err := rs.Runs(cmd.Context())
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPOLICY\tNODES\tRADIUS\tSEED\tSTEPS")
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%g\t%d\t%d\n",
					r.ID, r.CreatedAt.Format(time.DateTime), r.Policy,
					r.Nodes, r.Radius, r.Seed, r.Iterations)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("db", "", "SQLite file with recorded runs")

	return cmd
}
