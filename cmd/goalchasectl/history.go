package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"goalchase/pkg/goalchase"
)

func runsCommand(opts *globalOptions) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.client(opts.store, opts.dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			items, err := client.Runs(cmd.Context(), goalchase.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs")
				return nil
			}
			for _, item := range items {
				created := item.CreatedAtUTC
				if ts, err := time.Parse(time.RFC3339Nano, item.CreatedAtUTC); err == nil {
					created = humanize.Time(ts)
				}
				fmt.Fprintf(out, "run_id=%s scape=%s generations=%s best=%.6f created=%s\n",
					item.RunID, item.Scape, humanize.Comma(int64(item.Generations)), item.FinalBestFitness, created)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs as JSON")
	return cmd
}

func fitnessCommand(opts *globalOptions) *cobra.Command {
	var (
		runID   string
		latest  bool
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Print the best fitness of every generation of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.client(opts.store, opts.dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			history, err := client.FitnessHistory(cmd.Context(), goalchase.FitnessHistoryRequest{
				RunID:  runID,
				Latest: latest,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, history)
			}
			for i, best := range history {
				fmt.Fprintf(out, "generation=%d best=%.6f\n", i, best)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id to read")
	cmd.Flags().BoolVar(&latest, "latest", false, "read the newest run")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum generations to print (0 prints all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit history as JSON")
	return cmd
}

func exportCommand(opts *globalOptions) *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts into the exports directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.client(opts.store, opts.dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summary, err := client.Export(cmd.Context(), goalchase.ExportRequest{
				RunID:  runID,
				Latest: latest,
				OutDir: outDir,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id to export")
	cmd.Flags().BoolVar(&latest, "latest", false, "export the newest run")
	cmd.Flags().StringVar(&outDir, "out", "", "destination directory (default: --exports-dir)")
	return cmd
}
