package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"goalchase/internal/config"
	"goalchase/internal/storage"
	"goalchase/pkg/goalchase"
)

type globalOptions struct {
	logLevel      string
	store         string
	dbPath        string
	benchmarksDir string
	exportsDir    string
}

func rootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "goalchasectl",
		Short:         "Evaluate agents in the goal chase grid world",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error|disabled")
	cmd.PersistentFlags().StringVar(&opts.store, "store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db-path", config.DefaultDBPath, "sqlite database path")
	cmd.PersistentFlags().StringVar(&opts.benchmarksDir, "benchmarks-dir", "benchmarks", "directory holding run artifacts")
	cmd.PersistentFlags().StringVar(&opts.exportsDir, "exports-dir", "exports", "directory receiving exported runs")

	cmd.AddCommand(
		initCommand(opts),
		runCommand(opts),
		evaluateCommand(opts),
		watchCommand(opts),
		runsCommand(opts),
		fitnessCommand(opts),
		exportCommand(opts),
	)
	return cmd
}

func (o *globalOptions) logger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func (o *globalOptions) client(storeKind, dbPath string) (*goalchase.Client, zerolog.Logger, error) {
	logger, err := o.logger()
	if err != nil {
		return nil, logger, err
	}
	client, err := goalchase.New(goalchase.Options{
		StoreKind:     storeKind,
		DBPath:        dbPath,
		BenchmarksDir: o.benchmarksDir,
		ExportsDir:    o.exportsDir,
		Logger:        logger,
	})
	return client, logger, err
}

func initCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the run store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.client(opts.store, opts.dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()
			if err := client.Init(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized store=%s\n", opts.store)
			return nil
		},
	}
}
