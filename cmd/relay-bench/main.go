package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/relay/internal/bench"
	"github.com/petrijr/relay/internal/config"
	"github.com/petrijr/relay/pkg/api"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "relay-bench",
		Short: "Exercise relay dispatch pools",
		Long:  "relay-bench builds the configured pools, fires a synthetic burst at chosen workloads and reports how each unit absorbed it.",
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().String("strategy", "", "Profile: default, shared or isolated (overrides config)")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Concurrency units pools are sized from (0 = GOMAXPROCS)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic burst",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			workloads, _ := cmd.Flags().GetStringSlice("workload")
			tasks, _ := cmd.Flags().GetInt("tasks")
			work, _ := cmd.Flags().GetDuration("work")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if cmd.Flags().Changed("snapshot-db") {
				cfg.Snapshot.DB, _ = cmd.Flags().GetString("snapshot-db")
			}
			if cmd.Flags().Changed("snapshot-interval") {
				d, _ := cmd.Flags().GetDuration("snapshot-interval")
				cfg.Snapshot.Interval = d.String()
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
			}

			opts := bench.Options{
				Config:      cfg,
				Workloads:   workloads,
				Tasks:       tasks,
				Work:        work,
				MetricsAddr: metricsAddr,
			}
			if verbose {
				opts.LogOutput = cmd.ErrOrStderr()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := bench.Run(ctx, opts)
			if report.Profile == "" {
				return err
			}
			if perr := report.Print(cmd.OutOrStdout()); perr != nil {
				return perr
			}
			return err
		},
	}
	runCmd.Flags().StringSlice("workload", []string{api.WorkloadRequestMessage, "InnerModuleMessageClientProcessor"}, "Workload identifiers to dispatch (repeatable)")
	runCmd.Flags().Int("tasks", 1000, "Tasks dispatched per workload")
	runCmd.Flags().Duration("work", time.Millisecond, "Time each task sleeps")
	runCmd.Flags().String("snapshot-db", "", "SQLite file for unit snapshots (empty keeps them in memory)")
	runCmd.Flags().Duration("snapshot-interval", 0, "Snapshot sampling interval (0 disables)")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	runCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	runCmd.Flags().String("log-format", "text", "Log format: text or json")
	runCmd.Flags().BoolP("verbose", "v", false, "Write structured logs to stderr")
	rootCmd.AddCommand(runCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration and pool sizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(cfg); err != nil {
					return err
				}
			} else {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				_ = enc.Close()
			}

			fmt.Fprintf(out, "\n# profile %s, %d concurrency units\n", profile.Name, cfg.Units())
			for _, c := range api.Categories() {
				pc, ok := profile.Pools[c]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "# %s: core=%d max=%d keepAlive=%s queue=%s",
					api.UnitName(c), pc.CorePoolSize, pc.MaximumPoolSize, pc.KeepAlive, pc.Queue)
				if pc.Queue == api.QueueBounded {
					fmt.Fprintf(out, "(%d)", pc.QueueCapacity)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	configCmd.Flags().Bool("json", false, "Print JSON instead of YAML")
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies file, then RELAY_* environment, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	config.FromEnv(&cfg)

	if cmd.Flags().Changed("strategy") {
		cfg.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	return cfg, nil
}
