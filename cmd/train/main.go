package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"EnergyForecast/internal/ml/forest"
	"EnergyForecast/internal/services/training"
	"EnergyForecast/pkg/logger"
)

var (
	logLevel string

	exportPath    string
	outDir        string
	trees         int
	maxDepth      int
	contamination float64
	target        string
	seed          uint64

	modelPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "train",
		Short: "Offline training for the consumption regressor and anomaly model",
		Long: `Fits a random forest regressor and an isolation forest from a nested
per-user export ({user: {key: {date, total_units}}}) and writes both as JSON artifacts.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(fitCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fitCmd() *cobra.Command {
	defaults := training.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Train both models from an export file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr", Service: "train"})
			if err != nil {
				return err
			}

			export, err := training.ReadExportFile(exportPath)
			if err != nil {
				return err
			}

			opts := defaults
			opts.Trees = trees
			opts.MaxDepth = maxDepth
			opts.Contamination = contamination
			opts.Target = target
			opts.Seed = seed

			res, err := training.NewTrainer(opts, l).Fit(ctx, export)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}
			regPath, anomalyPath, err := res.Save(outDir)
			if err != nil {
				return err
			}

			fmt.Printf("=== Training Summary ===\n")
			fmt.Printf("Users: %s\n", humanize.Comma(int64(res.Users)))
			fmt.Printf("Entries: %s (skipped %s, duplicates %s)\n",
				humanize.Comma(int64(res.Flatten.Entries)),
				humanize.Comma(int64(res.Flatten.Skipped)),
				humanize.Comma(int64(res.Flatten.Duplicates)))
			fmt.Printf("Training rows: %s\n", humanize.Comma(int64(res.Rows)))
			fmt.Printf("Target: %s\n", opts.Target)
			printMetrics(res.Regressor.Metrics)
			printMetrics(res.Anomaly.Metrics)
			fmt.Printf("Took: %s\n", res.Duration)
			fmt.Printf("\nRegressor saved to %s (%s)\n", regPath, fileSize(regPath))
			fmt.Printf("Anomaly model saved to %s (%s)\n", anomalyPath, fileSize(anomalyPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Path to the JSON export")
	cmd.Flags().StringVar(&outDir, "out", "models", "Directory for the model artifacts")
	cmd.Flags().IntVar(&trees, "trees", defaults.Trees, "Trees per forest")
	cmd.Flags().IntVar(&maxDepth, "max-depth", defaults.MaxDepth, "Maximum regression tree depth")
	cmd.Flags().Float64Var(&contamination, "contamination", defaults.Contamination, "Expected outlier share for the anomaly model")
	cmd.Flags().StringVar(&target, "target", defaults.Target, "Regression target: next-day or same-day")
	cmd.Flags().Uint64Var(&seed, "seed", defaults.Seed, "Random seed")
	_ = cmd.MarkFlagRequired("export")

	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the metadata of a model artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(modelPath)
			if err != nil {
				return err
			}
			var head struct {
				Kind string `json:"kind"`
			}
			if err := json.Unmarshal(data, &head); err != nil {
				return fmt.Errorf("decode %s: %w", modelPath, err)
			}
			a, err := forest.LoadArtifact(modelPath, head.Kind)
			if err != nil {
				return err
			}

			fmt.Printf("Kind: %s (v%d)\n", a.Kind, a.Version)
			fmt.Printf("Features: %v\n", a.Features)
			fmt.Printf("Trained: %s (%s)\n", a.TrainedAt.Format("2006-01-02 15:04:05"), humanize.Time(a.TrainedAt))
			fmt.Printf("Rows: %s\n", humanize.Comma(int64(a.Rows)))
			fmt.Printf("Size: %s\n", humanize.Bytes(uint64(len(data))))
			printMetrics(a.Metrics)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to a model artifact")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func printMetrics(m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, humanize.FtoaWithDigits(m[k], 4))
	}
}

func fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(st.Size()))
}
