// Command cja is the combinatorial-joint-analysis front end: "auto"
// drives many independent synthetic runs through the matcher, "analyze"
// runs a single supplied transaction set through the matcher and prints
// its mappings, and "probabilities" reduces a batch of completed runs
// to per-coin and per-coin-pair linkage statistics.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rawblock/coinjoin-unlinkability/internal/aggregator"
	"github.com/rawblock/coinjoin-unlinkability/internal/distio"
	"github.com/rawblock/coinjoin-unlinkability/internal/generator"
	"github.com/rawblock/coinjoin-unlinkability/internal/matcher"
	"github.com/rawblock/coinjoin-unlinkability/internal/monitor"
	"github.com/rawblock/coinjoin-unlinkability/internal/rundriver"
	"github.com/rawblock/coinjoin-unlinkability/internal/store"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

func main() {
	root := &cobra.Command{
		Use:   "cja",
		Short: "Combinatorial joint-analysis engine for CoinJoin unlinkability",
	}
	root.AddCommand(newAutoCommand())
	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newProbabilitiesCommand())

	if err := root.Execute(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func newAutoCommand() *cobra.Command {
	var (
		distributionPath string
		numRuns          int
		numTransactions  uint64
		transactionSize  uint64
		shuffledName     string
		parallelism      int
		outputPath       string
		monitorEnabled   bool
		monitorPort      string
		persistURL       string
	)

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Generate and analyze CoinJoin transactions for various parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			dist, err := distio.ReadDistribution(distributionPath)
			if err != nil {
				return fmt.Errorf("loading distribution: %w", err)
			}
			policy, err := parsePolicy(shuffledName)
			if err != nil {
				return err
			}

			var hub *monitor.Hub
			if monitorEnabled {
				hub = monitor.NewHub()
				go hub.Run()
				router := monitor.SetupRouter(hub)
				go func() {
					log.Printf("[cja] dashboard listening on :%s", monitorPort)
					if err := router.Run(":" + monitorPort); err != nil {
						log.Printf("warning: dashboard server stopped: %v", err)
					}
				}()
			}

			var persistStore *store.Store
			if persistURL != "" {
				persistStore, err = store.Connect(context.Background(), persistURL)
				if err != nil {
					log.Printf("warning: persistence disabled, could not connect: %v", err)
				} else {
					defer persistStore.Close()
					if err := persistStore.InitSchema(context.Background()); err != nil {
						log.Printf("warning: schema init failed: %v", err)
					}
				}
			}

			onComplete := func(run models.Run) {
				if hub != nil {
					hub.OnRunComplete(run)
				}
				if persistStore != nil {
					if err := persistStore.SaveRun(context.Background(), run); err != nil {
						log.Printf("warning: failed to persist run: %v", err)
					}
				}
			}

			cfg := rundriver.Config{
				NumRuns:                 numRuns,
				NumTransactions:         numTransactions,
				NumInputsPerTransaction: transactionSize,
				ShufflePolicy:           policy,
				Distribution:            dist,
				Workers:                 parallelism,
				OnRunComplete:           onComplete,
			}
			runs := rundriver.Drive(cfg)
			log.Printf("[cja] completed %d runs", len(runs))

			if outputPath == "" {
				outputPath = fmt.Sprintf("result-%s-t-%d-s-%d-r-%d.json", shuffledName, numTransactions, transactionSize, numRuns)
			}
			if err := distio.WriteRuns(outputPath, runs); err != nil {
				return fmt.Errorf("writing results: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&distributionPath, "distribution", "d", "distribution.bin", "path to a msgpack-encoded coin value Distribution")
	cmd.Flags().IntVarP(&numRuns, "runs", "r", 5, "number of independent runs to perform")
	cmd.Flags().Uint64VarP(&numTransactions, "transactions", "t", 4, "number of synthetic transactions combined per run")
	cmd.Flags().Uint64VarP(&transactionSize, "size", "s", 3, "number of inputs per synthetic transaction")
	cmd.Flags().StringVarP(&shuffledName, "shuffled", "S", "none", "output shuffle policy: none, output, input, distributed")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 5, "number of concurrent run workers")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to write a JSON-encoded batch of Run results (default: result-<shuffled>-t-<transactions>-s-<size>-r-<runs>.json)")
	cmd.Flags().BoolVar(&monitorEnabled, "monitor", false, "serve a live dashboard over the run driver")
	cmd.Flags().StringVar(&monitorPort, "monitor-port", getEnvOrDefault("PORT", "5339"), "dashboard listen port")
	cmd.Flags().StringVar(&persistURL, "persist", "", "optional Postgres connection string to persist completed runs")

	return cmd
}

func newAnalyzeCommand() *cobra.Command {
	var inputsRaw, outputsRaw string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a single CoinJoin transaction for given inputs and outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseCoinList(inputsRaw)
			if err != nil {
				return fmt.Errorf("parsing inputs: %w", err)
			}
			outputs, err := parseCoinList(outputsRaw)
			if err != nil {
				return fmt.Errorf("parsing outputs: %w", err)
			}
			mappings := matcher.Match(inputs, outputs)
			for _, m := range mappings {
				fmt.Printf("Input sets: %v Output sets: %v\n", m.InputPartition, m.OutputPartition)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputsRaw, "inputs", "i", "", "comma-separated list of input coin values")
	cmd.Flags().StringVarP(&outputsRaw, "outputs", "o", "", "comma-separated list of output coin values")
	cmd.MarkFlagRequired("inputs")
	cmd.MarkFlagRequired("outputs")

	return cmd
}

// newProbabilitiesCommand reduces a batch of Run records (as produced by
// "auto") to per-run linkage-probability summaries: the derived-partition
// filter is applied here, immediately before aggregation, not when the
// runs were persisted.
func newProbabilitiesCommand() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "probabilities",
		Short: "Report per-coin and per-coin-pair linkage probabilities for a batch of runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := distio.ReadRuns(inputPath)
			if err != nil {
				return fmt.Errorf("loading run batch: %w", err)
			}
			printProbabilitiesHeader()
			for _, run := range runs {
				nonDerived := aggregator.FilterDerivedPartitions(run.PartitionTuples)
				stats := aggregator.Summarize(run.InCoins, run.OutCoins, nonDerived)
				printProbabilitiesRow(run, nonDerived, stats)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON-encoded batch of Run records")
	cmd.MarkFlagRequired("input")

	return cmd
}

func printProbabilitiesHeader() {
	fmt.Println(strings.Join([]string{
		"num_transactions", "num_inputs_per_transaction", "duration_ms", "num_outputs", "non_derived_mappings",
		"input_output_zeros", "input_output_ones", "input_output_average_other", "input_output_average",
		"input_input_zeros", "input_input_ones", "input_input_average_other", "input_input_average",
		"output_output_zeros", "output_output_ones", "output_output_average_other", "output_output_average",
	}, "\t"))
}

func printProbabilitiesRow(run models.Run, nonDerived []models.Mapping, stats models.RunStats) {
	fmt.Printf("%d\t%d\t%.3f\t%d\t%d\t%s\t%s\t%s\n",
		run.NumTransactions, run.NumInputsPerTransaction, run.DurationMillis(), len(run.OutCoins), len(nonDerived),
		formatAggregateStats(stats.InOut), formatAggregateStats(stats.InIn), formatAggregateStats(stats.OutOut))
}

func formatAggregateStats(s models.AggregateStats) string {
	return fmt.Sprintf("%d\t%d\t%.3f\t%.3f", s.Zeros, s.Ones, s.AverageOther, s.Average)
}

func parseCoinList(raw string) (models.Set, error) {
	fields := strings.Split(raw, ",")
	set := make(models.Set, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coin value %q: %w", field, err)
		}
		set[i] = value
	}
	return set, nil
}

func parsePolicy(shuffled string) (generator.ShufflePolicy, error) {
	switch shuffled {
	case "none":
		return generator.Plain, nil
	case "output":
		return generator.Shuffled, nil
	case "input":
		return generator.InputShuffled, nil
	case "distributed":
		return generator.DistributedShuffled, nil
	default:
		return generator.Plain, fmt.Errorf("invalid value for shuffled: %q (want none, output, input, or distributed)", shuffled)
	}
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
