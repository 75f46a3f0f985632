// Package rundriver orchestrates many independent engine runs in
// parallel. Each run is fully self-contained — its own generated
// transactions and its own matcher search — so runs
// share no mutable state and can fan out across a worker pool with no
// coordination beyond result collection.
//
// Built on github.com/JekaMas/workerpool; the mutex-guarded
// result-collection idiom follows this module's own monitor Hub.
package rundriver

import (
	"log"
	"sync"
	"time"

	"github.com/JekaMas/workerpool"

	"github.com/rawblock/coinjoin-unlinkability/internal/generator"
	"github.com/rawblock/coinjoin-unlinkability/internal/matcher"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// Config parameterizes one batch of runs.
type Config struct {
	NumRuns                 int
	NumTransactions          uint64
	NumInputsPerTransaction  uint64
	ShufflePolicy            generator.ShufflePolicy
	Distribution             models.Distribution
	Workers                  int
	// OnRunComplete, if set, is called synchronously (under an internal
	// lock) as each run finishes — the hook internal/monitor uses to
	// broadcast over its websocket Hub.
	OnRunComplete func(models.Run)
}

// Drive executes Config.NumRuns independent runs across a worker pool
// sized Config.Workers, returning every resulting Run.
func Drive(cfg Config) []models.Run {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	pool := workerpool.New(workers)

	var mu sync.Mutex
	runs := make([]models.Run, 0, cfg.NumRuns)

	for i := 0; i < cfg.NumRuns; i++ {
		runIndex := i
		pool.Submit(func() {
			run := executeRun(cfg)
			mu.Lock()
			runs = append(runs, run)
			if cfg.OnRunComplete != nil {
				cfg.OnRunComplete(run)
			}
			mu.Unlock()
			log.Printf("[rundriver] run %d/%d complete: %d mappings, %.2fms", runIndex+1, cfg.NumRuns, len(run.PartitionTuples), run.DurationMillis())
		})
	}
	pool.StopWait()
	return runs
}

func executeRun(cfg Config) models.Run {
	start := time.Now()

	transactions, inCoins, outCoins := generator.Generate(
		cfg.Distribution,
		cfg.NumTransactions,
		cfg.NumInputsPerTransaction,
		cfg.ShufflePolicy,
	)

	// The raw mapping set is persisted as-is — the derived-partition
	// filter is a preprocessing step for aggregation only, applied by
	// whichever caller later computes linkage probabilities, not here.
	mappings := matcher.Match(inCoins, outCoins)

	elapsed := time.Since(start)
	return models.Run{
		NumTransactions:         cfg.NumTransactions,
		NumInputsPerTransaction: cfg.NumInputsPerTransaction,
		OriginalTransactions:    transactions,
		InCoins:                 inCoins,
		OutCoins:                outCoins,
		PartitionTuples:         mappings,
		DurationSecs:            uint64(elapsed / time.Second),
		DurationNano:            uint32(elapsed % time.Second),
	}
}
