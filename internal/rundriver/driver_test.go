package rundriver

import (
	"sync"
	"testing"

	"github.com/rawblock/coinjoin-unlinkability/internal/generator"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

func flatDistribution() models.Distribution {
	return models.Distribution{
		CumulativeNormalized: []models.CoinProbability{
			{Coin: 10, Cumulative: 0.5},
			{Coin: 20, Cumulative: 1.0},
		},
	}
}

func TestDriveProducesOneRunPerRequest(t *testing.T) {
	cfg := Config{
		NumRuns:                 4,
		NumTransactions:         2,
		NumInputsPerTransaction: 2,
		ShufflePolicy:           generator.Plain,
		Distribution:            flatDistribution(),
		Workers:                 2,
	}
	runs := Drive(cfg)
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(runs))
	}
	for _, run := range runs {
		if len(run.OriginalTransactions) != 2 {
			t.Errorf("expected 2 transactions per run, got %d", len(run.OriginalTransactions))
		}
	}
}

func TestDriveInvokesOnRunComplete(t *testing.T) {
	var mu sync.Mutex
	var completions int
	cfg := Config{
		NumRuns:                 3,
		NumTransactions:         2,
		NumInputsPerTransaction: 2,
		ShufflePolicy:           generator.Plain,
		Distribution:            flatDistribution(),
		Workers:                 3,
		OnRunComplete: func(models.Run) {
			mu.Lock()
			completions++
			mu.Unlock()
		},
	}
	Drive(cfg)
	if completions != 3 {
		t.Errorf("expected 3 completion callbacks, got %d", completions)
	}
}
