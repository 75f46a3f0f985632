package blockchain

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/rawblock/coinjoin-unlinkability/internal/generator"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// ObserveFile scans a single block file, feeding every output value
// below maxCoinValue into builder. blocksScanned is optionally incremented
// per block for progress reporting across multiple files; pass nil to
// skip that bookkeeping.
//
// Grounded on the reference build_distribution.rs main loop, with an
// atomic counter for progress across files.
func ObserveFile(path string, builder *generator.HistogramBuilder, blocksScanned *atomic.Int64) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("blockchain: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := NewScanner(file)
	for {
		block, ok, err := scanner.Next()
		if err != nil {
			return fmt.Errorf("blockchain: scanning %s: %w", path, err)
		}
		if !ok {
			return nil
		}
		for _, tx := range block.Transactions {
			for _, out := range tx.Outputs {
				if out.Value < 0 {
					continue
				}
				builder.Observe(uint64(out.Value))
			}
		}
		if blocksScanned != nil {
			blocksScanned.Add(1)
		}
	}
}

// BuildDistributionFromFiles scans every given block file into a single
// HistogramBuilder and reduces it to a Distribution, logging one line per
// file and a final count of blocks scanned.
func BuildDistributionFromFiles(paths []string, maxCoinValue, bucketSize uint64) (models.Distribution, error) {
	builder := generator.NewHistogramBuilder(maxCoinValue, bucketSize)
	var blocksScanned atomic.Int64
	for i, path := range paths {
		log.Printf("[blockchain] parsing %s (%d/%d)", path, i+1, len(paths))
		if err := ObserveFile(path, builder, &blocksScanned); err != nil {
			return models.Distribution{}, err
		}
	}
	log.Printf("[blockchain] scanned %d blocks across %d files", blocksScanned.Load(), len(paths))
	return builder.Build(), nil
}
