package generator

import (
	"sort"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// DefaultMaxCoinValue and DefaultBucketSize match build_distribution.rs's
// hard-coded constants: outputs above 1000 BTC (in satoshis) are
// discarded as outliers, and coin values are rounded down to a multiple
// of 100 satoshis before histogramming.
const (
	DefaultMaxCoinValue = 100_000_000_000
	DefaultBucketSize   = 100
)

// HistogramBuilder accumulates output values into fixed-width buckets,
// ready to be cumulated and normalized into a Distribution.
type HistogramBuilder struct {
	maxCoinValue uint64
	bucketSize   uint64
	counts       map[uint64]float64
}

// NewHistogramBuilder constructs a builder with the given outlier cutoff
// and bucket width.
func NewHistogramBuilder(maxCoinValue, bucketSize uint64) *HistogramBuilder {
	return &HistogramBuilder{
		maxCoinValue: maxCoinValue,
		bucketSize:   bucketSize,
		counts:       make(map[uint64]float64),
	}
}

// Observe records one coin value, discarding it silently if it exceeds
// the builder's outlier cutoff.
func (h *HistogramBuilder) Observe(value uint64) {
	if value > h.maxCoinValue {
		return
	}
	bucket := value / h.bucketSize
	h.counts[bucket]++
}

// Build cumulates and normalizes the recorded buckets into a
// Distribution, in ascending bucket order. Grounded on
// build_distribution.rs's cumulate/normalize loop over a BTreeMap.
func (h *HistogramBuilder) Build() models.Distribution {
	buckets := make([]uint64, 0, len(h.counts))
	for bucket := range h.counts {
		buckets = append(buckets, bucket)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	var previous float64
	cumulative := make([]float64, len(buckets))
	for i, bucket := range buckets {
		previous += h.counts[bucket]
		cumulative[i] = previous
	}
	total := previous

	points := make([]models.CoinProbability, len(buckets))
	for i, bucket := range buckets {
		normalized := 0.0
		if total > 0 {
			normalized = cumulative[i] / total
		}
		points[i] = models.CoinProbability{
			Coin:       bucket * h.bucketSize,
			Cumulative: normalized,
		}
	}
	return models.Distribution{CumulativeNormalized: points}
}
