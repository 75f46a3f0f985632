// Package bloomfilter implements the two bloom-guarded, exact Filter
// implementations the partition search depends on: SubsetSumsFilter
// (membership in a reference multiset's subset-sum multiset) and
// PartitionsSubsetSumsFilter (membership in the union of part-sums of a
// candidate partition set).
//
// Both stages follow the same shape: a cheap probabilistic pre-check
// that can only say "definitely not", backed by an exact second stage
// that is only ever consulted when the bloom stage says "maybe". This
// mirrors the corpus's own bloom-filter packages (see e.g.
// other_examples' blocknative/bloom and bits-and-blooms/bloom, which
// this package wraps).
package bloomfilter

import (
	"math"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/rawblock/coinjoin-unlinkability/internal/subsetsum"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// falsePositiveRate is the bloom pre-stage's target rate, per §4.3.
const falsePositiveRate = 0.01

// maxBloomCapacity caps the expected-item count handed to the bloom
// filter constructor, per §4.3's "capped at 2^32 - 1".
const maxBloomCapacity = math.MaxUint32

// SubsetSumsFilter answers "is sum expressible as the sum of some subset
// of a reference multiset R" exactly, guarded by a bloom filter built
// once over every subset sum of R at construction time.
type SubsetSumsFilter struct {
	reference []uint64
	bloom     *bloom.BloomFilter
}

// NewSubsetSumsFilter builds the bloom pre-stage by enumerating every
// subset sum of reference (§4.3: "Build-time: run the enumerator over R
// and insert each sum into a bloom filter").
func NewSubsetSumsFilter(reference models.Set) *SubsetSumsFilter {
	capacity := uint(len(reference))
	if capacity > maxBloomCapacity {
		capacity = maxBloomCapacity
	}
	if capacity == 0 {
		capacity = 1
	}
	filter := bloom.NewWithEstimates(capacity, falsePositiveRate)
	sums := subsetsum.All(reference)
	for _, sum := range sums {
		filter.Add(encode(sum))
	}
	return &SubsetSumsFilter{
		reference: []uint64(reference.Clone()),
		bloom:     filter,
	}
}

// Contains implements models.Filter. The bloom stage only ever
// eliminates negatives; every "maybe" is resolved exactly by the
// subset-sum oracle against the original reference multiset.
func (f *SubsetSumsFilter) Contains(sum uint64) bool {
	if !f.bloom.Test(encode(sum)) {
		return false
	}
	return subsetsum.IsSubsetSum(f.reference, sum)
}

// PartitionsSubsetSumsFilter answers "is sum the part-sum of some part
// of some partition in a candidate partition set Π" exactly, guarded by
// a bloom filter sized for half the underlying multiset's cardinality
// (§4.4's deliberately low heuristic sizing — the exact scan below
// corrects any elevated false-positive rate this produces).
type PartitionsSubsetSumsFilter struct {
	partitions []models.Partition
	bloom      *bloom.BloomFilter
}

// NewPartitionsSubsetSumsFilter builds the bloom pre-stage from the
// part-sums of every part of every partition in partitions.
func NewPartitionsSubsetSumsFilter(partitions []models.Partition) *PartitionsSubsetSumsFilter {
	var coins uint
	if len(partitions) > 0 {
		for _, part := range partitions[0] {
			coins += uint(len(part))
		}
	}
	capacity := coins / 2
	if capacity == 0 {
		capacity = 1
	}
	filter := bloom.NewWithEstimates(capacity, falsePositiveRate)
	stored := make([]models.Partition, len(partitions))
	for i, partition := range partitions {
		stored[i] = partition.Clone()
		for _, part := range partition {
			filter.Add(encode(part.Sum()))
		}
	}
	return &PartitionsSubsetSumsFilter{
		partitions: stored,
		bloom:      filter,
	}
}

// Contains implements models.Filter via a bloom pre-check followed by a
// linear scan of every partition's parts for an exact part-sum match.
func (f *PartitionsSubsetSumsFilter) Contains(sum uint64) bool {
	if !f.bloom.Test(encode(sum)) {
		return false
	}
	for _, partition := range f.partitions {
		for _, part := range partition {
			if part.Sum() == sum {
				return true
			}
		}
	}
	return false
}

// AlwaysFilter admits every sum; used by tests that want to walk every
// partition of a set regardless of filtering.
type AlwaysFilter struct{}

// Contains implements models.Filter by admitting everything.
func (AlwaysFilter) Contains(uint64) bool { return true }

func encode(sum uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (8 * i))
	}
	return b[:]
}
