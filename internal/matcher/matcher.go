// Package matcher implements §4.7: joining admissible input-side
// partitions with admissible output-side partitions into the final
// mapping set.
package matcher

import (
	"log"

	"github.com/rawblock/coinjoin-unlinkability/internal/bloomfilter"
	"github.com/rawblock/coinjoin-unlinkability/internal/partition"
	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// Match runs the full matching pipeline over the input multiset I and
// the output multiset O:
//
//  1. build F_O = SubsetSumsFilter(O)
//  2. enumerate P_I, every partition of I admissible under F_O
//  3. build F_{P_I} = PartitionsSubsetSumsFilter(P_I)
//  4. enumerate P_O, every partition of O admissible under F_{P_I}
//  5. emit every (p_I, p_O) pair that satisfies PartitionsMatch
func Match(inputs, outputs models.Set) []models.Mapping {
	outputFilter := bloomfilter.NewSubsetSumsFilter(outputs)
	inputResults := partition.AllIndexed(inputs, outputFilter)
	log.Printf("[Matcher] %d admissible input partitions over %d inputs", len(inputResults), len(inputs))

	partitionFilter := bloomfilter.NewPartitionsSubsetSumsFilter(partitionsOf(inputResults))
	outputResults := partition.AllIndexed(outputs, partitionFilter)
	log.Printf("[Matcher] %d admissible output partitions over %d outputs", len(outputResults), len(outputs))

	var mappings []models.Mapping
	for _, in := range inputResults {
		for _, out := range outputResults {
			if PartitionsMatch(in.Partition, out.Partition) {
				mappings = append(mappings, models.Mapping{
					InputPartition:  in.Partition,
					OutputPartition: out.Partition,
					InputIndices:    in.Indices,
					OutputIndices:   out.Indices,
				})
			}
		}
	}
	log.Printf("[Matcher] %d mapping pairs found", len(mappings))
	return mappings
}

// partitionsOf strips the index-provenance from a batch of partition
// results, for callers (the second-stage filter) that only need values.
func partitionsOf(results []partition.Result) []models.Partition {
	out := make([]models.Partition, len(results))
	for i, r := range results {
		out[i] = r.Partition
	}
	return out
}

// PartitionsMatch is the reference's partitions_match predicate: every
// part-sum of a has some counterpart part-sum in b. This is checked
// one-way only, matching the reference implementation exactly — see §9
// open question 1. When |a| < |b|, b may carry an extra part-sum with no
// counterpart in a and still be accepted; callers that need the
// strengthened multiset-equality behavior should compare
// PartSums(a)/PartSums(b) themselves.
func PartitionsMatch(a, b models.Partition) bool {
outer:
	for _, setA := range a {
		sumA := setA.Sum()
		for _, setB := range b {
			if sumA == setB.Sum() {
				continue outer
			}
		}
		return false
	}
	return true
}

// PartSums returns the multiset of part-sums of a partition, in part
// order — a convenience for tests and for the strengthened equality
// check PartitionsMatch's doc comment mentions.
func PartSums(p models.Partition) []uint64 {
	sums := make([]uint64, len(p))
	for i, part := range p {
		sums[i] = part.Sum()
	}
	return sums
}
