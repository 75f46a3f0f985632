package aggregator

import "github.com/rawblock/coinjoin-unlinkability/pkg/models"

// IsDerived reports whether plusOne is a "derived" refinement of base: an
// in-partition one level finer (exactly one more part) obtained by
// splitting exactly one part of base's in-partition into two. Matching is
// by part-sum, not by position — a base part survives into plusOne if
// some part of plusOne has an equal sum; surviving parts are removed
// (first match only) from a working copy of plusOne's parts so a
// base part can't be matched twice. base is derived into plusOne iff
// exactly one base part failed to survive and exactly two plusOne parts
// remain unmatched (the one part that split in two).
//
// Grounded on original_source/src/bin/calculate_probabilities.rs's
// is_derived, replicated as-is — this is the heuristic §9 open question 3
// flags as potentially missing merge shapes (e.g. a part splitting into
// three, or two unrelated parts each splitting by one), not a bug to fix
// here.
func IsDerived(base, plusOne models.Partition) bool {
	if len(base)+1 != len(plusOne) {
		panic("aggregator: IsDerived requires plusOne to have exactly one more part than base")
	}
	remaining := make([]models.Set, len(plusOne))
	copy(remaining, plusOne)

	var retainedCount int
	for _, part := range base {
		sum := part.Sum()
		matched := -1
		for i, candidate := range remaining {
			if candidate != nil && candidate.Sum() == sum {
				matched = i
				break
			}
		}
		if matched >= 0 {
			remaining[matched] = nil
		} else {
			retainedCount++
		}
	}

	var unmatchedCount int
	for _, candidate := range remaining {
		if candidate != nil {
			unmatchedCount++
		}
	}
	return retainedCount == 1 && unmatchedCount == 2
}

// FilterDerivedPartitions removes every mapping whose input partition is
// derivable from some mapping one level finer (one more part), keeping
// only mappings at the finest level and mappings with no finer-level
// derivation. Mappings are grouped and compared solely by the number of
// parts in InputPartition; OutputPartition rides along unexamined, per
// §4.8.
//
// Grounded on calculate_probabilities.rs's filter_derived_partitions.
func FilterDerivedPartitions(mappings []models.Mapping) []models.Mapping {
	if len(mappings) == 0 {
		return nil
	}
	maxParts := 0
	for _, m := range mappings {
		if n := len(m.InputPartition); n > maxParts {
			maxParts = n
		}
	}
	bySize := make([][]models.Mapping, maxParts+1)
	for _, m := range mappings {
		size := len(m.InputPartition)
		bySize[size] = append(bySize[size], m)
	}

	var nonDerived []models.Mapping
	for size := 1; size < maxParts; size++ {
		for _, candidate := range bySize[size] {
			derived := false
			for _, finer := range bySize[size+1] {
				if IsDerived(candidate.InputPartition, finer.InputPartition) {
					derived = true
					break
				}
			}
			if !derived {
				nonDerived = append(nonDerived, candidate)
			}
		}
	}
	nonDerived = append(nonDerived, bySize[maxParts]...)
	return nonDerived
}
