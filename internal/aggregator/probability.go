// Package aggregator implements §4.8: reducing a Run's mapping set to
// per-coin and per-coin-pair linkage probabilities, and the
// derived-partition filter applied before aggregation.
package aggregator

import "github.com/rawblock/coinjoin-unlinkability/pkg/models"

// partOf resolves Mapping.InputIndices/OutputIndices (n disjoint index
// groups, one per partition part) into partOf[i] = the part index
// containing original position i. Coins are identified by position, not
// value (§3's positional-identity invariant), so this trusts the
// indices the partition enumerator recorded rather than re-matching by
// value — a value-based re-match cannot disambiguate which of several
// equal-valued coins landed in which part once they split across parts
// of different sums.
//
// A malformed index-partition (a position missing or claimed twice) is
// the §7 "invariant violation" fatal-programming-error class and
// panics, since a well-formed Mapping can never trigger it.
func partOf(n int, indices [][]int) []int {
	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	for partIdx, group := range indices {
		for _, pos := range group {
			if pos < 0 || pos >= n {
				panic("aggregator: partition index out of range for coin multiset")
			}
			if result[pos] != -1 {
				panic("aggregator: coin assigned to more than one partition part")
			}
			result[pos] = partIdx
		}
	}
	for _, partIdx := range result {
		if partIdx == -1 {
			panic("aggregator: coin not found in any partition part")
		}
	}
	return result
}

// InOutProbability computes in_out(c, d): the fraction of mapping pairs
// in which the part of p_I containing c and the part of p_O containing
// d have equal sum.
func InOutProbability(inCoinIdx, outCoinIdx int, mappings []models.Mapping, inCoins, outCoins models.Set) float64 {
	if len(mappings) == 0 {
		return 0
	}
	var matches int
	for _, m := range mappings {
		inPartOf := partOf(len(inCoins), m.InputIndices)
		outPartOf := partOf(len(outCoins), m.OutputIndices)
		inSum := m.InputPartition[inPartOf[inCoinIdx]].Sum()
		outSum := m.OutputPartition[outPartOf[outCoinIdx]].Sum()
		if inSum == outSum {
			matches++
		}
	}
	return float64(matches) / float64(len(mappings))
}

// InInProbability computes in_in(c, c'): the fraction of mapping pairs
// in which c and c' land in the same part of p_I.
func InInProbability(firstIdx, secondIdx int, mappings []models.Mapping, inCoins models.Set) float64 {
	if len(mappings) == 0 {
		return 0
	}
	var matches int
	for _, m := range mappings {
		inPartOf := partOf(len(inCoins), m.InputIndices)
		if inPartOf[firstIdx] == inPartOf[secondIdx] {
			matches++
		}
	}
	return float64(matches) / float64(len(mappings))
}

// OutOutProbability computes out_out(d, d'): the fraction of mapping
// pairs in which d and d' land in the same part of p_O.
func OutOutProbability(firstIdx, secondIdx int, mappings []models.Mapping, outCoins models.Set) float64 {
	if len(mappings) == 0 {
		return 0
	}
	var matches int
	for _, m := range mappings {
		outPartOf := partOf(len(outCoins), m.OutputIndices)
		if outPartOf[firstIdx] == outPartOf[secondIdx] {
			matches++
		}
	}
	return float64(matches) / float64(len(mappings))
}

// Aggregate reduces a probability vector to the four summary statistics
// §4.8 specifies: count of zeros, count of ones, the mean over the
// strictly-interior values, and the mean over all values. Means over
// empty sequences are 0.
func Aggregate(probabilities []float64) models.AggregateStats {
	var zeros, ones int
	var interiorSum float64
	var interiorCount int
	var total float64
	for _, p := range probabilities {
		switch {
		case p == 0:
			zeros++
		case p == 1:
			ones++
		default:
			interiorSum += p
			interiorCount++
		}
		total += p
	}
	stats := models.AggregateStats{Zeros: zeros, Ones: ones}
	if interiorCount > 0 {
		stats.AverageOther = interiorSum / float64(interiorCount)
	}
	if len(probabilities) > 0 {
		stats.Average = total / float64(len(probabilities))
	}
	return stats
}

// AggregateInOut computes the in_out probability vector over every
// (in-coin, out-coin) pair and reduces it to summary statistics.
func AggregateInOut(inCoins, outCoins models.Set, mappings []models.Mapping) models.AggregateStats {
	probabilities := make([]float64, 0, len(inCoins)*len(outCoins))
	for i := range inCoins {
		for j := range outCoins {
			probabilities = append(probabilities, InOutProbability(i, j, mappings, inCoins, outCoins))
		}
	}
	return Aggregate(probabilities)
}

// AggregateInIn computes the in_in probability vector over every
// unordered pair of in-coins and reduces it to summary statistics.
func AggregateInIn(inCoins models.Set, mappings []models.Mapping) models.AggregateStats {
	probabilities := make([]float64, 0)
	for i := range inCoins {
		for j := i + 1; j < len(inCoins); j++ {
			probabilities = append(probabilities, InInProbability(i, j, mappings, inCoins))
		}
	}
	return Aggregate(probabilities)
}

// AggregateOutOut computes the out_out probability vector over every
// unordered pair of out-coins and reduces it to summary statistics.
func AggregateOutOut(outCoins models.Set, mappings []models.Mapping) models.AggregateStats {
	probabilities := make([]float64, 0)
	for i := range outCoins {
		for j := i + 1; j < len(outCoins); j++ {
			probabilities = append(probabilities, OutOutProbability(i, j, mappings, outCoins))
		}
	}
	return Aggregate(probabilities)
}

// Summarize runs all three aggregations over a mapping set the
// derived-partition filter has already pared down.
func Summarize(inCoins, outCoins models.Set, mappings []models.Mapping) models.RunStats {
	return models.RunStats{
		InOut:  AggregateInOut(inCoins, outCoins, mappings),
		InIn:   AggregateInIn(inCoins, mappings),
		OutOut: AggregateOutOut(outCoins, mappings),
	}
}
