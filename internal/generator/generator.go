// Package generator produces synthetic CoinJoin-shaped transactions from
// a coin-value Distribution, for exercising the matcher and aggregator
// without any real chain data — the boundary component of §5.
//
// Grounded on original_source/src/distribution.rs's Distribution methods;
// the four policies below are random_coinjoin_transaction,
// _shuffled, _input_shuffled and _distributed_shuffled respectively.
package generator

import (
	"math/rand"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// ShufflePolicy selects which of the four output-balancing strategies
// Generate applies across the synthetic transactions it produces.
type ShufflePolicy int

const (
	// Plain concatenates each transaction's own inputs and outputs with
	// no cross-transaction balancing.
	Plain ShufflePolicy = iota
	// Shuffled compares each transaction's output sum with the running
	// total of the accumulated output set and splits one coin of the new
	// outputs (if their sum is larger) or of the accumulated outputs (if
	// theirs is larger) into two, so that set gains a subset summing to
	// the difference; total output value is unchanged.
	Shuffled
	// InputShuffled reorders the accumulated input set and keeps
	// reshuffling until the sum of its first transaction_size coins falls
	// below the new output sum or the accumulated output sum, then splits
	// one coin of the new outputs (when the prefix sum is below their sum)
	// or else of the accumulated outputs, so that set gains a subset
	// summing to that prefix sum.
	InputShuffled
	// DistributedShuffled generates every transaction's inputs first,
	// then rebalances each transaction's outputs independently against a
	// freshly reshuffled view of the whole input pool.
	DistributedShuffled
)

// Generate produces numTransactions transactions of transactionSize
// inputs each, drawn from dist, and returns the individual transactions
// alongside the pooled input and output coin multisets the matcher
// operates on.
func Generate(dist models.Distribution, numTransactions, transactionSize uint64, policy ShufflePolicy) ([]models.Transaction, models.Set, models.Set) {
	switch policy {
	case Shuffled:
		return generateShuffled(dist, numTransactions, transactionSize)
	case InputShuffled:
		return generateInputShuffled(dist, numTransactions, transactionSize)
	case DistributedShuffled:
		return generateDistributedShuffled(dist, numTransactions, transactionSize)
	default:
		return generatePlain(dist, numTransactions, transactionSize)
	}
}

func generatePlain(dist models.Distribution, numTransactions, transactionSize uint64) ([]models.Transaction, models.Set, models.Set) {
	transactions := make([]models.Transaction, 0, numTransactions)
	inCoins := randomSet(dist, transactionSize)
	outCoins := outputPair(dist, inCoins.Sum())
	transactions = append(transactions, models.NewTransaction(inCoins.Clone(), outCoins.Clone()))
	for i := uint64(1); i < numTransactions; i++ {
		newIn := randomSet(dist, transactionSize)
		newOut := outputPair(dist, newIn.Sum())
		transactions = append(transactions, models.NewTransaction(newIn.Clone(), newOut.Clone()))
		inCoins = append(inCoins, newIn...)
		outCoins = append(outCoins, newOut...)
	}
	return transactions, inCoins, outCoins
}

func generateShuffled(dist models.Distribution, numTransactions, transactionSize uint64) ([]models.Transaction, models.Set, models.Set) {
	transactions := make([]models.Transaction, 0, numTransactions)
	inCoins := randomSet(dist, transactionSize)
	outCoins := outputPair(dist, inCoins.Sum())
	transactions = append(transactions, models.NewTransaction(inCoins.Clone(), outCoins.Clone()))
	for i := uint64(1); i < numTransactions; i++ {
		newIn := randomSet(dist, transactionSize)
		newOut := outputPair(dist, newIn.Sum())
		transactions = append(transactions, models.NewTransaction(newIn.Clone(), newOut.Clone()))
		diff := int64(newOut.Sum()) - int64(outCoins.Sum())
		switch {
		case diff > 0:
			newOut = realizeSubsum(newOut, uint64(diff))
		case diff < 0:
			outCoins = realizeSubsum(outCoins, uint64(-diff))
		}
		inCoins = append(inCoins, newIn...)
		outCoins = append(outCoins, newOut...)
	}
	return transactions, inCoins, outCoins
}

func generateInputShuffled(dist models.Distribution, numTransactions, transactionSize uint64) ([]models.Transaction, models.Set, models.Set) {
	transactions := make([]models.Transaction, 0, numTransactions)
	inCoins := randomSet(dist, transactionSize)
	outCoins := outputPair(dist, inCoins.Sum())
	transactions = append(transactions, models.NewTransaction(inCoins.Clone(), outCoins.Clone()))
	for i := uint64(1); i < numTransactions; i++ {
		newIn := randomSet(dist, transactionSize)
		newOut := outputPair(dist, newIn.Sum())
		transactions = append(transactions, models.NewTransaction(newIn.Clone(), newOut.Clone()))
		inCoins = append(inCoins, newIn...)
		shuffle(inCoins)
		randomInSum := prefixSum(inCoins, transactionSize)
		for randomInSum >= newOut.Sum() && randomInSum >= outCoins.Sum() {
			shuffle(inCoins)
			randomInSum = prefixSum(inCoins, transactionSize)
		}
		switch {
		case randomInSum < newOut.Sum():
			newOut = realizeSubsum(newOut, randomInSum)
		case randomInSum < outCoins.Sum():
			outCoins = realizeSubsum(outCoins, randomInSum)
		}
		outCoins = append(outCoins, newOut...)
	}
	return transactions, inCoins, outCoins
}

func generateDistributedShuffled(dist models.Distribution, numTransactions, transactionSize uint64) ([]models.Transaction, models.Set, models.Set) {
	transactions := make([]models.Transaction, 0, numTransactions)
	var inCoins models.Set
	outSets := make([]models.Set, 0, numTransactions)
	for i := uint64(0); i < numTransactions; i++ {
		newIn := randomSet(dist, transactionSize)
		newOut := outputPair(dist, newIn.Sum())
		transactions = append(transactions, models.NewTransaction(newIn.Clone(), newOut.Clone()))
		outSets = append(outSets, newOut)
		inCoins = append(inCoins, newIn...)
	}
	var outCoins models.Set
	for _, outSet := range outSets {
		shuffle(inCoins)
		outSum := outSet.Sum()
		var randomInSum uint64
		for _, coin := range inCoins {
			if randomInSum+coin <= outSum {
				randomInSum += coin
			}
		}
		outCoins = append(outCoins, realizeSubsum(outSet, randomInSum)...)
	}
	return transactions, inCoins, outCoins
}

// realizeSubsum walks v greedily taking whole coins until d is consumed,
// splitting the coin that straddles the remaining deficit in two.
// Grounded on distribution.rs's realize_subsum.
func realizeSubsum(v models.Set, sum uint64) models.Set {
	d := sum
	result := make(models.Set, 0, len(v)+1)
	for _, coin := range v {
		switch {
		case d == 0:
			result = append(result, coin)
		case coin <= d:
			d -= coin
			result = append(result, coin)
		default:
			result = append(result, coin-d, d)
			d = 0
		}
	}
	return result
}

func prefixSum(s models.Set, n uint64) uint64 {
	var sum uint64
	limit := n
	if uint64(len(s)) < limit {
		limit = uint64(len(s))
	}
	for i := uint64(0); i < limit; i++ {
		sum += s[i]
	}
	return sum
}

func shuffle(s models.Set) {
	rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

func randomSet(dist models.Distribution, n uint64) models.Set {
	set := make(models.Set, n)
	for i := range set {
		set[i] = randomCoin(dist)
	}
	return set
}

// randomCoin draws a coin value from dist's inverse cumulative
// distribution via binary search, linearly interpolating within the
// bucket straddling the draw, and redrawing on a zero result. Grounded
// on distribution.rs's random_coin.
func randomCoin(dist models.Distribution) uint64 {
	for {
		draw := rand.Float64()
		buckets := dist.CumulativeNormalized
		i := searchBuckets(buckets, draw)
		var coin uint64
		if i < len(buckets) && buckets[i].Cumulative == draw {
			coin = buckets[i].Coin
		} else {
			var lower uint64
			if i > 0 {
				lower = buckets[i-1].Coin
			}
			upper := buckets[i].Coin
			diff := upper - lower
			coin = lower + uint64(float64(diff)*draw)
		}
		if coin > 0 {
			return coin
		}
	}
}

// searchBuckets returns the index of the first bucket whose cumulative
// probability is >= draw, mirroring Rust's Vec::binary_search_by on the
// cumulative column.
func searchBuckets(buckets []models.CoinProbability, draw float64) int {
	lo, hi := 0, len(buckets)
	for lo < hi {
		mid := (lo + hi) / 2
		if buckets[mid].Cumulative < draw {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= len(buckets) {
		lo = len(buckets) - 1
	}
	return lo
}

// outputPair draws two outputs summing to sum: a random draw below sum,
// and its complement. Grounded on distribution.rs's output_pair.
func outputPair(dist models.Distribution, sum uint64) models.Set {
	for {
		output := randomCoin(dist)
		if output < sum {
			return models.Set{output, sum - output}
		}
	}
}
