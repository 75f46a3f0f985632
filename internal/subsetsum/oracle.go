// Package subsetsum implements the exact subset-sum oracle and the lazy
// subset-sum enumerator the bloom-guarded filters are built from.
//
// Grounded on the bitmask subset walk formerly used for Meet-in-the-
// Middle fee-tolerant matching and an equivalent pseudo-polynomial
// bitset DP, both adapted here from fee-tolerant heuristic matching to
// the exact decision problem this search needs.
package subsetsum

import "log"

// IsSubsetSum decides whether some subset of positions in set sums to
// target exactly. The contract is exact: it never reports a false
// positive or a false negative. This is the reference recursive policy;
// see SolveBySumDP for a pseudo-polynomial alternative.
//
// t = 0 is always satisfiable by the empty subset; an empty set can
// only satisfy t = 0. Beyond those base cases the recursion peels the
// first element and uses the running tail-sum to prune: if the tail
// alone can reach the target or its complement, the answer is already
// decided without recursing further.
func IsSubsetSum(set []uint64, target uint64) bool {
	if target == 0 {
		return true
	}
	if len(set) == 0 {
		return false
	}
	if len(set) == 1 {
		return set[0] == target
	}
	head := set[0]
	tail := set[1:]
	var tailSum uint64
	for _, v := range tail {
		tailSum += v
	}
	if head == target {
		return true
	}
	if head > target {
		if tailSum < target {
			return false
		}
		return IsSubsetSum(tail, target)
	}
	remainder := target - head
	if tailSum == target || tailSum == remainder {
		return true
	}
	if tailSum < remainder {
		return false
	}
	return IsSubsetSum(tail, remainder) || (tailSum > target && IsSubsetSum(tail, target))
}

// maxDPSum bounds the pseudo-polynomial DP lane to a working-set array
// of this many booleans; beyond it the recursive oracle is cheaper in
// practice because the DP's cost is linear in the sum, not the
// cardinality.
const maxDPSum = 5_000_000

// SolveBySumDP is the dynamic-programming substitute §4.1 allows for:
// "implementers may substitute an equivalent dynamic-programming...
// algorithm for performance". It answers the identical exact-membership
// question as IsSubsetSum, trading exponential-in-n cost for
// pseudo-polynomial-in-sum(set) cost. Bails out (returning false) above
// maxDPSum, leaving the caller to fall back to IsSubsetSum — the
// contract stays exact as long as the caller does that.
func SolveBySumDP(set []uint64, target uint64) bool {
	var total uint64
	for _, v := range set {
		total += v
	}
	if target > total {
		return false
	}
	if total > maxDPSum {
		log.Printf("[subsetsum] set sum %d exceeds DP bound %d, caller should fall back to the recursive oracle", total, maxDPSum)
		return false
	}
	reachable := make([]bool, total+1)
	reachable[0] = true
	for _, v := range set {
		if v == 0 {
			continue // a zero-valued coin never changes which sums are reachable
		}
		for s := int(total); s >= int(v); s-- {
			if reachable[uint64(s)-v] {
				reachable[uint64(s)] = true
			}
		}
	}
	return reachable[target]
}
