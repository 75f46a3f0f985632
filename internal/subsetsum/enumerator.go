package subsetsum

// Enumerator lazily walks every subset sum of a set (with multiplicity),
// in bitmask order 0 .. 2^n-1 including 0 for the empty subset. It is
// restartable by constructing a fresh Enumerator; the sequence is finite
// of length 2^n.
//
// Grounded on the bitmask subset walk formerly used for meet-in-the-middle
// matching, generalized from "enumerate both halves of a
// meet-in-the-middle split" to "enumerate every subset of the whole
// set".
type Enumerator struct {
	set     []uint64
	pattern uint64
	limit   uint64
	done    bool
}

// New builds an Enumerator over set. len(set) must be below
// models.MaxSetSize: the pattern space is a uint64 bitmask and its bound
// 2^n must fit in a uint64 (at 64 elements the bound wraps to 0 and
// nothing is produced).
func New(set []uint64) *Enumerator {
	return &Enumerator{
		set:   set,
		limit: uint64(1) << uint(len(set)),
	}
}

// Next returns the next subset sum and true, or (0, false) once every
// subset (including the empty one) has been produced.
func (e *Enumerator) Next() (uint64, bool) {
	if e.done || e.pattern >= e.limit {
		e.done = true
		return 0, false
	}
	var sum uint64
	for i, v := range e.set {
		if e.pattern&(uint64(1)<<uint(i)) != 0 {
			sum += v
		}
	}
	e.pattern++
	return sum, true
}

// All drains the Enumerator into a slice; convenience for filter
// construction where laziness buys nothing because every value is
// inserted into a bloom filter anyway.
func All(set []uint64) []uint64 {
	e := New(set)
	sums := make([]uint64, 0, e.limit)
	for {
		sum, ok := e.Next()
		if !ok {
			return sums
		}
		sums = append(sums, sum)
	}
}
