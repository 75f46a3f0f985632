package matcher

import (
	"testing"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

func TestPartitionsMatchEqualSums(t *testing.T) {
	a := models.Partition{{1, 2}, {3}}
	b := models.Partition{{3}, {1, 2}}
	if !PartitionsMatch(a, b) {
		t.Error("expected partitions with identical part-sum multisets to match")
	}
}

// TestPartitionsMatchIsOneWay exercises the documented asymmetry: b may
// carry an extra part-sum with no counterpart in a and still count as
// a match, because every part of a found a counterpart in b.
func TestPartitionsMatchIsOneWay(t *testing.T) {
	a := models.Partition{{3}}
	b := models.Partition{{3}, {9}}
	if !PartitionsMatch(a, b) {
		t.Error("expected a one-way match when every part of a is covered by b")
	}
	if PartitionsMatch(b, a) {
		t.Error("expected the reverse direction to fail since b has an unmatched part-sum")
	}
}

func TestPartSums(t *testing.T) {
	p := models.Partition{{1, 2}, {3, 4}}
	sums := PartSums(p)
	if len(sums) != 2 || sums[0] != 3 || sums[1] != 7 {
		t.Errorf("unexpected part sums: %v", sums)
	}
}

func TestMatchFindsBalancedMapping(t *testing.T) {
	inputs := models.Set{3, 2, 5}
	outputs := models.Set{4, 6}
	mappings := Match(inputs, outputs)
	if len(mappings) == 0 {
		t.Fatal("expected at least one admissible mapping")
	}
	for _, m := range mappings {
		if !PartitionsMatch(m.InputPartition, m.OutputPartition) {
			t.Errorf("mapping failed PartitionsMatch: %+v", m)
		}
	}
}

func TestMatchNoAdmissibleMapping(t *testing.T) {
	inputs := models.Set{1, 1}
	outputs := models.Set{7}
	mappings := Match(inputs, outputs)
	if len(mappings) != 0 {
		t.Errorf("expected no mappings when no part-sum combination balances, got %d", len(mappings))
	}
}
