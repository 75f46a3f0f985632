package aggregator

import (
	"testing"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

func TestAggregateAllZeros(t *testing.T) {
	stats := Aggregate([]float64{0, 0, 0})
	if stats.Zeros != 3 || stats.Ones != 0 {
		t.Fatalf("expected 3 zeros, got %+v", stats)
	}
	if stats.Average != 0 {
		t.Errorf("expected average 0, got %f", stats.Average)
	}
}

func TestAggregateMixed(t *testing.T) {
	stats := Aggregate([]float64{0, 1, 0.5})
	if stats.Zeros != 1 || stats.Ones != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.AverageOther != 0.5 {
		t.Errorf("expected average_other 0.5, got %f", stats.AverageOther)
	}
	expectedAverage := (0 + 1 + 0.5) / 3
	if stats.Average != expectedAverage {
		t.Errorf("expected average %f, got %f", expectedAverage, stats.Average)
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	if stats.Zeros != 0 || stats.Ones != 0 || stats.Average != 0 || stats.AverageOther != 0 {
		t.Errorf("expected zero-valued stats, got %+v", stats)
	}
}

// TestInOutProbabilitySinglePair exercises the single-mapping-pair
// scenario: one mapping where the part containing an in-coin and the
// part containing an out-coin have equal sums must yield probability 1
// for that coin pair, and 0 whenever the sums differ.
func TestInOutProbabilitySinglePair(t *testing.T) {
	inCoins := models.Set{3, 2}
	outCoins := models.Set{5, 1}
	mappings := []models.Mapping{
		{
			InputPartition:  models.Partition{{3, 2}},
			OutputPartition: models.Partition{{5}, {1}},
			InputIndices:    [][]int{{0, 1}},
			OutputIndices:   [][]int{{0}, {1}},
		},
	}
	if p := InOutProbability(0, 0, mappings, inCoins, outCoins); p != 1 {
		t.Errorf("expected probability 1 for matching sums, got %f", p)
	}
	if p := InOutProbability(0, 1, mappings, inCoins, outCoins); p != 0 {
		t.Errorf("expected probability 0 for mismatched sums, got %f", p)
	}
}

func TestInInProbabilitySamePart(t *testing.T) {
	inCoins := models.Set{3, 2, 4}
	mappings := []models.Mapping{
		{InputPartition: models.Partition{{3, 2}, {4}}, InputIndices: [][]int{{0, 1}, {2}}},
	}
	if p := InInProbability(0, 1, mappings, inCoins); p != 1 {
		t.Errorf("expected probability 1 for coins in same part, got %f", p)
	}
	if p := InInProbability(0, 2, mappings, inCoins); p != 0 {
		t.Errorf("expected probability 0 for coins in different parts, got %f", p)
	}
}

func TestOutOutProbabilitySamePart(t *testing.T) {
	outCoins := models.Set{5, 1, 2}
	mappings := []models.Mapping{
		{OutputPartition: models.Partition{{5, 1}, {2}}, OutputIndices: [][]int{{0, 1}, {2}}},
	}
	if p := OutOutProbability(0, 1, mappings, outCoins); p != 1 {
		t.Errorf("expected probability 1, got %f", p)
	}
	if p := OutOutProbability(1, 2, mappings, outCoins); p != 0 {
		t.Errorf("expected probability 0, got %f", p)
	}
}

// TestPartOfPositional verifies the positional-identity invariant: two
// equal-valued coins at different indices are tracked as distinct coins,
// each resolving to the part its own index was assigned to rather than
// to whichever equal-valued part is scanned first.
func TestPartOfPositional(t *testing.T) {
	indices := [][]int{{0}, {1}}
	result := partOf(2, indices)
	if result[0] == result[1] {
		t.Errorf("expected the two equal-valued coins to resolve to distinct parts, got %v", result)
	}
}

// TestPartOfDisambiguatesDuplicateValuesAcrossDifferentSums reproduces
// the scenario where value-based matching fails: coins {5, 5, 1} split
// as [[5], [5, 1]], with the true historical assignment putting original
// index 0 in the part summing to 6 and index 1 in the part summing to
// 5. A value-matching reconstruction can't tell these apart; partOf,
// driven by recorded indices, must.
func TestPartOfDisambiguatesDuplicateValuesAcrossDifferentSums(t *testing.T) {
	inCoins := models.Set{5, 5, 1}
	mapping := models.Mapping{
		InputPartition: models.Partition{{5}, {5, 1}},
		InputIndices:   [][]int{{1}, {0, 2}},
	}
	result := partOf(len(inCoins), mapping.InputIndices)
	if result[0] != 1 {
		t.Errorf("expected original index 0 to resolve to the part summing to 6, got part %d", result[0])
	}
	if result[1] != 0 {
		t.Errorf("expected original index 1 to resolve to the part summing to 5, got part %d", result[1])
	}
	if result[2] != 1 {
		t.Errorf("expected original index 2 to resolve to the part summing to 6, got part %d", result[2])
	}
}

func TestIsDerivedSingleSplit(t *testing.T) {
	base := models.Partition{{1, 2, 3}, {3, 4}}
	plusOne := models.Partition{{1, 2}, {3}, {3, 4}}
	if !IsDerived(base, plusOne) {
		t.Errorf("expected base to be derived into plusOne")
	}
}

func TestIsDerivedNoRelation(t *testing.T) {
	base := models.Partition{{1, 2, 3}, {3, 4}}
	plusOne := models.Partition{{9}, {9}, {9}}
	if IsDerived(base, plusOne) {
		t.Errorf("expected unrelated partitions to not be derived")
	}
}

func TestFilterDerivedPartitionsDropsDerived(t *testing.T) {
	coarse := models.Mapping{InputPartition: models.Partition{{1, 2, 3}, {3, 4}}}
	fine := models.Mapping{InputPartition: models.Partition{{1, 2}, {3}, {3, 4}}}
	result := FilterDerivedPartitions([]models.Mapping{coarse, fine})
	if len(result) != 1 {
		t.Fatalf("expected only the finer mapping to survive, got %d", len(result))
	}
	if len(result[0].InputPartition) != 3 {
		t.Errorf("expected surviving mapping to be the 3-part one, got %d parts", len(result[0].InputPartition))
	}
}

func TestFilterDerivedPartitionsEmpty(t *testing.T) {
	if result := FilterDerivedPartitions(nil); result != nil {
		t.Errorf("expected nil for empty input, got %v", result)
	}
}
