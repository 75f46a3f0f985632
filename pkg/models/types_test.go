package models

import "testing"

func TestSetSum(t *testing.T) {
	s := Set{1, 2, 3, 4}
	if got := s.Sum(); got != 10 {
		t.Errorf("expected sum 10, got %d", got)
	}
}

func TestSetCloneIsIndependent(t *testing.T) {
	s := Set{1, 2, 3}
	clone := s.Clone()
	clone[0] = 99
	if s[0] == 99 {
		t.Error("mutating the clone affected the original")
	}
}

func TestPartitionCloneIsIndependent(t *testing.T) {
	p := Partition{{1, 2}, {3}}
	clone := p.Clone()
	clone[0][0] = 99
	if p[0][0] == 99 {
		t.Error("mutating the clone affected the original")
	}
}

func TestDistributionValidateRequiresEntries(t *testing.T) {
	d := Distribution{}
	if err := d.Validate(); err == nil {
		t.Error("expected an error for an empty distribution")
	}
}

func TestDistributionValidateRequiresStrictlyIncreasing(t *testing.T) {
	d := Distribution{CumulativeNormalized: []CoinProbability{
		{Coin: 100, Cumulative: 0.5},
		{Coin: 200, Cumulative: 0.5},
	}}
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a non-increasing cumulative sequence")
	}
}

func TestDistributionValidateRequiresFinalOne(t *testing.T) {
	d := Distribution{CumulativeNormalized: []CoinProbability{
		{Coin: 100, Cumulative: 0.5},
		{Coin: 200, Cumulative: 0.9},
	}}
	if err := d.Validate(); err == nil {
		t.Error("expected an error when the final cumulative is not 1.0")
	}
}

func TestDistributionValidateAccepts(t *testing.T) {
	d := Distribution{CumulativeNormalized: []CoinProbability{
		{Coin: 100, Cumulative: 0.5},
		{Coin: 200, Cumulative: 1.0},
	}}
	if err := d.Validate(); err != nil {
		t.Errorf("expected a well-formed distribution to validate, got %v", err)
	}
}

func TestRunDurationMillis(t *testing.T) {
	r := Run{DurationSecs: 2, DurationNano: 500_000_000}
	if got := r.DurationMillis(); got != 2500 {
		t.Errorf("expected 2500ms, got %f", got)
	}
}
