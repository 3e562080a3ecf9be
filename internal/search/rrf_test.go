package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseLiteralExample(t *testing.T) {
	lists := []RankedList{
		{Keys: []string{"a", "b", "c"}, Weight: 0.5},
		{Keys: []string{"c", "a", "d"}, Weight: 0.5},
	}

	fused := Fuse(lists, DefaultRRFK)

	require := []string{"a", "c"}
	got := make([]string, 0, 2)
	for _, f := range fused[:2] {
		got = append(got, f.DocumentKey)
	}
	assert.Equal(t, require, got)
}

func TestFuseSortsDescendingThenByKey(t *testing.T) {
	lists := []RankedList{
		{Keys: []string{"x", "y"}, Weight: 1.0},
	}
	fused := Fuse(lists, 60)
	assert.Equal(t, "x", fused[0].DocumentKey)
	assert.Equal(t, "y", fused[1].DocumentKey)
	assert.Greater(t, fused[0].HybridScore, fused[1].HybridScore)
}

func TestFuseDeduplicatesAcrossLists(t *testing.T) {
	lists := []RankedList{
		{Keys: []string{"a", "b"}, Weight: 0.5},
		{Keys: []string{"a"}, Weight: 0.5},
	}
	fused := Fuse(lists, 60)
	assert.Len(t, fused, 2)

	var aScore float64
	for _, f := range fused {
		if f.DocumentKey == "a" {
			aScore = f.HybridScore
		}
	}
	assert.Greater(t, aScore, 0.0)
}

func TestFuseAbsentDocumentFallsBackToWorstRankNotZero(t *testing.T) {
	lists := []RankedList{
		{Keys: []string{"a", "b"}, Weight: 0.5},
		{Keys: []string{"b"}, Weight: 0.5},
	}
	fused := Fuse(lists, 60)

	var aScore, bScore float64
	for _, f := range fused {
		switch f.DocumentKey {
		case "a":
			aScore = f.HybridScore
		case "b":
			bScore = f.HybridScore
		}
	}

	// a: rank 1 in list 1, absent from list 2 -> fallback rank len(list2)+1=2.
	// b: rank 2 in list 1, rank 1 in list 2.
	wantA := 0.5/61 + 0.5/62
	wantB := 0.5/62 + 0.5/61
	assert.InDelta(t, wantA, aScore, 1e-9)
	assert.InDelta(t, wantB, bScore, 1e-9)
	assert.InDelta(t, wantA, wantB, 1e-9, "a and b must tie under the worst-possible-rank fallback")
}

func TestNormalizeWeightsNoRenormalizationNeeded(t *testing.T) {
	weights, renormalized := NormalizeWeights([]float64{0.5, 0.5})
	assert.False(t, renormalized)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, weights, 1e-9)
}

func TestNormalizeWeightsRenormalizes(t *testing.T) {
	weights, renormalized := NormalizeWeights([]float64{1, 1, 2})
	assert.True(t, renormalized)
	assert.InDelta(t, 1.0, weights[0]+weights[1]+weights[2], 1e-9)
}

func TestNormalizeWeightsAllZeroFallsBackToUniform(t *testing.T) {
	weights, renormalized := NormalizeWeights([]float64{0, 0})
	assert.True(t, renormalized)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, weights, 1e-9)
}
