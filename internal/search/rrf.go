package search

import "sort"

// DefaultRRFK is the standard RRF smoothing constant, k=60, the same value
// used by Azure AI Search and OpenSearch's hybrid ranking.
const DefaultRRFK = 60

// RankedList is one signal's ranked output, keyed by document key in rank
// order (index 0 = rank 1).
type RankedList struct {
	Keys   []string
	Weight float64
}

// FusedResult is one document's combined score after RRF, and which
// signals it appeared in.
type FusedResult struct {
	DocumentKey string
	HybridScore float64
	PerSignal   map[int]int // list index -> 1-indexed rank, absent if not present
}

// Fuse combines 2 or 3 ranked lists via weighted Reciprocal Rank Fusion:
//
//	hybrid(d) = Σ_i w_i · 1/(rrf_k + r_i(d))
//
// r_i(d) is d's 1-indexed rank in list i, or len(list_i)+1 — the
// worst-possible rank — when d does not appear in list i at all. Every
// list contributes a term for every document in the union, so an absent
// document still scores as if ranked last rather than contributing zero; a
// document missing from one list can therefore tie one present in every
// list.
// This is pure and deterministic: equal inputs always produce equal
// output, and swapping two equally-weighted lists swaps their
// contributions symmetrically.
func Fuse(lists []RankedList, rrfK int) []FusedResult {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}

	scores := make(map[string]*FusedResult)
	order := make([]string, 0)
	rankOf := make([]map[string]int, len(lists))

	for i, list := range lists {
		rankOf[i] = make(map[string]int, len(list.Keys))
		for rank, key := range list.Keys {
			rankOf[i][key] = rank + 1
			if _, ok := scores[key]; !ok {
				scores[key] = &FusedResult{DocumentKey: key, PerSignal: make(map[int]int)}
				order = append(order, key)
			}
			scores[key].PerSignal[i] = rank + 1
		}
	}

	for _, key := range order {
		r := scores[key]
		for i, list := range lists {
			rank, present := rankOf[i][key]
			if !present {
				rank = len(list.Keys) + 1
			}
			r.HybridScore += list.Weight / float64(rrfK+rank)
		}
	}

	results := make([]FusedResult, 0, len(order))
	for _, key := range order {
		results = append(results, *scores[key])
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].HybridScore != results[j].HybridScore {
			return results[i].HybridScore > results[j].HybridScore
		}
		return results[i].DocumentKey < results[j].DocumentKey
	})
	return results
}

// NormalizeWeights scales weights to sum to 1, reporting whether it had to
// rescale.
func NormalizeWeights(weights []float64) (normalized []float64, renormalized bool) {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		equal := 1.0 / float64(len(weights))
		out := make([]float64, len(weights))
		for i := range out {
			out[i] = equal
		}
		return out, true
	}
	if sum == 1 {
		return weights, false
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, true
}
