package search

import (
	"math"
	"slices"
)

// Default fusion weights.
const (
	DefaultVectorWeight  = 0.6
	DefaultLexicalWeight = 0.4
)

// Hit is a scored corpus row.
type Hit struct {
	Row   int
	Score float64
}

// MinMax rescales scores to [0,1]. A list with zero range maps to all zeros.
func MinMax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	lo, hi := slices.Min(scores), slices.Max(scores)
	out := make([]float64, len(scores))
	if hi <= lo+1e-12 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

// Fuse combines vector and lexical hits into one ranking.
//
// Each list is min-max normalized on its own. Rows in either list get
// wv*vector + wl*lexical, where a row absent from a list scores 0 on that
// side. When one list is empty the other's normalized scores are returned
// unweighted. Output is sorted by descending score with ties in ascending
// row order, so equal inputs always give equal output.
func Fuse(vec, lex []Hit, wv, wl float64) []Hit {
	switch {
	case len(vec) == 0 && len(lex) == 0:
		return nil
	case len(lex) == 0:
		return sortHits(normalized(vec))
	case len(vec) == 0:
		return sortHits(normalized(lex))
	}

	vecNorm := scoreMap(normalized(vec))
	lexNorm := scoreMap(normalized(lex))

	rows := make([]int, 0, len(vecNorm)+len(lexNorm))
	for row := range vecNorm {
		rows = append(rows, row)
	}
	for row := range lexNorm {
		if _, ok := vecNorm[row]; !ok {
			rows = append(rows, row)
		}
	}

	fused := make([]Hit, len(rows))
	for i, row := range rows {
		fused[i] = Hit{Row: row, Score: wv*vecNorm[row] + wl*lexNorm[row]}
	}
	return sortHits(fused)
}

func normalized(hits []Hit) []Hit {
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	norm := MinMax(scores)
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{Row: h.Row, Score: norm[i]}
	}
	return out
}

// scoreMap keys hits by row. A row listed twice keeps its best score.
func scoreMap(hits []Hit) map[int]float64 {
	m := make(map[int]float64, len(hits))
	for _, h := range hits {
		if prev, ok := m[h.Row]; !ok || h.Score > prev {
			m[h.Row] = h.Score
		}
	}
	return m
}

func sortHits(hits []Hit) []Hit {
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Row - b.Row
	})
	return hits
}

// round4 rounds to 4 decimal places.
func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
