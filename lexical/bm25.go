package lexical

import (
	"math"
	"slices"
)

// BM25 Okapi parameters.
const (
	K1      = 1.5
	B       = 0.75
	Epsilon = 0.25
)

// Hit is one scored document.
type Hit struct {
	Row   int
	Score float64
}

// Index is a BM25 Okapi index. It is immutable after New.
type Index struct {
	docFreqs []map[string]int
	docLens  []int
	avgdl    float64
	idf      map[string]float64
}

// New tokenizes texts and builds an index over them. Row i of the index
// corresponds to texts[i].
func New(texts []string) (*Index, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyCorpus
	}

	idx := &Index{
		docFreqs: make([]map[string]int, len(texts)),
		docLens:  make([]int, len(texts)),
		idf:      make(map[string]float64),
	}

	// nd counts the documents that contain each term.
	nd := make(map[string]int)
	total := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for term := range freqs {
			nd[term]++
		}
		idx.docFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		total += len(tokens)
	}
	idx.avgdl = float64(total) / float64(len(texts))
	idx.computeIDF(nd, len(texts))
	return idx, nil
}

// computeIDF fills idf. Terms present in more than half the corpus get a
// negative raw idf; those are floored to Epsilon times the mean idf.
func (idx *Index) computeIDF(nd map[string]int, n int) {
	if len(nd) == 0 {
		return
	}
	var sum float64
	var negative []string
	for term, freq := range nd {
		v := math.Log(float64(n)-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idx.idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	floor := Epsilon * (sum / float64(len(nd)))
	for _, term := range negative {
		idx.idf[term] = floor
	}
}

// Size returns the number of indexed documents.
func (idx *Index) Size() int { return len(idx.docLens) }

// IDF returns the inverse document frequency for term, 0 if unseen.
func (idx *Index) IDF(term string) float64 { return idx.idf[term] }

// ScoreAll returns one BM25 score per document for the query tokens.
// Repeated tokens contribute repeatedly.
func (idx *Index) ScoreAll(tokens []string) []float64 {
	scores := make([]float64, len(idx.docLens))
	if idx.avgdl == 0 {
		return scores
	}
	for _, q := range tokens {
		idf, ok := idx.idf[q]
		if !ok {
			continue
		}
		for i, freqs := range idx.docFreqs {
			tf := float64(freqs[q])
			if tf == 0 {
				continue
			}
			norm := K1 * (1 - B + B*float64(idx.docLens[i])/idx.avgdl)
			scores[i] += idf * (tf * (K1 + 1) / (tf + norm))
		}
	}
	return scores
}

// TopN returns up to n documents with a positive score, best first.
// Equal scores keep row order.
func (idx *Index) TopN(tokens []string, n int) []Hit {
	if n <= 0 {
		return nil
	}
	scores := idx.ScoreAll(tokens)
	hits := make([]Hit, 0, len(scores))
	for row, s := range scores {
		if s > 0 {
			hits = append(hits, Hit{Row: row, Score: s})
		}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}
