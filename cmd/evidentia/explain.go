package main

import (
	"fmt"
	"io"

	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/query"
	"github.com/poiesic/evidentia/search"
)

// explainMonitor prints each retrieval stage as it completes.
type explainMonitor struct {
	w io.Writer
}

var _ search.Monitor = (*explainMonitor)(nil)

func newExplainMonitor(w io.Writer) *explainMonitor {
	return &explainMonitor{w: w}
}

func (m *explainMonitor) Start(q query.Queries) {
	printQueries(m.w, q)
	fmt.Fprintln(m.w)
}

func (m *explainMonitor) AfterVectorSearch(hits []search.Hit) {
	m.printHits("Vector", hits)
}

func (m *explainMonitor) AfterLexicalSearch(hits []search.Hit, available bool) {
	if !available {
		fmt.Fprintln(m.w, "Lexical: unavailable")
		return
	}
	m.printHits("Lexical", hits)
}

func (m *explainMonitor) AfterFusion(fused []search.Hit) {
	m.printHits("Fused", fused)
}

func (m *explainMonitor) Finish(results []core.Retrieval, err error) {
	if err != nil {
		fmt.Fprintf(m.w, "Failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.w, "Found %d hits\n", len(results))
	for i, r := range results {
		fmt.Fprintf(m.w, "%d: %s (%s)[%0.4f]\n", i+1, r.Chunk.Title, r.Chunk.ID, r.Score)
	}
}

func (m *explainMonitor) printHits(stage string, hits []search.Hit) {
	fmt.Fprintf(m.w, "%s (%d):\n", stage, len(hits))
	for _, h := range hits {
		fmt.Fprintf(m.w, "  row %d [%0.4f]\n", h.Row, h.Score)
	}
}
