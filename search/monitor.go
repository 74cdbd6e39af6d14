package search

import (
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/query"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to trace intermediate steps and results. Hooks
// are called sequentially from the calling goroutine.
type Monitor interface {
	Start(q query.Queries)
	AfterVectorSearch(hits []Hit)
	AfterLexicalSearch(hits []Hit, available bool)
	AfterFusion(fused []Hit)
	Finish(results []core.Retrieval, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ query.Queries)              {}
func (n *noopMonitor) AfterVectorSearch(_ []Hit)          {}
func (n *noopMonitor) AfterLexicalSearch(_ []Hit, _ bool) {}
func (n *noopMonitor) AfterFusion(_ []Hit)                {}
func (n *noopMonitor) Finish(_ []core.Retrieval, _ error) {}
