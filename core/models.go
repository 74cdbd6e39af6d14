package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocChunk is one retrievable span of a source document.
// Start and End are character offsets into the normalized source text.
type DocChunk struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	Source  string            `json:"source"`
	Text    string            `json:"text"`
	File    string            `json:"file"`
	Start   int               `json:"start"`
	End     int               `json:"end"`
	URL     string            `json:"url,omitempty"`
	Year    int               `json:"year,omitempty"` // 0 when unknown
	Section string            `json:"section,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// Retrieval is a resolved chunk paired with its fused relevance score.
type Retrieval struct {
	Chunk DocChunk
	Score float64
}

// EvidenceCard is the user-facing rendering of one retrieved or fallback reference.
type EvidenceCard struct {
	Rank    int               `json:"rank"`
	Score   float64           `json:"score"`
	Title   string            `json:"title"`
	Snippet string            `json:"snippet"`
	Source  string            `json:"source"`
	Link    string            `json:"link"`
	Year    string            `json:"year"`
	Section string            `json:"section"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// BuildSummary records what a corpus build produced.
type BuildSummary struct {
	DocsDir      string    `json:"docs_dir"`
	OutDir       string    `json:"out_dir"`
	Model        string    `json:"model"`
	FilesIndexed int       `json:"files_indexed"`
	Chunks       int       `json:"chunks"`
	Dim          int       `json:"dim"`
	ChunkSize    int       `json:"chunk_size"`
	Overlap      int       `json:"overlap"`
	StorePath    string    `json:"store_path"`
	SummaryPath  string    `json:"summary_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContentHash returns a short BLAKE2b digest of text, hex encoded.
// Identical input always yields the identical hash.
func ContentHash(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
