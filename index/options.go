package index

import (
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/poiesic/evidentia/chunking"
)

// DefaultExtensions lists the file extensions indexed by default.
var DefaultExtensions = []string{".txt", ".md"}

// Options configures a corpus build.
type Options struct {
	// DocsDir is the corpus root. Files are discovered recursively.
	DocsDir string
	// OutDir receives the corpus store and build_summary.json.
	OutDir string
	// Model is recorded in the build summary.
	Model string

	ChunkSize  int
	Overlap    int
	Extensions []string
	// MaxDocs limits the number of files indexed. Zero means no limit.
	MaxDocs int

	BatchSize      int
	Workers        int
	MaxRetries     int
	RetryBaseDelay time.Duration
	// LockTimeout bounds how long Build waits for a concurrent build to finish.
	LockTimeout time.Duration

	// Progress receives a progress line while embedding. Nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = chunking.DefaultChunkSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = max(1, runtime.NumCPU()/2)
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 500 * time.Millisecond
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}
