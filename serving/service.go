package serving

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/evidence"
	"github.com/poiesic/evidentia/search"
)

// Defaults for a Service.
const (
	DefaultTimeout       = 600 * time.Millisecond
	DefaultJitterMin     = -100 * time.Millisecond
	DefaultJitterMax     = 150 * time.Millisecond
	DefaultTopK          = 8
	DefaultMaxCards      = 2
	DefaultCacheTTL      = 120 * time.Second
	DefaultCacheCapacity = 256
	DefaultPoolSize      = 32
)

// minBudget is the smallest retrieval deadline a negative jitter can produce.
const minBudget = time.Millisecond

// Retriever runs hybrid retrieval for a summary.
type Retriever interface {
	Retrieve(ctx context.Context, s *core.Summary, k int) ([]core.Retrieval, error)
}

var _ Retriever = (*search.Retriever)(nil)

// Response is the result of one evidence request.
type Response struct {
	Items []core.EvidenceCard `json:"items"`
	// Degraded is set when retrieval failed or timed out and the items
	// come from fallback cards only.
	Degraded bool `json:"degraded"`
	// Cached is set when the response was served from the cache.
	Cached    bool   `json:"cached"`
	RequestID string `json:"request_id"`
}

// Stats is a snapshot of service counters.
type Stats struct {
	Requests     uint64     `json:"requests"`
	Degraded     uint64     `json:"degraded"`
	Timeouts     uint64     `json:"timeouts"`
	Cache        CacheStats `json:"cache"`
	RetrievalOn  bool       `json:"retrieval_enabled"`
	PoolCapacity int        `json:"pool_capacity"`
	PoolRunning  int        `json:"pool_running"`
}

// Service serves evidence requests. It is safe for concurrent use.
type Service struct {
	retriever Retriever
	fallback  evidence.FallbackSource
	cache     *Cache
	pool      *ants.Pool
	logger    *slog.Logger

	timeout   time.Duration
	jitterMin time.Duration
	jitterMax time.Duration
	topK      int
	maxCards  int
	cacheTTL  time.Duration
	cacheCap  int
	poolSize  int
	now       func() time.Time

	requests atomic.Uint64
	degraded atomic.Uint64
	timeouts atomic.Uint64
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTimeout sets the base retrieval timeout.
// Default is 600ms.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout %v", ErrInvalidOption, d)
		}
		s.timeout = d
		return nil
	}
}

// WithJitter sets the range, inclusive, of the random offset added to the
// timeout for each request.
// Default is [-100ms, +150ms].
func WithJitter(lo, hi time.Duration) Option {
	return func(s *Service) error {
		if lo > hi {
			return fmt.Errorf("%w: jitter [%v, %v]", ErrInvalidOption, lo, hi)
		}
		s.jitterMin, s.jitterMax = lo, hi
		return nil
	}
}

// WithTopK sets how many retrievals are requested per summary.
// Default is 8.
func WithTopK(k int) Option {
	return func(s *Service) error {
		if k <= 0 {
			return fmt.Errorf("%w: top-k %d", ErrInvalidOption, k)
		}
		s.topK = k
		return nil
	}
}

// WithMaxCards caps the cards in a response.
// Default is 2.
func WithMaxCards(n int) Option {
	return func(s *Service) error {
		if n <= 0 {
			return fmt.Errorf("%w: max cards %d", ErrInvalidOption, n)
		}
		s.maxCards = n
		return nil
	}
}

// WithCache sets the cache TTL and capacity.
// Default is 120s and 256 entries.
func WithCache(ttl time.Duration, capacity int) Option {
	return func(s *Service) error {
		if ttl <= 0 || capacity <= 0 {
			return fmt.Errorf("%w: cache ttl %v capacity %d", ErrInvalidOption, ttl, capacity)
		}
		s.cacheTTL, s.cacheCap = ttl, capacity
		return nil
	}
}

// WithPoolSize sets the number of concurrent retrievals. Requests beyond
// it are not queued; they degrade to fallback cards.
// Default is 32.
func WithPoolSize(n int) Option {
	return func(s *Service) error {
		if n <= 0 {
			return fmt.Errorf("%w: pool size %d", ErrInvalidOption, n)
		}
		s.poolSize = n
		return nil
	}
}

// WithClock sets the time source used by the cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// New creates a Service. retriever may be nil, in which case every
// response is built from fallback cards only.
func New(retriever Retriever, fallback evidence.FallbackSource, opts ...Option) (*Service, error) {
	if fallback == nil {
		return nil, ErrFallbackRequired
	}

	s := &Service{
		retriever: retriever,
		fallback:  fallback,
		logger:    slog.Default(),
		timeout:   DefaultTimeout,
		jitterMin: DefaultJitterMin,
		jitterMax: DefaultJitterMax,
		topK:      DefaultTopK,
		maxCards:  DefaultMaxCards,
		cacheTTL:  DefaultCacheTTL,
		cacheCap:  DefaultCacheCapacity,
		poolSize:  DefaultPoolSize,
		now:       time.Now,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "evidence-service")

	pool, err := ants.NewPool(s.poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("creating retrieval pool: %w", err)
	}
	s.pool = pool
	s.cache = NewCache(s.cacheTTL, s.cacheCap, s.now)

	if s.retriever == nil {
		s.logger.Warn("retrieval disabled, serving fallback evidence only")
	}
	return s, nil
}

// Release stops the worker pool. In-flight retrievals are abandoned.
func (s *Service) Release() {
	s.pool.Release()
}

// Evidence returns the evidence cards for summary. Backend failures
// degrade the response instead of returning an error.
func (s *Service) Evidence(ctx context.Context, summary *core.Summary) (*Response, error) {
	if err := core.ValidateSummary(summary); err != nil {
		return nil, err
	}
	sum := normalized(summary)
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)
	s.requests.Add(1)

	key := sum.Fingerprint()
	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("cache hit", "fingerprint", key[:12])
		cached.Cached = true
		cached.RequestID = requestID
		return &cached, nil
	}

	rets, degraded := s.retrieve(ctx, &sum, logger)
	if degraded {
		s.degraded.Add(1)
	}
	fallback := s.fallback.Cards(&sum)

	resp := Response{
		Items: evidence.Assemble(rets, fallback, evidence.Options{
			MaxCards: s.maxCards,
			Keywords: evidence.Keywords(&sum),
		}),
		Degraded:  degraded,
		RequestID: requestID,
	}
	// A caller that went away says nothing about the backend.
	if ctx.Err() == nil {
		s.cache.Put(key, resp)
	}

	logger.Info("evidence assembled",
		"retrieved", len(rets), "fallback", len(fallback), "cards", len(resp.Items), "degraded", degraded)
	return &resp, nil
}

type retrieveResult struct {
	rets []core.Retrieval
	err  error
}

// retrieve runs the retriever on the pool under the jittered deadline.
// It reports degraded for any outcome other than a clean result.
func (s *Service) retrieve(ctx context.Context, sum *core.Summary, logger *slog.Logger) ([]core.Retrieval, bool) {
	if s.retriever == nil {
		return nil, false
	}

	budget := s.budget()
	rctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// Buffered so an abandoned task can always deliver and exit.
	done := make(chan retrieveResult, 1)
	err := s.pool.Submit(func() {
		var res retrieveResult
		defer func() {
			if p := recover(); p != nil {
				res = retrieveResult{err: fmt.Errorf("%w: %v", ErrRetrievalPanic, p)}
			}
			done <- res
		}()
		res.rets, res.err = s.retriever.Retrieve(rctx, sum, s.topK)
	})
	if err != nil {
		logger.Warn("retrieval not scheduled, using fallback", "err", err)
		return nil, true
	}

	select {
	case res := <-done:
		if res.err != nil {
			s.logRetrievalError(logger, res.err)
			return nil, true
		}
		return res.rets, false
	case <-rctx.Done():
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			s.timeouts.Add(1)
			logger.Info("retrieval timed out, using fallback", "budget", budget, "err", ErrRetrievalTimeout)
		} else {
			logger.Info("request canceled during retrieval, using fallback", "err", rctx.Err())
		}
		return nil, true
	}
}

func (s *Service) logRetrievalError(logger *slog.Logger, err error) {
	var re *search.RetrievalError
	if errors.As(err, &re) {
		switch re.Stage {
		case search.StagePanic, search.StageResolve:
			logger.Warn("retrieval failed, using fallback", "stage", re.Stage, "err", re.Err)
		default:
			logger.Info("retrieval failed, using fallback", "stage", re.Stage, "err", re.Err)
		}
		return
	}
	logger.Warn("retrieval failed, using fallback", "err", err)
}

// budget returns the timeout plus a uniformly random jitter in
// [jitterMin, jitterMax] at millisecond granularity.
func (s *Service) budget() time.Duration {
	d := s.timeout + s.jitterMin
	if span := (s.jitterMax - s.jitterMin) / time.Millisecond; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)+1)) * time.Millisecond
	}
	return max(d, minBudget)
}

// Stats returns a snapshot of service and cache counters.
func (s *Service) Stats() Stats {
	return Stats{
		Requests:     s.requests.Load(),
		Degraded:     s.degraded.Load(),
		Timeouts:     s.timeouts.Load(),
		Cache:        s.cache.Stats(),
		RetrievalOn:  s.retriever != nil,
		PoolCapacity: s.pool.Cap(),
		PoolRunning:  s.pool.Running(),
	}
}

// MaxBudget returns the longest retrieval deadline a request can get.
func (s *Service) MaxBudget() time.Duration {
	return max(s.timeout+s.jitterMax, minBudget)
}

// normalized returns a normalized copy of summary that shares no slices
// with it.
func normalized(summary *core.Summary) core.Summary {
	sum := *summary
	sum.Codes = core.Codes{
		Diagnosis: slices.Clone(summary.Codes.Diagnosis),
		Procedure: slices.Clone(summary.Codes.Procedure),
		Labels:    slices.Clone(summary.Codes.Labels),
	}
	sum.Normalize()
	return sum
}
