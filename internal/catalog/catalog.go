// Package catalog answers searches over per-locale document snapshots.
//
// With the per_request strategy every search indexes the locale again, so results always
// reflect the content store. With the cached strategy a locale is indexed once and the
// snapshot is reused until it is invalidated or rebuilt.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/hytale-docs/docsearch/internal/common"
	"github.com/hytale-docs/docsearch/internal/fulltext"
	"github.com/hytale-docs/docsearch/internal/indexing"
	"github.com/hytale-docs/docsearch/internal/metrics"
	"github.com/hytale-docs/docsearch/internal/ranking"
)

// Strategy selects when locale snapshots are built
type Strategy string

const (
	StrategyPerRequest Strategy = "per_request"
	StrategyCached     Strategy = "cached"
)

// ErrTimeout is returned when a search does not complete within Config.Timeout
var ErrTimeout = errors.New("search timed out")

const (
	kindRanked   = "ranked"
	kindFullText = "fulltext"
)

// Builder indexes one locale; *indexing.Indexer is the production implementation
type Builder interface {
	Build(ctx context.Context, locale string) (indexing.Outcome, error)
}

// Config controls the service
type Config struct {
	Strategy      Strategy
	Timeout       time.Duration // Zero disables the bound
	MaxResults    int
	DefaultLocale string
}

// Snapshot is the indexed state of one locale at BuiltAt
type Snapshot struct {
	ID          uuid.UUID
	Locale      string
	Documents   []indexing.Document
	Skipped     []indexing.SkipError
	Fingerprint string
	BuiltAt     time.Time

	// Full-text index, built on first use
	ftOnce sync.Once
	ft     fulltext.Index
	ftErr  error

	// mu guards the reference count of full-text searches.
	// The index is closed once the snapshot is retired and refs drops to zero.
	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool
}

// fullText builds the full-text index on first use. Callers must hold a reference.
func (snap *Snapshot) fullText() (fulltext.Index, error) {
	snap.ftOnce.Do(func() {
		snap.ft, snap.ftErr = fulltext.NewMemIndex(snap.Documents)
	})
	return snap.ft, snap.ftErr
}

// acquire takes a reference; it fails once the index has been closed
func (snap *Snapshot) acquire() bool {
	snap.mu.Lock()
	defer snap.mu.Unlock()
	if snap.closed {
		return false
	}
	snap.refs++
	return true
}

// unref drops a reference and closes a retired snapshot when it was the last one
func (snap *Snapshot) unref() error {
	snap.mu.Lock()
	snap.refs--
	last := snap.retired && snap.refs == 0 && !snap.closed
	if last {
		snap.closed = true
	}
	snap.mu.Unlock()

	if !last {
		return nil
	}
	return snap.closeIndex()
}

// retire marks the snapshot as replaced and closes it when no search holds it.
// It is safe to call more than once.
func (snap *Snapshot) retire() error {
	snap.mu.Lock()
	snap.retired = true
	idle := snap.refs == 0 && !snap.closed
	if idle {
		snap.closed = true
	}
	snap.mu.Unlock()

	if !idle {
		return nil
	}
	return snap.closeIndex()
}

// closeIndex closes the full-text index and prevents it from being built later
func (snap *Snapshot) closeIndex() error {
	snap.ftOnce.Do(func() {})
	if snap.ft == nil {
		return nil
	}
	return snap.ft.Close()
}

func (snap *Snapshot) empty() bool {
	return len(snap.Documents) == 0 && len(snap.Skipped) == 0
}

// RebuildResult reports a forced rebuild
type RebuildResult struct {
	Snapshot *Snapshot
	Updated  bool // Fingerprint differs from the replaced snapshot (or none existed)
}

// holder keeps the current snapshot of one locale
type holder struct {
	// current is read lock-free by searches
	current atomic.Pointer[Snapshot]
}

// Service is the long-lived search entry point shared by the HTTP and MCP surfaces
type Service struct {
	builder Builder
	config  Config
	logger  arbor.ILogger
	metrics *metrics.Metrics

	// holders maps a locale to its *holder
	holders sync.Map

	// refreshMu serializes builds that replace a cached snapshot
	refreshMu sync.Mutex

	// locales holds the locales whose build found content.
	// Only those are used as metric labels; any other locale is reported as unknown.
	locales sync.Map
}

// New creates a service. logger and m may be nil.
func New(builder Builder, config Config, logger arbor.ILogger, m *metrics.Metrics) *Service {
	if config.Strategy == "" {
		config.Strategy = StrategyPerRequest
	}
	if config.MaxResults <= 0 {
		config.MaxResults = ranking.DefaultLimit
	}
	if config.DefaultLocale == "" {
		config.DefaultLocale = "fr"
	}
	if logger == nil {
		logger = common.NewDiscardLogger()
	}

	return &Service{
		builder: builder,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

// Config returns the effective configuration
func (s *Service) Config() Config {
	return s.config
}

// ResolveLocale maps an empty locale to the default one
func (s *Service) ResolveLocale(locale string) string {
	if locale == "" {
		return s.config.DefaultLocale
	}
	return locale
}

// Search ranks the documents of locale against query.
// An empty or whitespace-only query returns an empty slice without indexing.
func (s *Service) Search(ctx context.Context, query, locale string) ([]indexing.Document, error) {
	locale = s.ResolveLocale(locale)
	start := time.Now()

	if len(ranking.Tokenize(query)) == 0 {
		s.metrics.ObserveSearch(s.label(locale), kindRanked, metrics.OutcomeEmpty, time.Since(start))
		return []indexing.Document{}, nil
	}

	results, err := bounded(ctx, s.config.Timeout, func(ctx context.Context) ([]indexing.Document, error) {
		snap, err := s.Snapshot(ctx, locale)
		if err != nil {
			return nil, err
		}
		return ranking.Rank(snap.Documents, query, s.config.MaxResults), nil
	})

	s.observe(locale, kindRanked, len(results), err, start)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchGrouped runs Search and groups the results by category
func (s *Service) SearchGrouped(ctx context.Context, query, locale string) ([]indexing.Document, []ranking.Group, error) {
	results, err := s.Search(ctx, query, locale)
	if err != nil {
		return nil, nil, err
	}
	return results, ranking.GroupByCategory(results), nil
}

// FullText runs a bleve match query over the documents of locale.
// limit <= 0 means the configured result cap.
func (s *Service) FullText(ctx context.Context, query, locale string, limit int) ([]fulltext.Hit, error) {
	locale = s.ResolveLocale(locale)
	start := time.Now()

	if limit <= 0 {
		limit = s.config.MaxResults
	}

	if len(ranking.Tokenize(query)) == 0 {
		s.metrics.ObserveSearch(s.label(locale), kindFullText, metrics.OutcomeEmpty, time.Since(start))
		return []fulltext.Hit{}, nil
	}

	// The reference is taken and dropped inside fn, so a search abandoned on timeout
	// keeps its index open until it returns.
	hits, err := bounded(ctx, s.config.Timeout, func(ctx context.Context) ([]fulltext.Hit, error) {
		snap, err := s.acquire(ctx, locale)
		if err != nil {
			return nil, err
		}
		defer s.unref(snap)

		// Snapshots that are not kept are searched once
		if s.current(locale) != snap {
			s.retire(snap)
		}

		index, err := snap.fullText()
		if err != nil {
			return nil, err
		}
		return fulltext.Search(index, query, limit)
	})

	s.observe(locale, kindFullText, len(hits), err, start)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (s *Service) observe(locale, kind string, n int, err error, start time.Time) {
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrTimeout):
		outcome = metrics.OutcomeTimeout
	case err != nil:
		outcome = metrics.OutcomeError
	case n == 0:
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveSearch(s.label(locale), kind, outcome, time.Since(start))

	if err != nil {
		s.logger.Error().Err(err).Str("locale", locale).Str("kind", kind).Msg("Search failed")
	}
}

// Snapshot returns the snapshot searches of locale are answered from.
// With the cached strategy it is built on first use and reused afterwards.
func (s *Service) Snapshot(ctx context.Context, locale string) (*Snapshot, error) {
	locale = s.ResolveLocale(locale)

	if s.config.Strategy != StrategyCached {
		return s.build(ctx, locale)
	}

	if snap := s.current(locale); snap != nil {
		return snap, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Built by another caller while we were waiting
	if snap := s.current(locale); snap != nil {
		return snap, nil
	}

	snap, err := s.build(ctx, locale)
	if err != nil {
		return nil, err
	}
	s.retire(s.store(locale, snap))
	return snap, nil
}

// Rebuild indexes locale again and makes the result the current snapshot
func (s *Service) Rebuild(ctx context.Context, locale string) (RebuildResult, error) {
	locale = s.ResolveLocale(locale)

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snap, err := s.build(ctx, locale)
	if err != nil {
		return RebuildResult{}, err
	}

	old := s.store(locale, snap)
	s.retire(old)

	updated := old != nil && old.Fingerprint != snap.Fingerprint
	if old == nil {
		updated = !snap.empty()
	}
	s.logger.Info().
		Str("locale", locale).
		Str("snapshot", snap.ID.String()).
		Int("documents", len(snap.Documents)).
		Int("skipped", len(snap.Skipped)).
		Bool("updated", updated).
		Msg("Index rebuilt")

	return RebuildResult{Snapshot: snap, Updated: updated}, nil
}

// Invalidate drops the cached snapshots of the given locales, or of every locale when
// none is given. The next search of an invalidated locale indexes it again.
func (s *Service) Invalidate(locales ...string) {
	if len(locales) == 0 {
		s.holders.Range(func(key, value any) bool {
			s.drop(key.(string), value.(*holder))
			return true
		})
		return
	}

	for _, locale := range locales {
		locale = s.ResolveLocale(locale)
		if value, ok := s.holders.Load(locale); ok {
			s.drop(locale, value.(*holder))
		}
	}
}

func (s *Service) drop(locale string, h *holder) {
	if old := h.current.Swap(nil); old != nil {
		s.logger.Debug().Str("locale", locale).Str("snapshot", old.ID.String()).Msg("Snapshot invalidated")
		s.retire(old)
	}
}

// acquire returns a referenced snapshot of locale. A snapshot closed between the load
// and the reference was replaced meanwhile, so the current one is loaded again.
func (s *Service) acquire(ctx context.Context, locale string) (*Snapshot, error) {
	for {
		snap, err := s.Snapshot(ctx, locale)
		if err != nil {
			return nil, err
		}
		if snap.acquire() {
			return snap, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (s *Service) unref(snap *Snapshot) {
	if err := snap.unref(); err != nil {
		s.logger.Warn().Err(err).Str("snapshot", snap.ID.String()).Msg("Error closing retired full-text index")
	}
}

// retire closes the full-text index of a replaced snapshot once no search holds it
func (s *Service) retire(old *Snapshot) {
	if old == nil {
		return
	}
	if err := old.retire(); err != nil {
		s.logger.Warn().Err(err).Str("snapshot", old.ID.String()).Msg("Error closing retired full-text index")
	}
}

// Close retires every snapshot. Indexes still in use close when their last search returns.
func (s *Service) Close() error {
	var errs []error
	s.holders.Range(func(_, value any) bool {
		if old := value.(*holder).current.Swap(nil); old != nil {
			if err := old.retire(); err != nil {
				errs = append(errs, err)
			}
		}
		return true
	})
	return errors.Join(errs...)
}

// current returns the kept snapshot of locale, if any
func (s *Service) current(locale string) *Snapshot {
	value, ok := s.holders.Load(locale)
	if !ok {
		return nil
	}
	return value.(*holder).current.Load()
}

// store makes snap the kept snapshot of locale and returns the one it replaces.
// Locales without any file are not kept, so arbitrary locale names cannot pile up.
func (s *Service) store(locale string, snap *Snapshot) *Snapshot {
	if snap.empty() {
		value, ok := s.holders.Load(locale)
		if !ok {
			return nil
		}
		return value.(*holder).current.Swap(nil)
	}

	value, _ := s.holders.LoadOrStore(locale, &holder{})
	return value.(*holder).current.Swap(snap)
}

func (s *Service) build(ctx context.Context, locale string) (*Snapshot, error) {
	out, err := s.builder.Build(ctx, locale)
	if err == nil && (len(out.Documents) > 0 || len(out.Skipped) > 0) {
		s.locales.Store(locale, struct{}{})
	}
	s.metrics.ObserveBuild(s.label(locale), len(out.Documents), len(out.Skipped), err)
	if err != nil {
		return nil, fmt.Errorf("failed to index locale %q: %w", locale, err)
	}

	return &Snapshot{
		ID:          uuid.New(),
		Locale:      locale,
		Documents:   out.Documents,
		Skipped:     out.Skipped,
		Fingerprint: Fingerprint(out.Documents),
		BuiltAt:     time.Now(),
	}, nil
}

// label returns the metric label of locale
func (s *Service) label(locale string) string {
	if locale == s.config.DefaultLocale {
		return locale
	}
	if _, ok := s.locales.Load(locale); ok {
		return locale
	}
	return metrics.UnknownLocale
}

type result[T any] struct {
	value T
	err   error
}

// bounded runs fn under timeout. The caller gets ErrTimeout as soon as the deadline
// passes, even when fn is blocked in a read that does not observe ctx.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		value, err := fn(ctx)
		done <- result[T]{value, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return r.value, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}
