// Package resolver discovers which of several candidate paths a finance
// backend actually serves for each logical operation, and remembers the
// answer per base URL.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"finance/internal/cache"
	"finance/internal/log"
	"finance/internal/storage"
)

// StorageKeyPrefix starts every persisted route key.
const StorageKeyPrefix = "finance.route"

// DefaultMemoryCacheSize bounds the in-memory cache when no cache is given.
const DefaultMemoryCacheSize = 128

// ErrNoBaseURL means the resolver was built without a base URL.
var ErrNoBaseURL = errors.New("no base URL configured")

// ErrForeignRoute means an adopted route belongs to another base URL or names
// a path that is not a candidate for its key.
var ErrForeignRoute = errors.New("route does not belong to this resolver")

// ResolvedRoute is one cached resolution.
type ResolvedRoute struct {
	Key        RouteKey  `json:"key"`
	Path       string    `json:"path"`
	BaseURL    string    `json:"base_url"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Notifier is told about every route discovered by probing.
type Notifier interface {
	RouteResolved(ctx context.Context, route ResolvedRoute) error
}

// Config holds the backend location.
type Config struct {
	BaseURL string
	// Prefix is an optional path segment appended to BaseURL, such as "api".
	Prefix string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithProber replaces the default HTTP prober.
func WithProber(p Prober) Option {
	return func(r *Resolver) { r.prober = p }
}

// WithStore enables persistence of resolved routes.
func WithStore(s storage.RouteStore) Option {
	return func(r *Resolver) { r.store = s }
}

// WithMemoryCache replaces the default in-memory LRU.
func WithMemoryCache(c cache.Cache[ResolvedRoute]) Option {
	return func(r *Resolver) { r.memory = c }
}

// WithCandidates replaces the candidate table.
func WithCandidates(c Candidates) Option {
	return func(r *Resolver) { r.candidates = c.Clone() }
}

// WithNotifier registers a listener for new resolutions.
func WithNotifier(n Notifier) Option {
	return func(r *Resolver) { r.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l.WithComponent(log.ComponentResolver) }
}

// WithTTL makes resolutions expire after ttl. Zero keeps them until
// Invalidate or Reset.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

// Resolver maps route keys to concrete paths on one backend.
type Resolver struct {
	baseURL    string
	prefix     string
	candidates Candidates
	prober     Prober
	memory     cache.Cache[ResolvedRoute]
	store      storage.RouteStore
	notifier   Notifier
	logger     *log.Logger
	ttl        time.Duration
	now        func() time.Time
	group      singleflight.Group

	// generations counts Invalidate and Reset calls per storage key. A probe
	// sequence only caches its answer if the count is unchanged since it began.
	genMu       sync.Mutex
	generations map[string]uint64
}

// New builds a resolver. An empty base URL is accepted; Resolve then fails
// with ErrNoBaseURL.
func New(cfg Config, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		prefix:     normalizePrefix(cfg.Prefix),
		candidates:  DefaultCandidates(),
		now:         time.Now,
		generations: make(map[string]uint64),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		r.baseURL = base + r.prefix
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.candidates.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidates: %w", err)
	}
	if r.prober == nil {
		r.prober = NewHTTPProber(nil, 0)
	}
	if r.memory == nil {
		r.memory = cache.NewLRUCache[ResolvedRoute](DefaultMemoryCacheSize, r.ttl)
	}
	if r.logger == nil {
		r.logger = log.Discard()
	}
	return r, nil
}

// BaseURL returns the normalized base URL, prefix included.
func (r *Resolver) BaseURL() string { return r.baseURL }

// Candidates returns the probe order for key after prefix stripping.
func (r *Resolver) Candidates(key RouteKey) []string {
	paths := r.candidates[key]
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, r.stripPrefix(p))
	}
	return out
}

// StorageKey builds the cache key for key on baseURL.
func StorageKey(key RouteKey, baseURL string) string {
	return StorageKeyPrefix + ":" + string(key) + ":" + baseURL
}

// JoinResolvedRoute appends suffix to basePath with exactly one slash
// between them.
func JoinResolvedRoute(basePath, suffix string) string {
	return strings.TrimRight(basePath, "/") + "/" + strings.TrimLeft(suffix, "/")
}

// Resolve returns the path the backend serves for key. Concurrent calls for
// the same key share one probe sequence. When no candidate answers, the first
// candidate is returned without being cached.
func (r *Resolver) Resolve(ctx context.Context, key RouteKey) (string, error) {
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRouteKey, key)
	}
	if r.baseURL == "" {
		return "", ErrNoBaseURL
	}

	sk := StorageKey(key, r.baseURL)
	if route, ok := r.memory.Get(sk); ok {
		resolutionsTotal.WithLabelValues(string(key), SourceMemory).Inc()
		return route.Path, nil
	}
	if route, ok := r.fromStore(ctx, key, sk); ok {
		r.memory.Set(sk, route)
		resolutionsTotal.WithLabelValues(string(key), SourceStore).Inc()
		r.logger.DebugContext(ctx, "Route loaded",
			log.FieldRouteKey, key,
			log.FieldPath, route.Path,
			log.FieldSource, SourceStore)
		return route.Path, nil
	}

	// The sequence outlives any single caller; each caller only stops waiting.
	probeCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(sk, func() (any, error) {
		gen := r.generation(sk)
		if route, ok := r.memory.Get(sk); ok {
			return route.Path, nil
		}
		return r.probeCandidates(probeCtx, key, sk, gen), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ResolveURL resolves key and joins the result to the base URL and suffix.
func (r *Resolver) ResolveURL(ctx context.Context, key RouteKey, suffix string) (string, error) {
	path, err := r.Resolve(ctx, key)
	if err != nil {
		return "", err
	}
	if suffix != "" {
		path = JoinResolvedRoute(path, suffix)
	}
	return r.baseURL + path, nil
}

func (r *Resolver) fromStore(ctx context.Context, key RouteKey, sk string) (ResolvedRoute, bool) {
	if r.store == nil {
		return ResolvedRoute{}, false
	}
	entry, err := r.store.GetRoute(ctx, sk)
	if err != nil {
		if !errors.Is(err, storage.ErrRouteNotFound) {
			r.logger.WarnContext(ctx, "Route store lookup failed",
				log.FieldRouteKey, key,
				log.FieldError, err)
		}
		return ResolvedRoute{}, false
	}
	if r.ttl > 0 && r.now().Sub(entry.ResolvedAt) > r.ttl {
		r.logger.DebugContext(ctx, "Stored route is stale",
			log.FieldRouteKey, key,
			"resolved_at", entry.ResolvedAt)
		return ResolvedRoute{}, false
	}
	return ResolvedRoute{
		Key:        key,
		Path:       entry.Path,
		BaseURL:    r.baseURL,
		ResolvedAt: entry.ResolvedAt,
	}, true
}

func (r *Resolver) probeCandidates(ctx context.Context, key RouteKey, sk string, gen uint64) string {
	candidates := r.Candidates(key)
	logger := r.logger.With(log.FieldRouteKey, key, log.FieldOperation, log.OpProbe)

	for _, candidate := range candidates {
		url := r.baseURL + candidate
		start := time.Now()
		found, err := r.prober.Probe(ctx, url)
		probeDuration.WithLabelValues(string(key)).Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			probesTotal.WithLabelValues(string(key), OutcomeError).Inc()
			logger.WarnContext(ctx, "Probe failed",
				log.FieldURL, url,
				log.FieldError, err)
			continue
		case !found:
			probesTotal.WithLabelValues(string(key), OutcomeNotFound).Inc()
			logger.DebugContext(ctx, "Candidate not found", log.FieldURL, url)
			continue
		}

		probesTotal.WithLabelValues(string(key), OutcomeFound).Inc()
		route := ResolvedRoute{
			Key:        key,
			Path:       candidate,
			BaseURL:    r.baseURL,
			ResolvedAt: r.now(),
		}
		resolutionsTotal.WithLabelValues(string(key), SourceProbe).Inc()
		if !r.remember(ctx, sk, gen, route) {
			logger.InfoContext(ctx, "Route resolved after invalidation, not caching it",
				log.FieldCandidate, candidate)
			return candidate
		}
		logger.InfoContext(ctx, "Route resolved", log.FieldCandidate, candidate)
		return candidate
	}

	resolutionsTotal.WithLabelValues(string(key), SourceFallback).Inc()
	logger.ErrorContext(ctx, "No candidate route answered, using the first one",
		log.FieldBaseURL, r.baseURL,
		"candidates", candidates)
	return candidates[0]
}

// remember caches a probed route unless the key was invalidated since gen was
// read, and reports whether it did.
func (r *Resolver) remember(ctx context.Context, sk string, gen uint64, route ResolvedRoute) bool {
	r.genMu.Lock()
	if r.generations[sk] != gen {
		r.genMu.Unlock()
		return false
	}
	// Held across the writes so a concurrent Invalidate deletes after them.
	r.persist(ctx, sk, route)
	r.genMu.Unlock()

	if r.notifier != nil {
		if err := r.notifier.RouteResolved(ctx, route); err != nil {
			r.logger.WarnContext(ctx, "Failed to publish resolved route",
				log.FieldRouteKey, route.Key,
				log.FieldError, err)
		}
	}
	return true
}

func (r *Resolver) generation(sk string) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.generations[sk]
}

// bump marks the keys as invalidated. Probe sequences already running for
// them finish but do not cache their answers.
func (r *Resolver) bump(keys ...string) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	for _, sk := range keys {
		r.generations[sk]++
	}
}

func (r *Resolver) persist(ctx context.Context, sk string, route ResolvedRoute) {
	r.memory.Set(sk, route)

	if r.store != nil {
		err := r.store.SaveRoute(ctx, storage.RouteEntry{
			StorageKey: sk,
			Path:       route.Path,
			ResolvedAt: route.ResolvedAt,
		})
		if err != nil {
			r.logger.WarnContext(ctx, "Failed to persist resolved route",
				log.FieldRouteKey, route.Key,
				log.FieldError, err)
		}
	}
}

// Adopt records a route discovered by another process sharing the same
// backend, and reports whether it changed what this resolver knew. Adopted
// routes are not passed to the notifier.
func (r *Resolver) Adopt(ctx context.Context, route ResolvedRoute) (bool, error) {
	if !route.Key.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownRouteKey, route.Key)
	}
	if r.baseURL == "" || strings.TrimRight(route.BaseURL, "/") != r.baseURL {
		return false, fmt.Errorf("%w: base URL %q", ErrForeignRoute, route.BaseURL)
	}
	path := r.stripPrefix(route.Path)
	if !slices.Contains(r.Candidates(route.Key), path) {
		return false, fmt.Errorf("%w: %s is not a candidate for %s", ErrForeignRoute, route.Path, route.Key)
	}

	sk := StorageKey(route.Key, r.baseURL)
	current, known := r.memory.Get(sk)
	if !known {
		current, known = r.fromStore(ctx, route.Key, sk)
	}
	if known {
		if current.Path == path {
			return false, nil
		}
		// An announcement older than what we hold is a replay, not news.
		if !route.ResolvedAt.IsZero() && route.ResolvedAt.Before(current.ResolvedAt) {
			r.logger.DebugContext(ctx, "Ignoring older peer route",
				log.FieldRouteKey, route.Key,
				log.FieldPath, path,
				"resolved_at", route.ResolvedAt)
			return false, nil
		}
	}

	route.Path = path
	route.BaseURL = r.baseURL
	if route.ResolvedAt.IsZero() {
		route.ResolvedAt = r.now()
	}
	r.persist(ctx, sk, route)
	r.logger.InfoContext(ctx, "Adopted route from peer",
		log.FieldRouteKey, route.Key,
		log.FieldPath, path,
		log.FieldSource, "peer")
	return true, nil
}

// Invalidate forgets the resolution of key for the current base URL.
func (r *Resolver) Invalidate(ctx context.Context, key RouteKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRouteKey, key)
	}
	sk := StorageKey(key, r.baseURL)
	r.bump(sk)
	r.memory.Delete(sk)
	r.group.Forget(sk)
	if r.store == nil {
		return nil
	}
	if err := r.store.DeleteRoute(ctx, sk); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	r.logger.InfoContext(ctx, "Route invalidated",
		log.FieldRouteKey, key,
		log.FieldOperation, log.OpInvalidate)
	return nil
}

// Reset forgets every resolution held in memory and every persisted
// resolution for the current base URL.
func (r *Resolver) Reset(ctx context.Context) error {
	keys := make([]string, len(allRouteKeys))
	for i, key := range allRouteKeys {
		keys[i] = StorageKey(key, r.baseURL)
	}
	r.bump(keys...)
	r.memory.Clear()
	for _, sk := range keys {
		r.group.Forget(sk)
	}
	if r.store == nil {
		return nil
	}
	var errs []error
	for i, key := range allRouteKeys {
		if err := r.store.DeleteRoute(ctx, keys[i]); err != nil {
			errs = append(errs, fmt.Errorf("reset %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Route cache reset",
		log.FieldBaseURL, r.baseURL,
		log.FieldOperation, log.OpReset)
	return nil
}

// Snapshot lists the routes currently known for the base URL, in route key
// order. Memory entries win over persisted ones.
func (r *Resolver) Snapshot(ctx context.Context) []ResolvedRoute {
	var out []ResolvedRoute
	for _, key := range allRouteKeys {
		sk := StorageKey(key, r.baseURL)
		if route, ok := r.memory.Get(sk); ok {
			out = append(out, route)
			continue
		}
		if route, ok := r.fromStore(ctx, key, sk); ok {
			out = append(out, route)
		}
	}
	return out
}

func (r *Resolver) stripPrefix(path string) string {
	if r.prefix != "" && strings.HasPrefix(path, r.prefix+"/") {
		return path[len(r.prefix):]
	}
	return path
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
