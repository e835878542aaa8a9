package referral

import (
	"context"
	"strings"
	"time"

	"github.com/agext/levenshtein"

	"github.com/vofmun/registrar/internal/cachemanager"
	"github.com/vofmun/registrar/internal/log"
)

const suggestionCacheTTL = 10 * time.Minute

// InvalidCode pairs a submitted code that missed the registry with its
// ranked "did you mean" candidates.
type InvalidCode struct {
	Code        string
	Suggestions []Entry
}

// Resolution is the outcome of resolving a batch of raw referral codes.
// Resolving never fails: unknown codes are data, not errors.
type Resolution struct {
	Valid   []string
	Invalid []InvalidCode
}

// HasInvalid reports whether any submitted code missed the registry.
func (r Resolution) HasInvalid() bool {
	return len(r.Invalid) > 0
}

// Normalize canonicalizes a raw referral code: trim, uppercase, and strip
// everything outside [A-Z0-9]. An empty result means "no code entered".
func Normalize(raw string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Resolver validates referral codes against a registry snapshot and ranks
// typo suggestions by edit distance.
type Resolver struct {
	registry        func() *Registry
	maxSuggestions  int
	maxDistance     int
	suggestionCache cachemanager.CacheManager[string, []Entry]
	suggestions     *cachemanager.ReadThroughCache[string, []Entry, string]
}

// Options tunes the suggestion ranking.
type Options struct {
	// MaxSuggestions caps candidates per invalid code. Default 2.
	MaxSuggestions int
	// MaxDistance is the inclusive edit distance cutoff. Default 2.
	MaxDistance int
	// SkipCache disables suggestion memoization (used in tests).
	SkipCache bool
}

// NewResolver creates a resolver over a fixed registry.
func NewResolver(registry *Registry, opts Options) *Resolver {
	return NewResolverFunc(func() *Registry { return registry }, opts)
}

// NewResolverFunc creates a resolver whose registry is supplied per call,
// allowing hot-swapped snapshots. Each Resolve observes exactly one snapshot.
func NewResolverFunc(registry func() *Registry, opts Options) *Resolver {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = 2
	}
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = 2
	}

	r := &Resolver{
		registry:       registry,
		maxSuggestions: opts.MaxSuggestions,
		maxDistance:    opts.MaxDistance,
	}
	r.suggestionCache = cachemanager.NewInMemoryCacheManager[string, []Entry](
		"referral-suggestions", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	r.suggestions = cachemanager.NewReadThroughCache(r.suggestionCache, r.rank, opts.SkipCache)
	return r
}

// Resolve normalizes, deduplicates, and validates a batch of raw codes.
// Codes that normalize to empty are dropped silently. First-seen order is
// preserved so rejection messages are deterministic.
func (r *Resolver) Resolve(ctx context.Context, raw []string) Resolution {
	registry := r.registry()

	seen := make(map[string]struct{}, len(raw))
	var resolution Resolution
	for _, rawCode := range raw {
		code := Normalize(rawCode)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		if registry.Contains(code) {
			resolution.Valid = append(resolution.Valid, code)
			continue
		}
		resolution.Invalid = append(resolution.Invalid, InvalidCode{
			Code:        code,
			Suggestions: r.Suggest(ctx, code),
		})
	}

	if resolution.HasInvalid() {
		log.Info(log.CatReferral, "referral codes failed validation",
			"invalid", len(resolution.Invalid), "valid", len(resolution.Valid))
	}
	return resolution
}

// Suggest returns up to MaxSuggestions registry entries within MaxDistance
// edits of the given normalized code, closest first, registry order
// breaking ties. An empty slice means "not recognized, no alternative".
// Results are memoized; InvalidateSuggestions drops them after a registry swap.
func (r *Resolver) Suggest(ctx context.Context, code string) []Entry {
	entries, err := r.suggestions.Get(ctx, code, code, suggestionCacheTTL)
	if err != nil {
		// rank never returns an error; the read-through signature requires one.
		return nil
	}
	return entries
}

// InvalidateSuggestions flushes memoized suggestion rankings. Called by
// the registry provider after swapping in a new snapshot.
func (r *Resolver) InvalidateSuggestions(ctx context.Context) {
	_ = r.suggestionCache.Flush(ctx)
}

// rank scores every registry entry against the input and keeps the
// closest matches under the cutoff. Sorting is a stable selection over
// registry order, so equal distances keep their registry position.
func (r *Resolver) rank(ctx context.Context, code string) ([]Entry, error) {
	registry := r.registry()
	params := levenshtein.NewParams()

	type scored struct {
		entry    Entry
		distance int
	}
	var candidates []scored
	for _, entry := range registry.Entries() {
		d := levenshtein.Distance(code, entry.Code, params)
		if d <= r.maxDistance {
			candidates = append(candidates, scored{entry: entry, distance: d})
		}
	}

	// Insertion sort by distance keeps registry order among ties; the
	// candidate list is tiny (bounded by registry size).
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].distance < candidates[j-1].distance; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	if len(candidates) > r.maxSuggestions {
		candidates = candidates[:r.maxSuggestions]
	}
	result := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.entry)
	}
	return result, nil
}
