package paginate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMaxAttempts caps the number of fetches a single LoadUntilCount
// call may issue.
const DefaultMaxAttempts = 100

// Fetch is the consumed fetch capability. The params shape is determined
// entirely by the controller's pagination mode.
type Fetch[R any] func(ctx context.Context, params Params) (R, error)

// Config holds the controller configuration. Fetch, Mode and GetItems are
// required; everything else is optional.
type Config[T, R any] struct {
	// Fetch performs one backend request.
	Fetch Fetch[R]

	// Mode selects page or cursor pagination. Immutable per controller.
	Mode Mode

	// GetItems extracts the item batch from a response (REQUIRED).
	GetItems func(R) []T

	// GetTotal extracts the collection total, if the backend reports one.
	// Used for the page-mode continuation decision.
	GetTotal func(R) (int, bool)

	// GetNextCursor extracts the next cursor from a response. A nil result
	// means the collection is exhausted. Used for the cursor-mode
	// continuation decision.
	GetNextCursor func(R) *string

	// HasMore is a custom continuation predicate. When set it takes
	// priority over the cursor and total heuristics. It receives the raw
	// response and the full accumulated item sequence.
	HasMore func(R, []T) bool

	// Disabled constructs the controller in the disabled state: load
	// operations are no-ops until SetEnabled(true).
	Disabled bool

	// OnSuccess is invoked after each successful fetch with the raw
	// response and the accumulated items.
	OnSuccess func(R, []T)

	// OnError is invoked with the normalized error on each failed fetch.
	OnError func(error)

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// LoadResult is the snapshot returned synchronously by load operations.
type LoadResult struct {
	ItemsCount int
	HasMore    bool
}

// Snapshot is the observable controller state at one instant.
type Snapshot[T any] struct {
	// Items is the accumulated item sequence. Callers must not mutate it.
	Items []T

	// IsLoading is true only while the very first fetch (since the last
	// reset) is in flight.
	IsLoading bool

	// IsLoadingMore is true while a continuation fetch is in flight.
	// Never true at the same time as IsLoading.
	IsLoadingMore bool

	// Err holds the last fetch failure, or nil. Cleared by Reset.
	Err error

	// HasMore reports whether a continuation fetch may yield more items.
	HasMore bool
}

// Controller owns the growing item sequence and the page/cursor
// progression for one paginated collection. It is safe for concurrent use;
// at most one fetch is in flight at any instant.
type Controller[T, R any] struct {
	cfg    Config[T, R]
	logger zerolog.Logger

	mu            sync.Mutex
	items         []T
	page          int
	cursor        *string
	isLoading     bool
	isLoadingMore bool
	hasMore       bool
	inFlight      bool
	err           error
	enabled       bool

	// primed is true once a fetch has succeeded since the last reset; it
	// distinguishes the initial fetch (replaces items) from continuations
	// (append).
	primed bool

	// startedOnce guards the implicit initial fetch: issued at most once
	// for the lifetime of the instance, even across enable toggles.
	startedOnce bool

	// generation increments on every Reset. A fetch completing with a
	// stale generation is discarded without touching state.
	generation uint64
}

// New creates a pagination controller. It returns an error if a required
// capability is missing.
func New[T, R any](cfg Config[T, R]) (*Controller[T, R], error) {
	if cfg.Fetch == nil {
		return nil, fmt.Errorf("fetch capability is required")
	}
	if cfg.GetItems == nil {
		return nil, fmt.Errorf("item extractor is required")
	}
	if cfg.Mode.kind == "" {
		cfg.Mode = PageMode(DefaultInitialPage, DefaultLimit)
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "paginate").Logger()
	}

	return &Controller[T, R]{
		cfg:     cfg,
		logger:  logger,
		page:    cfg.Mode.initialPage,
		cursor:  cfg.Mode.initialCursor,
		hasMore: true,
		enabled: !cfg.Disabled,
	}, nil
}

// Mode returns the controller's pagination mode.
func (c *Controller[T, R]) Mode() Mode { return c.cfg.Mode }

// Snapshot returns the current observable state.
func (c *Controller[T, R]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Items:         c.items,
		IsLoading:     c.isLoading,
		IsLoadingMore: c.isLoadingMore,
		Err:           c.err,
		HasMore:       c.hasMore,
	}
}

// LoadedCount returns the number of items loaded so far.
func (c *Controller[T, R]) LoadedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Err returns the last fetch failure, or nil.
func (c *Controller[T, R]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SetEnabled toggles the controller. Disabling does not cancel an
// outstanding fetch; its result is still applied.
func (c *Controller[T, R]) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Start issues the implicit initial fetch: exactly one fetch, the first
// time the controller is enabled, never repeated for the lifetime of the
// instance. Calling Start again (or after Refresh already fetched) is a
// no-op returning the current snapshot.
func (c *Controller[T, R]) Start(ctx context.Context) LoadResult {
	c.mu.Lock()
	if c.startedOnce || !c.enabled {
		res := c.snapshotLocked()
		c.mu.Unlock()
		return res
	}
	c.startedOnce = true
	c.mu.Unlock()

	return c.fetchOne(ctx)
}

// LoadMore issues exactly one continuation fetch. If a fetch is already in
// flight, the collection is exhausted, or the controller is disabled, it
// returns the current snapshot without issuing a request.
func (c *Controller[T, R]) LoadMore(ctx context.Context) LoadResult {
	return c.fetchOne(ctx)
}

// LoadUntilCount issues continuation fetches until at least target items
// are loaded, the backend reports no more data, or maxAttempts fetches
// have been made. maxAttempts <= 0 means DefaultMaxAttempts. A failed
// fetch counts as an attempt with no progress; because hasMore keeps its
// prior value on failure, the loop keeps trying up to the cap unless the
// caller inspects Err between calls.
func (c *Controller[T, R]) LoadUntilCount(ctx context.Context, target int, maxAttempts int) LoadResult {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	res := c.currentResult()
	attempts := 0
	for res.ItemsCount < target && res.HasMore && attempts < maxAttempts {
		if ctx.Err() != nil {
			break
		}
		res = c.fetchOne(ctx)
		attempts++
	}

	c.logger.Debug().
		Int("target", target).
		Int("loaded", res.ItemsCount).
		Int("attempts", attempts).
		Bool("has_more", res.HasMore).
		Msg("Bulk load finished")

	return res
}

// Reset synchronously clears items, error and flags, rewinds the page or
// cursor to the mode's initial value and clears the in-flight guard. An
// outstanding fetch is not cancelled; its late result is discarded by the
// generation check. Reset is idempotent.
func (c *Controller[T, R]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.err = nil
	c.isLoading = false
	c.isLoadingMore = false
	c.inFlight = false
	c.hasMore = true
	c.primed = false
	c.page = c.cfg.Mode.initialPage
	c.cursor = c.cfg.Mode.initialCursor
	c.generation++

	resetsTotal.Inc()
	c.logger.Debug().Uint64("generation", c.generation).Msg("Controller reset")
}

// Refresh resets the controller and issues one initial fetch. The reset
// completes before the fetch begins by ordinary sequential execution.
func (c *Controller[T, R]) Refresh(ctx context.Context) LoadResult {
	c.Reset()
	return c.fetchOne(ctx)
}

// currentResult returns the LoadResult snapshot without fetching.
func (c *Controller[T, R]) currentResult() LoadResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[T, R]) snapshotLocked() LoadResult {
	return LoadResult{ItemsCount: len(c.items), HasMore: c.hasMore}
}

// fetchOne performs at most one fetch. It is the single place where the
// in-flight guard is taken and released.
func (c *Controller[T, R]) fetchOne(ctx context.Context) LoadResult {
	c.mu.Lock()
	if c.inFlight || !c.hasMore || !c.enabled {
		res := c.snapshotLocked()
		c.mu.Unlock()
		return res
	}

	initial := !c.primed
	c.inFlight = true
	if initial {
		c.isLoading = true
	} else {
		c.isLoadingMore = true
	}

	gen := c.generation
	params := Params{Limit: c.cfg.Mode.limit}
	switch c.cfg.Mode.kind {
	case KindPage:
		params.Page = c.page
	case KindCursor:
		params.Cursor = c.cursor
	}
	c.mu.Unlock()

	start := time.Now()
	resp, err := c.cfg.Fetch(ctx, params)
	fetchDuration.WithLabelValues(string(c.cfg.Mode.kind)).Observe(time.Since(start).Seconds())

	c.mu.Lock()

	// A reset happened while the fetch was outstanding: the result belongs
	// to a dead generation and must not resurrect stale data. The reset
	// already cleared the flags and the guard.
	if gen != c.generation {
		res := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug().
			Uint64("fetch_generation", gen).
			Msg("Discarding fetch result from stale generation")
		fetchesTotal.WithLabelValues(string(c.cfg.Mode.kind), "stale").Inc()
		return res
	}

	c.inFlight = false
	c.isLoading = false
	c.isLoadingMore = false

	if err != nil {
		c.err = fmt.Errorf("fetch: %w", err)
		res := c.snapshotLocked()
		onError := c.cfg.OnError
		c.mu.Unlock()

		fetchesTotal.WithLabelValues(string(c.cfg.Mode.kind), "error").Inc()
		c.logger.Warn().Err(err).
			Str("mode", string(c.cfg.Mode.kind)).
			Int("loaded", res.ItemsCount).
			Msg("Fetch failed")

		if onError != nil {
			onError(err)
		}
		return res
	}

	newItems := c.cfg.GetItems(resp)
	if initial {
		c.items = newItems
	} else {
		c.items = append(c.items, newItems...)
	}
	c.primed = true

	switch c.cfg.Mode.kind {
	case KindPage:
		c.page++
	case KindCursor:
		if c.cfg.GetNextCursor != nil {
			c.cursor = c.cfg.GetNextCursor(resp)
		}
	}

	c.hasMore = c.evalHasMore(resp, newItems)
	c.err = nil

	all := c.items
	res := c.snapshotLocked()
	onSuccess := c.cfg.OnSuccess
	c.mu.Unlock()

	fetchesTotal.WithLabelValues(string(c.cfg.Mode.kind), "success").Inc()
	itemsFetchedTotal.WithLabelValues(string(c.cfg.Mode.kind)).Add(float64(len(newItems)))

	c.logger.Debug().
		Str("mode", string(c.cfg.Mode.kind)).
		Int("new_items", len(newItems)).
		Int("loaded", res.ItemsCount).
		Bool("has_more", res.HasMore).
		Msg("Fetch complete")

	if onSuccess != nil {
		onSuccess(resp, all)
	}
	return res
}

// evalHasMore applies the continuation priority chain. Caller holds c.mu.
func (c *Controller[T, R]) evalHasMore(resp R, newItems []T) bool {
	if c.cfg.HasMore != nil {
		return c.cfg.HasMore(resp, c.items)
	}

	if c.cfg.Mode.kind == KindCursor && c.cfg.GetNextCursor != nil {
		return c.cfg.GetNextCursor(resp) != nil
	}

	if c.cfg.Mode.kind == KindPage && c.cfg.GetTotal != nil {
		if total, ok := c.cfg.GetTotal(resp); ok {
			return len(c.items) < total
		}
	}

	// A full page implies more may exist.
	return len(newItems) >= c.cfg.Mode.limit
}
