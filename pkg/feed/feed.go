// Package feed composes the pagination controller with either the viewport
// windowing engine (virtualized mode) or a proximity trigger
// (non-virtualized mode).
//
// The feed is the synchronization point the two engines need: item-count
// changes propagate to the windowing engine by plain sequential execution
// under the feed's lock before any dependent scroll computation runs, so
// no delay-based hand-off is ever involved.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scrollkit/scrollkit/pkg/paginate"
	"github.com/scrollkit/scrollkit/pkg/proximity"
	"github.com/scrollkit/scrollkit/pkg/window"
)

// ErrTargetUnreachable is returned by ScrollToIndexWithAutoLoad when the
// collection is exhausted before the target index is loaded.
var ErrTargetUnreachable = errors.New("target index beyond end of collection")

// ErrNotVirtualized is returned by scroll operations on a feed composed
// without a windowing engine.
var ErrNotVirtualized = errors.New("feed has no windowing engine")

// Config holds the composition configuration. Controller is required.
// Setting Window selects virtualized mode; otherwise Trigger (if any) is
// used for the non-virtualized near-end signal.
type Config[T, R any] struct {
	// Controller owns the item sequence and continuation state (REQUIRED).
	Controller *paginate.Controller[T, R]

	// Window configures the windowing engine for virtualized mode. The
	// feed installs its own near-end handler; an OnNearEnd set here is
	// overridden.
	Window *window.EngineConfig

	// Trigger is the proximity collaborator for non-virtualized mode.
	Trigger proximity.Trigger

	// FetchContext is the context used for fetches initiated by scroll
	// signals, where no caller context is available. Defaults to
	// context.Background().
	FetchContext context.Context

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// Feed wires controller output into the windowing engine or the proximity
// trigger. Safe for concurrent use.
type Feed[T, R any] struct {
	ctrl     *paginate.Controller[T, R]
	engine   *window.Engine
	trigger  proximity.Trigger
	gate     *proximity.Gate
	fetchCtx context.Context
	logger   zerolog.Logger

	mu sync.Mutex
}

// New composes a feed. It returns an error if the controller is missing.
func New[T, R any](cfg Config[T, R]) (*Feed[T, R], error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if cfg.FetchContext == nil {
		cfg.FetchContext = context.Background()
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "feed").Logger()
	}

	f := &Feed[T, R]{
		ctrl:     cfg.Controller,
		trigger:  cfg.Trigger,
		fetchCtx: cfg.FetchContext,
		logger:   logger,
	}

	f.gate = proximity.NewGate(
		func() bool {
			s := f.ctrl.Snapshot()
			return s.IsLoading || s.IsLoadingMore
		},
		func() bool { return f.ctrl.Snapshot().HasMore },
	)

	if cfg.Window != nil {
		wcfg := *cfg.Window
		wcfg.OnNearEnd = f.gate.Wrap(func() {
			f.ctrl.LoadMore(f.fetchCtx)
			f.syncEngine()
		})
		f.engine = window.NewEngine(wcfg)
	}

	return f, nil
}

// Controller returns the underlying pagination controller.
func (f *Feed[T, R]) Controller() *paginate.Controller[T, R] { return f.ctrl }

// Engine returns the windowing engine, or nil in non-virtualized mode.
func (f *Feed[T, R]) Engine() *window.Engine { return f.engine }

// Virtualized reports whether the feed renders through the windowing
// engine.
func (f *Feed[T, R]) Virtualized() bool { return f.engine != nil }

// Start issues the controller's implicit initial fetch and syncs the
// engine to the loaded count.
func (f *Feed[T, R]) Start(ctx context.Context) paginate.LoadResult {
	res := f.ctrl.Start(ctx)
	f.syncEngine()
	return res
}

// LoadMore forwards to the controller and syncs the engine.
func (f *Feed[T, R]) LoadMore(ctx context.Context) paginate.LoadResult {
	res := f.ctrl.LoadMore(ctx)
	f.syncEngine()
	return res
}

// Refresh forwards to the controller and syncs the engine.
func (f *Feed[T, R]) Refresh(ctx context.Context) paginate.LoadResult {
	res := f.ctrl.Refresh(ctx)
	f.syncEngine()
	return res
}

// ReportViewport feeds the current scroll offset and viewport extent to
// the windowing engine. The engine sees the controller's current item
// count before the near-end signal can fire. No-op in non-virtualized
// mode.
func (f *Feed[T, R]) ReportViewport(offset, extent float64) {
	if f.engine == nil {
		return
	}
	f.syncEngine()
	f.engine.SetViewport(offset, extent)
}

// VisibleRange returns the current render window. Nil in non-virtualized
// mode or while the viewport is unmeasured.
func (f *Feed[T, R]) VisibleRange() []window.VirtualItem {
	if f.engine == nil {
		return nil
	}
	return f.engine.Range()
}

// ScrollToIndex computes the scroll target for an already loaded index.
func (f *Feed[T, R]) ScrollToIndex(index int, align window.Align) (float64, bool) {
	if f.engine == nil {
		return 0, false
	}
	f.syncEngine()
	return f.engine.ScrollTo(index, align)
}

// ScrollToIndexWithAutoLoad computes the scroll target for an index that
// may lie beyond the currently loaded items. Missing items are loaded via
// LoadUntilCount first; if the collection is exhausted short of the
// target, it returns ErrTargetUnreachable and no scroll target. The
// windowing engine observes the new item count before the target is
// computed.
func (f *Feed[T, R]) ScrollToIndexWithAutoLoad(ctx context.Context, index int, align window.Align) (float64, error) {
	if f.engine == nil {
		return 0, ErrNotVirtualized
	}
	if index < 0 {
		return 0, fmt.Errorf("invalid index %d", index)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ctrl.LoadedCount() <= index {
		res := f.ctrl.LoadUntilCount(ctx, index+1, 0)
		if res.ItemsCount <= index {
			f.logger.Warn().
				Int("index", index).
				Int("loaded", res.ItemsCount).
				Bool("has_more", res.HasMore).
				Msg("Auto-load stopped short of scroll target")
			return 0, fmt.Errorf("%w: index %d, loaded %d", ErrTargetUnreachable, index, res.ItemsCount)
		}
	}

	f.syncEngine()
	offset, ok := f.engine.ScrollTo(index, align)
	if !ok {
		return 0, fmt.Errorf("%w: index %d, loaded %d", ErrTargetUnreachable, index, f.ctrl.LoadedCount())
	}
	return offset, nil
}

// TrackEndMarker registers the near-end marker with the proximity trigger
// for the non-virtualized path. The callback is gated off while a fetch is
// in flight or the collection is exhausted. The host must call this again
// whenever its enabled state toggles; the returned function unregisters
// the previous registration.
func (f *Feed[T, R]) TrackEndMarker(marker proximity.Marker, margin float64) (unregister func(), err error) {
	if f.trigger == nil {
		return nil, fmt.Errorf("feed has no proximity trigger")
	}

	return f.trigger.Observe(marker, margin, f.gate.Wrap(func() {
		f.ctrl.LoadMore(f.fetchCtx)
	})), nil
}

// syncEngine propagates the controller's item count to the windowing
// engine.
func (f *Feed[T, R]) syncEngine() {
	if f.engine != nil {
		f.engine.SetItemCount(f.ctrl.LoadedCount())
	}
}
