package window

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Align selects where the addressed item lands in the viewport.
type Align string

const (
	AlignStart  Align = "start"
	AlignCenter Align = "center"
	AlignEnd    Align = "end"
)

// Addressing selects the coordinate space for scroll targets.
type Addressing string

const (
	// Local offsets apply directly to a bounded scrollable region.
	Local Addressing = "local"

	// Page offsets apply to the whole page; item coordinates are
	// translated through the region's current on-page origin.
	Page Addressing = "page"
)

// EngineConfig holds the windowing engine configuration. Height is
// required; everything else has a usable zero value.
type EngineConfig struct {
	// Height reports per-item sizes (REQUIRED). Replaceable later via
	// SetHeight; replacing it rebuilds the Position Index.
	Height HeightFunc

	// Overscan is the number of extra items included on each side of the
	// strictly visible range.
	Overscan int

	// Addressing selects local or page coordinates. Default Local.
	Addressing Addressing

	// NearEndThreshold is the distance from the end of the content below
	// which OnNearEnd fires. Zero disables the signal.
	NearEndThreshold float64

	// OnNearEnd is invoked on every viewport update whose distance from
	// the end falls below NearEndThreshold. It is not debounced: callers
	// rely on the fetch controller's in-flight guard for deduplication.
	OnNearEnd func()

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// Engine consumes the Position Index plus a live scroll offset and
// viewport extent, and produces the item range that must be rendered. All
// computation is synchronous; the only callback is the near-end signal.
// Safe for concurrent use.
type Engine struct {
	cfg    EngineConfig
	logger zerolog.Logger

	mu         sync.Mutex
	index      Index
	count      int
	offset     float64
	extent     float64 // <= 0 means not yet measured
	pageOrigin float64
}

// NewEngine creates a windowing engine with an empty item set.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Height == nil {
		cfg.Height = Uniform(0)
	}
	if cfg.Overscan < 0 {
		cfg.Overscan = 0
	}
	if cfg.Addressing == "" {
		cfg.Addressing = Local
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "window").Logger()
	}

	return &Engine{cfg: cfg, logger: logger}
}

// SetItemCount resizes the indexed item set, rebuilding the Position
// Index. O(n).
func (e *Engine) SetItemCount(count int) {
	if count < 0 {
		count = 0
	}

	e.mu.Lock()
	if count == e.count {
		e.mu.Unlock()
		return
	}
	e.count = count
	e.index = BuildIndex(count, e.cfg.Height)
	total := e.index.TotalSize()
	e.mu.Unlock()

	e.logger.Debug().
		Int("count", count).
		Float64("total_size", total).
		Msg("Position index rebuilt")
}

// SetHeight replaces the height function and rebuilds the Position Index.
func (e *Engine) SetHeight(height HeightFunc) {
	if height == nil {
		return
	}

	e.mu.Lock()
	e.cfg.Height = height
	e.index = BuildIndex(e.count, height)
	e.mu.Unlock()
}

// SetViewport reports the current scroll offset and viewport extent. The
// near-end signal is evaluated on every call.
func (e *Engine) SetViewport(offset, extent float64) {
	e.mu.Lock()
	e.offset = offset
	e.extent = extent
	fire := e.cfg.OnNearEnd != nil &&
		e.cfg.NearEndThreshold > 0 &&
		e.extent > 0 &&
		e.count > 0 &&
		e.distanceFromEndLocked() < e.cfg.NearEndThreshold
	e.mu.Unlock()

	if fire {
		nearEndSignals.Inc()
		e.cfg.OnNearEnd()
	}
}

// SetPageOrigin reports the scrollable region's current on-page position.
// Only meaningful with Page addressing.
func (e *Engine) SetPageOrigin(origin float64) {
	e.mu.Lock()
	e.pageOrigin = origin
	e.mu.Unlock()
}

// ItemCount returns the number of indexed items.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// TotalSize returns the total extent of the indexed items.
func (e *Engine) TotalSize() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.TotalSize()
}

// Range computes the render window for the current viewport: the minimal
// visible range padded by the configured overscan on both sides, clamped
// to [0, count-1]. The window is empty when there are no items or the
// viewport extent is not yet measured.
func (e *Engine) Range() []VirtualItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count == 0 || e.extent <= 0 {
		return nil
	}

	offset := e.localOffsetLocked()
	start := e.index.FindStart(offset)
	end := e.index.FindEnd(offset + e.extent)

	start -= e.cfg.Overscan
	if start < 0 {
		start = 0
	}
	end += e.cfg.Overscan
	if last := e.count - 1; end > last {
		end = last
	}

	windowComputes.Inc()

	items := make([]VirtualItem, 0, end-start+1)
	for i := start; i <= end; i++ {
		entry := e.index.Entry(i)
		items = append(items, VirtualItem{
			Index: i,
			Start: entry.Start,
			End:   entry.End,
			Size:  entry.Size,
		})
	}
	return items
}

// ScrollTo computes the scroll target for an index in the engine's
// addressing mode. It is a pure function of the index, alignment, the
// Position Index and the viewport extent: equal inputs yield equal
// offsets. An out-of-range index is a no-op and returns ok=false with the
// current offset.
func (e *Engine) ScrollTo(index int, align Align) (offset float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= e.count {
		return e.offset, false
	}

	entry := e.index.Entry(index)
	var target float64
	switch align {
	case AlignCenter:
		target = entry.Start - e.extent/2 + entry.Size/2
	case AlignEnd:
		target = entry.End - e.extent
	default: // AlignStart
		target = entry.Start
	}

	if e.cfg.Addressing == Page {
		target += e.pageOrigin
	}
	if target < 0 {
		target = 0
	}
	return target, true
}

// DistanceFromEnd returns how far the bottom of the viewport currently is
// from the end of the content.
func (e *Engine) DistanceFromEnd() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distanceFromEndLocked()
}

func (e *Engine) distanceFromEndLocked() float64 {
	return e.index.TotalSize() - e.localOffsetLocked() - e.extent
}

// localOffsetLocked translates the reported scroll offset into item
// coordinates. In Page addressing the region begins at pageOrigin on the
// page. Caller holds e.mu.
func (e *Engine) localOffsetLocked() float64 {
	offset := e.offset
	if e.cfg.Addressing == Page {
		offset -= e.pageOrigin
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
