// Package proximity defines the proximity trigger contract consumed by the
// non-virtualized rendering path: a host-provided mechanism that invokes a
// callback when a tracked marker enters an observed region.
//
// The core never references a platform observation API; a host environment
// implements Trigger and injects it. The package also provides Gate, which
// suppresses the callback while a fetch is already in progress or no more
// data exists, and OffsetTrigger, a reference implementation for hosts
// that can only report scroll offsets.
package proximity

import "sync"

// Marker identifies a tracked position near the end of the rendered
// content, expressed as an offset in the host's scroll coordinates.
type Marker struct {
	Offset float64
}

// Trigger is the consumed collaborator contract. Observe registers a
// marker with a margin: the callback fires when the marker becomes visible
// in the observed region, expanded by the margin. The returned function
// unregisters the marker; hosts must re-register when their enabled state
// toggles.
type Trigger interface {
	Observe(marker Marker, margin float64, fn func()) (unregister func())
}

// Gate wraps a load-more callback so it only fires when a continuation
// fetch is actually warranted: not while a fetch is in flight, and not
// once the collection is exhausted.
type Gate struct {
	busy func() bool
	more func() bool
}

// NewGate creates a gate over the two state predicates. Either predicate
// may be nil, in which case it does not gate.
func NewGate(busy, more func() bool) *Gate {
	return &Gate{busy: busy, more: more}
}

// Wrap returns fn filtered through the gate.
func (g *Gate) Wrap(fn func()) func() {
	return func() {
		if g.busy != nil && g.busy() {
			return
		}
		if g.more != nil && !g.more() {
			return
		}
		fn()
	}
}

// observation is one registered marker.
type observation struct {
	marker Marker
	margin float64
	fn     func()
	fired  bool
}

// OffsetTrigger is a Trigger fed by plain scroll-offset reports. It fires
// each observation once when its marker enters the reported viewport
// expanded by the margin, and re-arms when the marker leaves again.
// Safe for concurrent use.
type OffsetTrigger struct {
	mu     sync.Mutex
	nextID int
	obs    map[int]*observation
	start  float64
	end    float64
}

// NewOffsetTrigger creates an offset-driven trigger with an empty viewport.
func NewOffsetTrigger() *OffsetTrigger {
	return &OffsetTrigger{obs: make(map[int]*observation)}
}

// Observe implements Trigger.
func (t *OffsetTrigger) Observe(marker Marker, margin float64, fn func()) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.obs[id] = &observation{marker: marker, margin: margin, fn: fn}
	t.mu.Unlock()

	// An already-visible marker fires on registration.
	t.evaluate()

	return func() {
		t.mu.Lock()
		delete(t.obs, id)
		t.mu.Unlock()
	}
}

// Report feeds the current viewport (start offset and extent) into the
// trigger and evaluates all observations.
func (t *OffsetTrigger) Report(offset, extent float64) {
	t.mu.Lock()
	t.start = offset
	t.end = offset + extent
	t.mu.Unlock()

	t.evaluate()
}

func (t *OffsetTrigger) evaluate() {
	t.mu.Lock()
	var fire []func()
	for _, o := range t.obs {
		visible := t.end > t.start &&
			o.marker.Offset >= t.start-o.margin &&
			o.marker.Offset <= t.end+o.margin
		if visible && !o.fired {
			o.fired = true
			fire = append(fire, o.fn)
		} else if !visible {
			o.fired = false
		}
	}
	t.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}
