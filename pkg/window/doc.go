// Package window implements the viewport windowing engine: given per-item
// sizes and a live scroll offset, it computes the minimal contiguous item
// range that must be materialized for display.
//
// The engine maintains a Position Index, a prefix-sum table mapping each
// item index to its {start, end, size} extent. The table is rebuilt in
// O(n) whenever the item count or the height function changes; visible
// range queries are O(log n) binary searches over the monotonically
// increasing table.
//
// Example usage:
//
//	eng := window.NewEngine(window.EngineConfig{
//		Height:   window.Uniform(48),
//		Overscan: 3,
//	})
//	eng.SetItemCount(len(items))
//	eng.SetViewport(scrollOffset, viewportExtent)
//	for _, v := range eng.Range() {
//		render(items[v.Index], v.Start, v.Size)
//	}
//
// Two addressing modes are supported for scroll-to-index targets: Local,
// where offsets apply directly to a bounded scrollable region, and Page,
// where the scrollable region is the whole page and offsets are translated
// through the region's on-page origin.
//
// The engine never touches a platform API: scroll offsets and viewport
// extents are reported to it by the host, and the near-end signal is an
// injected callback.
package window
