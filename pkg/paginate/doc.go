// Package paginate implements the pagination fetch controller: it turns
// page- or cursor-based backend responses into a growing item sequence
// with correct continuation state.
//
// The controller owns the item sequence, the page/cursor progression, the
// loading and error flags, and the continuation predicate. It guarantees
// that at most one fetch is in flight per instance: concurrent LoadMore
// calls collapse into the outstanding operation's eventual result instead
// of issuing parallel requests.
//
// Example usage:
//
//	ctrl, err := paginate.New(paginate.Config[Order, OrderPage]{
//		Fetch:    fetchOrders,
//		Mode:     paginate.PageMode(1, 20),
//		GetItems: func(p OrderPage) []Order { return p.Orders },
//		GetTotal: func(p OrderPage) (int, bool) { return p.Total, true },
//	})
//	if err != nil {
//		return err
//	}
//	res := ctrl.LoadMore(ctx)
//	for res.HasMore {
//		res = ctrl.LoadMore(ctx)
//	}
//
// Continuation (hasMore) is decided after each successful fetch, in strict
// priority order:
//
//  1. Custom HasMore predicate, if supplied
//  2. Cursor mode with a GetNextCursor extractor: non-nil next cursor
//  3. Page mode with a GetTotal extractor: loaded count < total
//  4. Fallback: the response returned a full page (>= limit items)
//
// Failures never advance the page or cursor and never drop loaded items;
// the error is stored in a single slot and recovery is caller-initiated
// via LoadMore or Refresh. The controller itself never retries (retrying
// transports can be layered underneath, see package httpfetch).
package paginate
