package paginate

// Default pagination parameters.
const (
	DefaultLimit       = 20
	DefaultInitialPage = 1
)

// ModeKind discriminates the two pagination strategies.
type ModeKind string

const (
	// KindPage is offset-style pagination with a 1-based page number.
	KindPage ModeKind = "page"

	// KindCursor is token-style pagination with an opaque cursor.
	KindCursor ModeKind = "cursor"
)

// Mode selects the pagination strategy for a controller. It is immutable
// for the lifetime of a controller instance: a controller constructed in
// page mode can never switch to cursor mode.
type Mode struct {
	kind ModeKind

	// Page mode
	initialPage int

	// Cursor mode; nil means "start from the beginning".
	initialCursor *string

	limit int
}

// PageMode returns a page-number pagination mode. Non-positive arguments
// fall back to the defaults (page 1, limit 20).
func PageMode(initialPage, limit int) Mode {
	if initialPage < 1 {
		initialPage = DefaultInitialPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Mode{kind: KindPage, initialPage: initialPage, limit: limit}
}

// CursorMode returns a cursor pagination mode. initialCursor may be nil to
// start from the beginning. A non-positive limit falls back to the default.
func CursorMode(initialCursor *string, limit int) Mode {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Mode{kind: KindCursor, initialCursor: initialCursor, limit: limit}
}

// Kind returns the pagination strategy of this mode.
func (m Mode) Kind() ModeKind { return m.kind }

// Limit returns the per-request item limit.
func (m Mode) Limit() int { return m.limit }

// Params is the request shape handed to the fetch capability. Exactly one
// of Page/Cursor is meaningful, determined by the controller's mode: page
// mode fills Page, cursor mode fills Cursor (nil for the first request
// when no initial cursor was given).
type Params struct {
	Page   int
	Cursor *string
	Limit  int
}
