// Package redisfetch provides a Redis-backed implementation of the
// pagination fetch capability: the collection is a Redis list and each
// fetch returns one LRANGE slice of it.
//
// This is a data source, not a cache: the list is the collection itself,
// and nothing is stored or deduplicated on behalf of other controller
// instances. Both page and cursor params are understood; cursors are
// encoded list offsets.
package redisfetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scrollkit/scrollkit/pkg/paginate"
)

const cursorPrefix = "off:"

// Page is one fetched slice of the list.
type Page struct {
	// Items are the raw list members.
	Items []string

	// Total is the full list length at fetch time.
	Total int

	// NextCursor addresses the element after this slice, nil at the end.
	NextCursor *string
}

// Extractors for wiring a Fetcher into paginate.Config.
var (
	Items      = func(p Page) []string { return p.Items }
	Total      = func(p Page) (int, bool) { return p.Total, true }
	NextCursor = func(p Page) *string { return p.NextCursor }
)

// Config holds the fetcher configuration.
type Config struct {
	// Redis is the backing client (REQUIRED).
	Redis *redis.Client

	// Key is the list holding the collection (REQUIRED).
	Key string

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// Fetcher serves pages out of a Redis list.
type Fetcher struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// New creates a Redis-backed fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("list key is required")
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "redisfetch").Logger()
	}

	return &Fetcher{redis: cfg.Redis, key: cfg.Key, logger: logger}, nil
}

// Fetch implements the pagination fetch capability. Pass it to
// paginate.Config.Fetch.
func (f *Fetcher) Fetch(ctx context.Context, params paginate.Params) (Page, error) {
	offset, err := offsetFromParams(params)
	if err != nil {
		return Page{}, err
	}

	total, err := f.redis.LLen(ctx, f.key).Result()
	if err != nil {
		return Page{}, fmt.Errorf("redis llen: %w", err)
	}

	stop := int64(offset + params.Limit - 1)
	items, err := f.redis.LRange(ctx, f.key, int64(offset), stop).Result()
	if err != nil {
		return Page{}, fmt.Errorf("redis lrange: %w", err)
	}

	page := Page{Items: items, Total: int(total)}
	if next := offset + len(items); next < int(total) && len(items) > 0 {
		cursor := cursorPrefix + strconv.Itoa(next)
		page.NextCursor = &cursor
	}

	f.logger.Debug().
		Str("key", f.key).
		Int("offset", offset).
		Int("items", len(items)).
		Int64("total", total).
		Msg("List slice fetched")

	return page, nil
}

// offsetFromParams translates fetch params into a list offset.
func offsetFromParams(params paginate.Params) (int, error) {
	if params.Cursor != nil {
		raw := strings.TrimPrefix(*params.Cursor, cursorPrefix)
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, fmt.Errorf("invalid cursor %q", *params.Cursor)
		}
		return offset, nil
	}
	if params.Page > 0 {
		return (params.Page - 1) * params.Limit, nil
	}
	return 0, nil
}
