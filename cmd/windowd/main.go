// Command windowd serves a windowed view over an upstream paginated API.
//
// It loads items incrementally through the pagination controller and
// answers viewport queries with the exact item range a client must
// render, plus scroll-to-index targets with automatic loading of missing
// pages.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrollkit/scrollkit/pkg/feed"
	"github.com/scrollkit/scrollkit/pkg/httpfetch"
	"github.com/scrollkit/scrollkit/pkg/logging"
	"github.com/scrollkit/scrollkit/pkg/paginate"
	"github.com/scrollkit/scrollkit/pkg/window"
)

// document is the upstream page shape: opaque items plus pagination
// metadata.
type document struct {
	Items      []json.RawMessage `json:"items"`
	Total      int               `json:"total"`
	NextCursor *string           `json:"next_cursor"`
}

func main() {
	// Configuration from environment
	backendURL := os.Getenv("BACKEND_URL")
	port := getEnv("PORT", "8080")
	limit := getEnvInt("PAGE_LIMIT", 50)
	itemHeight := getEnvFloat("ITEM_HEIGHT", 48)
	overscan := getEnvInt("OVERSCAN", 5)
	threshold := getEnvFloat("NEAR_END_THRESHOLD", 4*itemHeight)

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	})

	if backendURL == "" {
		logger.Fatal().Msg("BACKEND_URL is required")
	}

	f, err := buildFeed(backendURL, limit, itemHeight, overscan, threshold)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build feed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	res := f.Start(ctx)
	cancel()
	logger.Info().
		Int("loaded", res.ItemsCount).
		Bool("has_more", res.HasMore).
		Str("backend", backendURL).
		Msg("Initial page loaded")

	http.HandleFunc("/health", healthHandler)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/window", windowHandler(f))
	http.HandleFunc("/scrollto", scrollToHandler(f))
	http.HandleFunc("/refresh", refreshHandler(f))

	addr := ":" + port
	logger.Info().Str("addr", addr).Msg("Starting windowd")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// buildFeed wires the HTTP fetcher, the controller and the windowing
// engine.
func buildFeed(backendURL string, limit int, itemHeight float64, overscan int, threshold float64) (*feed.Feed[json.RawMessage, document], error) {
	retry := httpfetch.DefaultRetryConfig()
	fetcher, err := httpfetch.New[document](httpfetch.Config{
		URL:       backendURL,
		UserAgent: "windowd/0.1.0",
		Retry:     &retry,
	})
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	ctrl, err := paginate.New(paginate.Config[json.RawMessage, document]{
		Fetch:         fetcher.Fetch,
		Mode:          paginate.PageMode(1, limit),
		GetItems:      func(d document) []json.RawMessage { return d.Items },
		GetTotal:      func(d document) (int, bool) { return d.Total, d.Total > 0 },
		GetNextCursor: func(d document) *string { return d.NextCursor },
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	return feed.New(feed.Config[json.RawMessage, document]{
		Controller: ctrl,
		Window: &window.EngineConfig{
			Height:           window.Uniform(itemHeight),
			Overscan:         overscan,
			NearEndThreshold: threshold,
		},
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// windowResponse is the /window reply.
type windowResponse struct {
	TotalSize float64       `json:"total_size"`
	Loaded    int           `json:"loaded"`
	HasMore   bool          `json:"has_more"`
	Items     []windowEntry `json:"items"`
}

type windowEntry struct {
	Index int             `json:"index"`
	Start float64         `json:"start"`
	Size  float64         `json:"size"`
	Item  json.RawMessage `json:"item"`
}

// windowHandler answers GET /window?offset=&extent= with the render
// window for that viewport. Reporting the viewport may trigger a
// continuation fetch through the near-end signal.
func windowHandler(f *feed.Feed[json.RawMessage, document]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, err1 := strconv.ParseFloat(r.URL.Query().Get("offset"), 64)
		extent, err2 := strconv.ParseFloat(r.URL.Query().Get("extent"), 64)
		if err1 != nil || err2 != nil || extent <= 0 {
			http.Error(w, "offset and extent query parameters are required", http.StatusBadRequest)
			return
		}

		f.ReportViewport(offset, extent)

		snap := f.Controller().Snapshot()
		resp := windowResponse{
			TotalSize: f.Engine().TotalSize(),
			Loaded:    len(snap.Items),
			HasMore:   snap.HasMore,
		}
		for _, v := range f.VisibleRange() {
			resp.Items = append(resp.Items, windowEntry{
				Index: v.Index,
				Start: v.Start,
				Size:  v.Size,
				Item:  snap.Items[v.Index],
			})
		}

		writeJSON(w, resp)
	}
}

// scrollToHandler answers GET /scrollto?index=&align= with the scroll
// target for that item, loading missing pages first.
func scrollToHandler(f *feed.Feed[json.RawMessage, document]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(r.URL.Query().Get("index"))
		if err != nil {
			http.Error(w, "index query parameter is required", http.StatusBadRequest)
			return
		}

		align := window.Align(r.URL.Query().Get("align"))
		switch align {
		case "", window.AlignStart:
			align = window.AlignStart
		case window.AlignCenter, window.AlignEnd:
		default:
			http.Error(w, "align must be start, center or end", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		offset, err := f.ScrollToIndexWithAutoLoad(ctx, index, align)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, feed.ErrTargetUnreachable) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		writeJSON(w, map[string]any{"index": index, "align": align, "offset": offset})
	}
}

// refreshHandler answers POST /refresh by restarting the collection.
func refreshHandler(f *feed.Feed[json.RawMessage, document]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		res := f.Refresh(ctx)
		writeJSON(w, map[string]any{"loaded": res.ItemsCount, "has_more": res.HasMore})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
