package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrollkit/scrollkit/internal/testutil"
	"github.com/scrollkit/scrollkit/pkg/feed"
)

func setupFeed(t *testing.T, total int) *feed.Feed[json.RawMessage, document] {
	backend := testutil.NewMockBackend(total)
	t.Cleanup(backend.Close)

	f, err := buildFeed(backend.URL(), 20, 50, 2, 100)
	if err != nil {
		t.Fatalf("Failed to build feed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.Start(ctx)

	return f
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestWindowEndpoint(t *testing.T) {
	f := setupFeed(t, 45)
	handler := windowHandler(f)

	t.Run("valid_viewport", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/window?offset=0&extent=200", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var got windowResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		// 200px viewport over 50px items plus overscan 2
		if len(got.Items) != 6 {
			t.Errorf("Expected 6 window items, got %d", len(got.Items))
		}
		if got.Items[0].Index != 0 {
			t.Errorf("Expected window to start at 0, got %d", got.Items[0].Index)
		}
		if got.TotalSize != 20*50 {
			t.Errorf("Expected total size 1000, got %v", got.TotalSize)
		}
	})

	t.Run("missing_params", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/window?offset=0", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
		}
	})

	t.Run("near_end_loads_more", func(t *testing.T) {
		// Scroll to the bottom of the loaded extent and verify the
		// reported viewport triggered a continuation fetch.
		req := httptest.NewRequest("GET", "/window?offset=800&extent=200", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		var got windowResponse
		if err := json.NewDecoder(w.Result().Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got.Loaded <= 20 {
			t.Errorf("Expected near-end viewport to load more items, still at %d", got.Loaded)
		}
	})
}

func TestScrollToEndpoint(t *testing.T) {
	f := setupFeed(t, 45)
	handler := scrollToHandler(f)

	t.Run("auto_load", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/scrollto?index=40&align=start", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var got map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got["offset"] != float64(40*50) {
			t.Errorf("Expected offset 2000, got %v", got["offset"])
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/scrollto?index=9999", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Result().StatusCode)
		}
	})

	t.Run("bad_align", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/scrollto?index=1&align=middle", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
		}
	})
}

func TestRefreshEndpoint(t *testing.T) {
	f := setupFeed(t, 45)
	handler := refreshHandler(f)

	t.Run("post", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/refresh", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var got map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got["loaded"] != float64(20) {
			t.Errorf("Expected 20 items after refresh, got %v", got["loaded"])
		}
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/refresh", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		if w.Result().StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Result().StatusCode)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	// Building a feed registers all collectors.
	setupFeed(t, 5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	promhttp.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "scrollkit_fetches_total") {
		t.Error("Expected metrics output to contain scrollkit_fetches_total")
	}
}
