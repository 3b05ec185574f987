package httpfetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/scrollkit/scrollkit/internal/testutil"
	"github.com/scrollkit/scrollkit/pkg/paginate"
)

func newFetcher(t *testing.T, cfg Config) *Fetcher[testutil.PageDocument] {
	t.Helper()

	f, err := New[testutil.PageDocument](cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return f
}

func TestNew_Validation(t *testing.T) {
	if _, err := New[testutil.PageDocument](Config{}); err == nil {
		t.Errorf("New() without URL succeeded, want error")
	}
}

func TestFetcher_PageParams(t *testing.T) {
	backend := testutil.NewMockBackend(45)
	defer backend.Close()

	f := newFetcher(t, Config{URL: backend.URL()})

	doc, err := f.Fetch(context.Background(), paginate.Params{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	q := backend.LastQuery()
	if q["page"] != "2" || q["limit"] != "20" {
		t.Errorf("query = %v, want page=2 limit=20", q)
	}
	if len(doc.Items) != 20 || doc.Items[0].ID != 20 {
		t.Errorf("got %d items starting at %d, want 20 starting at 20", len(doc.Items), doc.Items[0].ID)
	}
	if doc.Total != 45 {
		t.Errorf("total = %d, want 45", doc.Total)
	}
}

func TestFetcher_CursorParams(t *testing.T) {
	backend := testutil.NewMockBackend(45)
	defer backend.Close()

	f := newFetcher(t, Config{URL: backend.URL()})
	cursor := "off-20"

	doc, err := f.Fetch(context.Background(), paginate.Params{Cursor: &cursor, Limit: 20})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if q := backend.LastQuery(); q["cursor"] != "off-20" {
		t.Errorf("query = %v, want cursor=off-20", q)
	}
	if doc.Items[0].ID != 20 {
		t.Errorf("first item = %d, want 20", doc.Items[0].ID)
	}
	if doc.NextCursor == nil || *doc.NextCursor != "off-40" {
		t.Errorf("next cursor = %v, want off-40", doc.NextCursor)
	}
}

func TestFetcher_CustomParamNames(t *testing.T) {
	backend := testutil.NewMockBackend(45)
	defer backend.Close()

	f := newFetcher(t, Config{
		URL:        backend.URL(),
		PageParam:  "p",
		LimitParam: "per_page",
	})

	if _, err := f.Fetch(context.Background(), paginate.Params{Page: 3, Limit: 10}); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	q := backend.LastQuery()
	if q["p"] != "3" || q["per_page"] != "10" {
		t.Errorf("query = %v, want p=3 per_page=10", q)
	}
}

func TestFetcher_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantClass ErrorClass
	}{
		{"not found", http.StatusNotFound, ErrorClassClient},
		{"rate limited", http.StatusTooManyRequests, ErrorClassRateLimit},
		{"server error", http.StatusInternalServerError, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewMockBackend(45)
			defer backend.Close()
			backend.FailNext(1, tt.status)

			f := newFetcher(t, Config{URL: backend.URL()})
			_, err := f.Fetch(context.Background(), paginate.Params{Page: 1, Limit: 20})

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Class != tt.wantClass {
				t.Errorf("StatusError = {%d %s}, want {%d %s}",
					statusErr.StatusCode, statusErr.Class, tt.status, tt.wantClass)
			}
		})
	}
}

func TestFetcher_RetryTransientFailures(t *testing.T) {
	backend := testutil.NewMockBackend(45)
	defer backend.Close()
	backend.FailNext(2, http.StatusInternalServerError)

	f := newFetcher(t, Config{
		URL: backend.URL(),
		Retry: &RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	})

	doc, err := f.Fetch(context.Background(), paginate.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("Fetch() error after retries: %v", err)
	}
	if len(doc.Items) != 20 {
		t.Errorf("items = %d, want 20", len(doc.Items))
	}
	if got := backend.RequestCount(); got != 3 {
		t.Errorf("requests = %d, want 3 (two failures, one success)", got)
	}
}

func TestFetcher_ClientErrorsAreNotRetried(t *testing.T) {
	backend := testutil.NewMockBackend(45)
	defer backend.Close()
	backend.FailNext(5, http.StatusNotFound)

	f := newFetcher(t, Config{
		URL: backend.URL(),
		Retry: &RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	})

	_, err := f.Fetch(context.Background(), paginate.Params{Page: 1, Limit: 20})
	if err == nil {
		t.Fatalf("Fetch() succeeded, want client error")
	}
	if got := backend.RequestCount(); got != 1 {
		t.Errorf("requests = %d, want 1 (4xx must not be retried)", got)
	}
}

func TestFetcher_RetryExhausted(t *testing.T) {
	backend := testutil.NewMockBackend(45)
	defer backend.Close()
	backend.FailNext(10, http.StatusInternalServerError)

	f := newFetcher(t, Config{
		URL: backend.URL(),
		Retry: &RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	})

	_, err := f.Fetch(context.Background(), paginate.Params{Page: 1, Limit: 20})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
	if got := backend.RequestCount(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

func TestFetcher_DrivesController(t *testing.T) {
	// End to end over HTTP: drain a 45-item collection in 20-item pages
	// served by the mock backend.
	backend := testutil.NewMockBackend(45)
	defer backend.Close()

	f := newFetcher(t, Config{URL: backend.URL()})

	ctrl, err := paginate.New(paginate.Config[testutil.Item, testutil.PageDocument]{
		Fetch:    f.Fetch,
		Mode:     paginate.PageMode(1, 20),
		GetItems: func(d testutil.PageDocument) []testutil.Item { return d.Items },
		GetTotal: func(d testutil.PageDocument) (int, bool) { return d.Total, true },
	})
	if err != nil {
		t.Fatalf("paginate.New() error: %v", err)
	}

	res := ctrl.LoadUntilCount(context.Background(), 500, 0)
	if res.ItemsCount != 45 || res.HasMore {
		t.Errorf("count=%d hasMore=%v, want 45 false", res.ItemsCount, res.HasMore)
	}
	if got := backend.RequestCount(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}
