package edgar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"filingwatch/internal/source"
)

const submissionsFixture = `{
	"cik": 320193,
	"name": "Acme Corp",
	"filings": {
		"recent": {
			"accessionNumber": ["0001-26-000005", "0001-26-000004", "0001-26-000003", "0001-26-000002", "0001-26-000001"],
			"form": ["10-K", "8-K", "4", "10-Q", "8-K"],
			"filingDate": ["2026-03-02", "2026-02-14", "not-a-date", "2025-11-05", "2025-08-01"],
			"primaryDocument": ["a.htm", "b.htm", "c.htm", "d.htm", "e.htm"],
			"primaryDocDescription": ["Annual report", "", "Stmt of changes", "Quarterly report", ""]
		}
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.Client(), srv.URL, "https://www.sec.gov/Archives/edgar/data", "test-agent", time.Millisecond)
	return client, srv
}

func TestListFilings_ParsesAndDropsMalformed(t *testing.T) {
	var gotPath, gotUA string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(submissionsFixture))
	})

	records, err := client.ListFilings(context.Background(), "ACME", "320193", 0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if gotPath != "/submissions/CIK0000320193.json" {
		t.Fatalf("path=%q", gotPath)
	}
	if gotUA != "test-agent" {
		t.Fatalf("user-agent=%q", gotUA)
	}
	// The row with the unparseable date drops; the other four survive.
	if len(records) != 4 {
		t.Fatalf("records=%d want 4", len(records))
	}
	first := records[0]
	if first.ExternalID != "0001-26-000005" || first.Type != "10-K" || first.Title != "Annual report" {
		t.Fatalf("first=%+v", first)
	}
	if records[1].Title != "8-K filing" {
		t.Fatalf("fallback title=%q", records[1].Title)
	}
	want := "https://www.sec.gov/Archives/edgar/data/320193/000126000005/"
	if first.URL != want {
		t.Fatalf("url=%q want %q", first.URL, want)
	}
}

func TestListFilings_Limit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(submissionsFixture))
	})
	records, err := client.ListFilings(context.Background(), "ACME", "320193", 2)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d want 2", len(records))
	}
}

func TestListFilings_ClientErrorRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.ListFilings(context.Background(), "ACME", "320193", 0)
	if !errors.Is(err, source.ErrRejected) {
		t.Fatalf("err=%v want ErrRejected", err)
	}
}

func TestListFilings_ServerErrorUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.ListFilings(context.Background(), "ACME", "320193", 0)
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

func TestListFilings_BadCIKRejectedWithoutRequest(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	for _, id := range []string{"", "12345678901", "32x193"} {
		if _, err := client.ListFilings(context.Background(), "ACME", id, 0); !errors.Is(err, source.ErrRejected) {
			t.Fatalf("id=%q err=%v want ErrRejected", id, err)
		}
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("hits=%d want 0", hits)
	}
}

func TestThrottleSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(submissionsFixture))
	}))
	defer srv.Close()
	client := NewClient(srv.Client(), srv.URL, "", "test-agent", 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.ListFilings(context.Background(), "ACME", "320193", 1); err != nil {
			t.Fatalf("err=%v", err)
		}
	}
	// Three sequential requests under a 50ms throttle cannot finish in under
	// 100ms: the first slot is immediate, the next two wait.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("elapsed=%v want >=100ms", elapsed)
	}
}

func TestPadCIK(t *testing.T) {
	if got := padCIK("320193"); got != "0000320193" {
		t.Fatalf("got=%q", got)
	}
	if got := padCIK("0000320193"); got != "0000320193" {
		t.Fatalf("got=%q", got)
	}
	if got := padCIK("abc"); got != "" {
		t.Fatalf("got=%q want empty", got)
	}
}
