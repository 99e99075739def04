package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gh "github.com/google/go-github/v68/github"
)

// newTestClient points a client at a stub API server. The handler sees
// the same /api/v3 prefix a GHES deployment would use.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ghc, err := gh.NewClient(srv.Client()).WithEnterpriseURLs(srv.URL, srv.URL)
	if err != nil {
		t.Fatalf("configure client: %v", err)
	}
	return &Client{gh: ghc, http: srv.Client(), serverURL: srv.URL}
}

func TestServerVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"verifiable_password_authentication":false,"installed_version":"3.6.2"}`)
	})
	c := newTestClient(t, mux)

	got, err := c.ServerVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "3.6.2" {
		t.Errorf("ServerVersion = %q, want %q", got, "3.6.2")
	}
}

func TestServerVersion_EmptyOnCloud(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"verifiable_password_authentication":true}`)
	})
	c := newTestClient(t, mux)

	got, err := c.ServerVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("ServerVersion = %q, want empty when no version is reported", got)
	}
}

func TestServerVersion_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/meta", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
	})
	c := newTestClient(t, mux)

	if _, err := c.ServerVersion(context.Background()); err == nil {
		t.Fatal("expected error from unauthorized meta endpoint")
	}
}

func TestRateLimitRemaining(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"resources":{"core":{"limit":5000,"remaining":4321,"reset":1735689600}}}`)
	})
	c := newTestClient(t, mux)

	got, err := c.RateLimitRemaining(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4321 {
		t.Errorf("RateLimitRemaining = %d, want 4321", got)
	}
}
