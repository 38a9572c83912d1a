package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/cities" {
			t.Errorf("path = %s, want /geo/cities", r.URL.Path)
		}
		if got := r.URL.Query().Get("namePrefix"); got != "Pra" {
			t.Errorf("namePrefix = %q, want Pra", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q, want 5", got)
		}
		if got := r.Header.Get("X-RapidAPI-Key"); got != "geo-key" {
			t.Errorf("X-RapidAPI-Key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [
			{"city": "Prague", "country": "Czechia"},
			{"city": "Prayagraj", "country": "India"},
			{"city": "Prague", "country": "Czechia"}
		]}`)
	}))
	defer srv.Close()

	g := NewGeoDBClient(srv.URL, "", "geo-key", 5*time.Second, zap.NewNop())
	got := g.Suggest(context.Background(), "Pra")

	want := []string{"Prague", "Prayagraj"}
	if len(got) != len(want) {
		t.Fatalf("Suggest() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Suggest()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSuggestFailuresYieldEmpty(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGeoDBClient(srv.URL, "", "bad-key", 5*time.Second, zap.NewNop())

	if got := g.Suggest(context.Background(), ""); len(got) != 0 {
		t.Errorf("empty prefix: Suggest() = %v", got)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("empty prefix issued %d requests", calls)
	}

	got := g.Suggest(context.Background(), "Lon")
	if got == nil || len(got) != 0 {
		t.Errorf("forbidden: Suggest() = %v, want empty slice", got)
	}
}
