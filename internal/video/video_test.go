package video

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/Brownie44l1/sampah-api/internal/config"
	"github.com/Brownie44l1/sampah-api/internal/logger"
)

func newClient(t *testing.T, handler http.HandlerFunc, key, cx string) (*SearchClient, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	c := NewSearchClient(key, cx, 2*time.Second, logger.NewWriter(&buf), option.WithEndpoint(srv.URL+"/"))
	return c, &buf
}

func TestQuery(t *testing.T) {
	if got := Query("Kertas"); got != "cara daur ulang sampah Kertas" {
		t.Errorf("Query = %q", got)
	}
}

func TestFind_FirstLink(t *testing.T) {
	var gotQuery, gotKey, gotCX string
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotCX = r.URL.Query().Get("cx")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"link":"https://www.youtube.com/watch?v=abc"},{"link":"https://www.youtube.com/watch?v=def"}]}`))
	}, "search-key", "engine-id")

	link := c.Find(context.Background(), Query("Plastik"))
	if link != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("link = %q", link)
	}
	if gotQuery != "cara daur ulang sampah Plastik site:youtube.com" {
		t.Errorf("q = %q", gotQuery)
	}
	if gotKey != "search-key" || gotCX != "engine-id" {
		t.Errorf("key/cx = %q/%q", gotKey, gotCX)
	}
}

func TestFind_NoItems(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}, "k", "cx")

	if link := c.Find(context.Background(), "anything"); link != NotFound {
		t.Errorf("link = %q, expected %q", link, NotFound)
	}
}

func TestFind_UpstreamErrorIsSwallowed(t *testing.T) {
	c, logs := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	}, "k", "cx")

	if link := c.Find(context.Background(), "anything"); link != NotFound {
		t.Errorf("link = %q, expected %q", link, NotFound)
	}
	if !strings.Contains(logs.String(), "Failed to find video") {
		t.Errorf("failure should be logged, got %q", logs.String())
	}

	_, err := c.Search(context.Background(), "anything")
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("Search should report LookupError, got %v", err)
	}
}

func TestFind_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewSearchClient("k", "cx", 50*time.Millisecond, nil, option.WithEndpoint(srv.URL+"/"))
	if link := c.Find(context.Background(), "slow"); link != NotFound {
		t.Errorf("link = %q, expected %q", link, NotFound)
	}
}

func TestSearch_MissingConfig(t *testing.T) {
	tests := []struct {
		key, cx string
		missing string
	}{
		{"", "cx", "GOOGLE_API_KEY"},
		{"k", "", "GOOGLE_CSE_ID"},
	}

	for _, tt := range tests {
		c := NewSearchClient(tt.key, tt.cx, time.Second, nil)
		_, err := c.Search(context.Background(), "q")
		var missing *config.MissingKeyError
		if !errors.As(err, &missing) {
			t.Errorf("expected MissingKeyError for %s, got %v", tt.missing, err)
			continue
		}
		if missing.Key != tt.missing {
			t.Errorf("Key = %q, expected %q", missing.Key, tt.missing)
		}
		if link := c.Find(context.Background(), "q"); link != NotFound {
			t.Errorf("Find should degrade to NotFound, got %q", link)
		}
	}
}
