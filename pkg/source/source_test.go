package source

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const page = `<html><head><title>Doc</title></head><body><pre>func main() {}</pre></body></html>`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.html")
	if err := os.WriteFile(path, []byte(page), 0600); err != nil {
		t.Fatal(err)
	}

	src := New(nil)
	doc, pageURL, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !strings.HasPrefix(pageURL, "file://") {
		t.Errorf("page URL = %q, want file:// prefix", pageURL)
	}
	if doc.Find("pre").Length() != 1 {
		t.Error("parsed document lost its pre element")
	}
}

func TestLoadMissingFile(t *testing.T) {
	src := New(nil)
	if _, _, err := src.Load(filepath.Join(t.TempDir(), "absent.html")); err == nil {
		t.Error("loading a missing file succeeded")
	}
}

func TestLoadFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	src := New(nil)
	doc, pageURL, err := src.Load(server.URL)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if pageURL != server.URL {
		t.Errorf("page URL = %q, want %q", pageURL, server.URL)
	}
	if got := doc.Find("title").Text(); got != "Doc" {
		t.Errorf("title = %q, want Doc", got)
	}
}

func TestLoadFromURLErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := New(nil)
	if _, _, err := src.Load(server.URL); err == nil {
		t.Error("load of a 503 page succeeded")
	}
}

func TestCacheAvoidsRefetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(page))
	}))
	defer server.Close()

	cache, err := NewCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	src := New(cache)

	for i := 0; i < 3; i++ {
		if _, _, err := src.Load(server.URL); err != nil {
			t.Fatalf("Load() %d failed: %v", i, err)
		}
	}

	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set("https://example.com/page", []byte(page)); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, ok := cache.Get("https://example.com/page"); ok {
		t.Error("expired entry served from cache")
	}
}
