// Package source loads page snapshots for scanning, from local HTML files
// or over HTTP. Network loads go through an optional file-backed snapshot
// cache so repeated scans of the same page do not refetch it.
package source

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 30 * time.Second

type Source struct {
	client *http.Client
	cache  *Cache
}

// New builds a source. A nil cache disables snapshot caching.
func New(cache *Cache) *Source {
	return &Source{
		client: &http.Client{Timeout: DefaultTimeout},
		cache:  cache,
	}
}

// Load resolves ref, either a local file path or an http(s) URL, into a
// parsed document plus the page URL the scanner should attribute it to.
func (s *Source) Load(ref string) (*goquery.Document, string, error) {
	if isRemote(ref) {
		raw, err := s.fetch(ref)
		if err != nil {
			return nil, "", err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse HTML from %s: %w", ref, err)
		}
		return doc, ref, nil
	}

	raw, err := os.ReadFile(filepath.Clean(ref))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read snapshot file: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML from %s: %w", ref, err)
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		abs = ref
	}
	return doc, "file://" + abs, nil
}

// Loader returns a closure bound to one ref, suitable for a rescan loop.
func (s *Source) Loader(ref string) func() (*goquery.Document, string, error) {
	return func() (*goquery.Document, string, error) {
		return s.Load(ref)
	}
}

func (s *Source) fetch(pageURL string) ([]byte, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(pageURL); ok {
			return raw, nil
		}
	}

	resp, err := s.client.Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if s.cache != nil {
		// A cache write failure never fails the load.
		_ = s.cache.Set(pageURL, raw)
	}
	return raw, nil
}

func isRemote(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
