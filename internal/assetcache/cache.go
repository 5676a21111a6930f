// Package assetcache keeps read-only UI assets available offline.
// Requests are served cache-first from a local directory; on a miss
// the asset is fetched from its upstream and stored opportunistically.
// A scheduled refresh re-fetches the manifest so cached copies track
// upstream without ever blocking a request on the network.
package assetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grabke213/proofpack/pkg/log"
)

const fetchTimeout = 30 * time.Second

// Cache is a disk-backed read-through cache keyed by asset URL.
type Cache struct {
	dir      string
	client   *http.Client
	manifest []string
}

// New creates a cache rooted at dir. manifest lists the asset URLs a
// refresh pass keeps warm; ad-hoc URLs are cached as they are first
// requested.
func New(dir string, manifest []string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset cache dir: %w", err)
	}
	return &Cache{
		dir:      dir,
		client:   &http.Client{Timeout: fetchTimeout},
		manifest: manifest,
	}, nil
}

// Get returns the asset bytes, serving the cached copy when present
// and falling back to the network (storing the result) otherwise.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, error) {
	if data, err := os.ReadFile(c.path(url)); err == nil {
		return data, nil
	}
	return c.fetch(ctx, url)
}

// Refresh re-fetches every manifest asset concurrently, replacing
// cached copies. Failures are logged per asset; a refresh never
// invalidates a cached copy it could not replace.
func (c *Cache) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, url := range c.manifest {
		g.Go(func() error {
			if _, err := c.fetch(ctx, url); err != nil {
				log.Warn("asset refresh failed for %s: %v", url, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Handler serves cached assets over HTTP; the asset URL is passed as
// the "url" query parameter.
func (c *Cache) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "missing url", http.StatusBadRequest)
			return
		}
		data, err := c.Get(r.Context(), url)
		if err != nil {
			http.Error(w, "asset unavailable", http.StatusBadGateway)
			return
		}
		w.Header().Set("Cache-Control", "max-age=86400")
		_, _ = w.Write(data)
	})
}

func (c *Cache) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build asset request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset body: %w", err)
	}

	// Write-then-rename so a crashed fetch never leaves a truncated
	// cached copy behind.
	tmp := c.path(url) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Warn("asset cache write failed for %s: %v", url, err)
		return data, nil
	}
	if err := os.Rename(tmp, c.path(url)); err != nil {
		log.Warn("asset cache rename failed for %s: %v", url, err)
	}
	return data, nil
}

// path maps a URL to its cache file; hashing keeps arbitrary URLs
// filesystem-safe.
func (c *Cache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}
