package assetcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ReadThrough(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("logo-bytes"))
	}))
	t.Cleanup(upstream.Close)

	cache, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	data, err := cache.Get(ctx, upstream.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("logo-bytes"), data)
	assert.Equal(t, int64(1), hits.Load())

	// Second read is served from disk, no upstream hit.
	data, err = cache.Get(ctx, upstream.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("logo-bytes"), data)
	assert.Equal(t, int64(1), hits.Load())
}

func TestCache_ServesCachedWhenUpstreamDown(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("v1"))
	}))

	cache, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	url := upstream.URL + "/app.css"
	_, err = cache.Get(context.Background(), url)
	require.NoError(t, err)

	upstream.Close()

	data, err := cache.Get(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
}

func TestCache_RefreshUpdatesCopies(t *testing.T) {
	t.Parallel()

	var version atomic.Int64
	version.Store(1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if version.Load() == 1 {
			_, _ = w.Write([]byte("v1"))
		} else {
			_, _ = w.Write([]byte("v2"))
		}
	}))
	t.Cleanup(upstream.Close)

	url := upstream.URL + "/app.js"
	cache, err := New(t.TempDir(), []string{url})
	require.NoError(t, err)

	ctx := context.Background()
	data, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	version.Store(2)
	require.NoError(t, cache.Refresh(ctx))

	data, err = cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestCache_RefreshToleratesFailures(t *testing.T) {
	t.Parallel()

	cache, err := New(t.TempDir(), []string{"http://127.0.0.1:1/unreachable.js"})
	require.NoError(t, err)
	assert.NoError(t, cache.Refresh(context.Background()))
}

func TestCache_Handler(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("asset"))
	}))
	t.Cleanup(upstream.Close)

	cache, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	srv := httptest.NewServer(cache.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "?url=" + upstream.URL + "/a.png")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp2.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
