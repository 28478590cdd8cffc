package tle

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLoaderExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.txt")
	require.NoError(t, os.WriteFile(path, []byte(issTLE+starlinkTLE), 0o644))

	l := NewLoader(LoaderConfig{File: path}, testLogger)
	ds, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Records, 2)
	assert.Equal(t, "file:"+path, ds.Source)
}

func TestLoaderFetchesAndCaches(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, issTLE)
	dir := t.TempDir()

	l := NewLoader(LoaderConfig{SourceURL: srv.URL, CacheDir: dir, MaxFiles: 2, MaxAge: time.Hour, EnableFetch: true}, testLogger)
	ds, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
	assert.Equal(t, int32(1), hits.Load())

	// Second load is served from the fresh cache.
	ds, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cache", ds.Source)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoaderRefetchesStaleCache(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, starlinkTLE)
	dir := t.TempDir()
	require.NoError(t, NewCache(dir, 2).Write([]byte(issTLE), time.Now().Add(-48*time.Hour)))

	l := NewLoader(LoaderConfig{SourceURL: srv.URL, CacheDir: dir, MaxAge: 24 * time.Hour, EnableFetch: true}, testLogger)
	ds, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	require.Len(t, ds.Records, 1)
	assert.Equal(t, 44713, ds.Records[0].NORADID)
}

func TestLoaderFallsBackToStaleCache(t *testing.T) {
	srv, _ := countingServer(t, http.StatusBadGateway, "")
	dir := t.TempDir()
	require.NoError(t, NewCache(dir, 2).Write([]byte(issTLE), time.Now().Add(-48*time.Hour)))

	l := NewLoader(LoaderConfig{SourceURL: srv.URL, CacheDir: dir, MaxAge: time.Hour, EnableFetch: true}, testLogger)
	ds, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cache", ds.Source)
	assert.Len(t, ds.Records, 1)
}

func TestLoaderNoSourceAvailable(t *testing.T) {
	srv, _ := countingServer(t, http.StatusBadGateway, "")

	l := NewLoader(LoaderConfig{SourceURL: srv.URL, CacheDir: t.TempDir(), MaxAge: time.Hour, EnableFetch: true}, testLogger)
	_, err := l.Load(context.Background())
	assert.Error(t, err)
}

func TestLoaderFetchDisabled(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, issTLE)

	l := NewLoader(LoaderConfig{SourceURL: srv.URL, CacheDir: t.TempDir(), MaxAge: time.Hour}, testLogger)
	_, err := l.Load(context.Background())
	assert.Error(t, err)
	assert.Zero(t, hits.Load())
}
