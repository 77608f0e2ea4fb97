// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("body"))
		case "/gone":
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	f := newTestFetcher(t)
	ctx := context.Background()

	body, err := f.Fetch(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "body", string(body))

	_, err = f.Fetch(ctx, srv.URL+"/gone")
	require.ErrorIs(t, err, ErrFetch)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusGone, se.Code)

	_, err = f.Fetch(ctx, srv.URL+"/boom")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetcherNoCustomHeaders(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Go-http-client/1.1", ua.Load())

	cfg := &Config{UserAgent: "tsmap-crawl/1.0"}
	cfg.ApplyDefaults()
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "tsmap-crawl/1.0", ua.Load())
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := &Config{Timeout: 50 * time.Millisecond}
	cfg.ApplyDefaults()
	f, err := NewFetcher(cfg)
	require.NoError(t, err)

	start := time.Now()
	_, err = f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetcherCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	cfg := &Config{CacheSize: 8}
	cfg.ApplyDefaults()
	f, err := NewFetcher(cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := f.Fetch(context.Background(), srv.URL+"/shared.js")
			assert.NoError(t, err)
			assert.Equal(t, "/shared.js", string(body))
		}()
	}
	wg.Wait()
	_, err = f.Fetch(context.Background(), srv.URL+"/shared.js")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcherCacheSkipsErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := &Config{CacheSize: 8}
	cfg.ApplyDefaults()
	f, err := NewFetcher(cfg)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/x")
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), srv.URL+"/x")
	assert.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewFetcherProxy(t *testing.T) {
	cfg := &Config{Proxy: "http://127.0.0.1:8080", Insecure: true}
	cfg.ApplyDefaults()
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	tr, ok := f.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.Proxy)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, DefaultTimeout, f.client.Timeout)
}
