// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs plain GET requests, one timeout per request. When built
// with a cache size it also remembers bodies for the rest of the run and
// collapses concurrent requests for the same URL.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cache     *lru.Cache[string, []byte]
	group     singleflight.Group
}

// NewFetcher builds a Fetcher from cfg. cfg must have been validated.
func NewFetcher(cfg *Config) (*Fetcher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.ForceAttemptHTTP2 = false
	}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		f.cache = cache
	}
	return f, nil
}

// Fetch returns the body of u. Transport failures and non-2xx statuses wrap
// ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	if f.cache == nil {
		return f.get(ctx, u)
	}
	if body, ok := f.cache.Get(u); ok {
		return body, nil
	}
	v, err, _ := f.group.Do(u, func() (any, error) {
		body, err := f.get(ctx, u)
		if err != nil {
			return nil, err
		}
		f.cache.Add(u, body)
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, u, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer closeResponse(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: u, Status: resp.Status, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, u, err)
	}
	return body, nil
}

func closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.WithError(err).Debug("close response body")
	}
}

func readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return data, nil
}
