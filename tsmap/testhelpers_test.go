// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	cfg := &Config{Timeout: 5 * time.Second}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	return f
}

func newTestExtractor(t *testing.T, out string) *Extractor {
	t.Helper()
	return NewExtractor(newTestFetcher(t), Options{OutputDir: out, Out: io.Discard})
}

// captureLog routes package diagnostics to a hook for the test duration.
func captureLog(t *testing.T) *test.Hook {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	prev := log
	SetLogger(logger)
	t.Cleanup(func() { log = prev })
	return hook
}

// fileServer serves fixed bodies by path and counts GETs per path.
type fileServer struct {
	*httptest.Server
	mu    sync.Mutex
	files map[string]string
	hits  map[string]int
}

func newFileServer(t *testing.T, files map[string]string) *fileServer {
	t.Helper()
	fs := &fileServer{files: files, hits: map[string]int{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits[r.URL.Path]++
		body, ok := fs.files[r.URL.Path]
		fs.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fileServer) Hits(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}

func (fs *fileServer) TotalHits() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, h := range fs.hits {
		n += h
	}
	return n
}

func inlineRef(mapJSON string) string {
	return inlinePrefix + base64.StdEncoding.EncodeToString([]byte(mapJSON))
}
