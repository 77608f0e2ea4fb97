// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

var reScriptSrc = regexp.MustCompile(`(?i)<script[^>]+src\s*=\s*['"]([^'"]+)['"]`)

// CrawlOptions configure a Crawler. Output options are passed on to the
// Extractor of every script.
type CrawlOptions struct {
	URL         string
	OutputDir   string
	Beautify    bool
	EOL         string
	SaveMap     bool
	Concurrency int
	Out         io.Writer
}

// CrawlResult is the outcome for one script found on the page.
type CrawlResult struct {
	Script string
	Report *Report
	Err    error
}

// Crawler fetches a page, finds its external scripts and extracts the
// sources of every script that has a sourcemap.
type Crawler struct {
	fetcher *Fetcher
	opts    CrawlOptions
	out     io.Writer
}

func NewCrawler(f *Fetcher, opts CrawlOptions) *Crawler {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Crawler{
		fetcher: f,
		opts:    opts,
		out:     &lockedWriter{w: out},
	}
}

// Crawl processes every script of the page. Only a failure to fetch the page
// itself is returned as an error.
func (c *Crawler) Crawl(ctx context.Context) ([]CrawlResult, error) {
	rootURL, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if !isHTTPURL(rootURL.String()) {
		return nil, fmt.Errorf("invalid url: %s is not http(s)", c.opts.URL)
	}

	fmt.Fprintf(c.out, "Fetching: %s\n", rootURL.String())
	body, err := c.fetcher.Fetch(ctx, rootURL.String())
	if err != nil {
		return nil, err
	}

	scripts := parseScriptsHTML(string(body), rootURL)
	if len(scripts) == 0 {
		fmt.Fprintln(c.out, "No external script src found on page.")
	}

	results := make([]CrawlResult, len(scripts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, s := range scripts {
		g.Go(func() error {
			results[i] = c.processScript(gctx, s)
			return nil
		})
	}
	_ = g.Wait()

	withSources := 0
	for _, r := range results {
		if r.Report != nil && r.Report.OK() {
			withSources++
		}
	}
	fmt.Fprintf(c.out, "\nDone. Scripts processed: %d. Scripts with sources: %d\n", len(scripts), withSources)
	return results, nil
}

func (c *Crawler) processScript(ctx context.Context, scriptURL *url.URL) CrawlResult {
	script := scriptURL.String()
	fmt.Fprintf(c.out, "Processing: %s\n", script)

	ex := NewExtractor(c.fetcher, Options{
		OutputDir: filepath.Join(c.opts.OutputDir, filepath.FromSlash(hostPathForURL(scriptURL))),
		Beautify:  c.opts.Beautify,
		EOL:       c.opts.EOL,
		SaveMap:   c.opts.SaveMap,
		Out:       c.out,
	})

	report, err := ex.Extract(ctx, Entry{Kind: EntryRemoteArtifact, Location: script})
	if errors.Is(err, ErrNoMapReference) {
		// pas de commentaire: essayer script.js.map
		probe := scriptURL.ResolveReference(&url.URL{Path: scriptURL.Path + ".map"})
		report, err = ex.Extract(ctx, Entry{Kind: EntryRemoteMap, Location: probe.String()})
		if err != nil {
			err = fmt.Errorf("%w in %s", ErrNoMapReference, script)
		}
	}
	if err != nil {
		log.WithField("script", script).WithError(err).Warn("no sources recovered")
		fmt.Fprintf(c.out, "%s\n", cYel(fmt.Sprintf("No sourcemap for %s: %v", script, err)))
		return CrawlResult{Script: script, Err: err}
	}
	printSummary(c.out, fmt.Sprintf("%s: %s", script, report.Summary()))
	return CrawlResult{Script: script, Report: report}
}

// parseScriptsHTML streams the page through the x/net/html tokenizer and
// collects every <script src>. A tokenizer error other than EOF falls back
// to the regex scan.
func parseScriptsHTML(src string, base *url.URL) []*url.URL {
	z := html.NewTokenizer(strings.NewReader(src))
	var out []*url.URL
	for {
		switch z.Next() {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return parseScriptsRegex(src, base)
			}
			return dedupeURLs(out)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, more := z.TagName()
			if string(name) != "script" {
				continue
			}
			for more {
				var key, val []byte
				key, val, more = z.TagAttr()
				if string(key) == "src" {
					if u := resolveScript(base, string(val)); u != nil {
						out = append(out, u)
					}
					break
				}
			}
		}
	}
}

func parseScriptsRegex(page string, base *url.URL) []*url.URL {
	var out []*url.URL
	for _, m := range reScriptSrc.FindAllStringSubmatch(page, -1) {
		if u := resolveScript(base, m[1]); u != nil {
			out = append(out, u)
		}
	}
	return dedupeURLs(out)
}

func resolveScript(base *url.URL, src string) *url.URL {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	u, err := url.Parse(src)
	if err != nil {
		log.WithField("src", src).Debug("unparsable script src")
		return nil
	}
	return base.ResolveReference(u)
}

// dedupeURLs keeps the first occurrence of each http(s) URL, in page order.
func dedupeURLs(in []*url.URL) []*url.URL {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, u := range in {
		s := u.String()
		if !isHTTPURL(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, u)
	}
	return out
}

// hostPathForURL gives the per-script output directory: host then the
// script's directory, sanitized like any source path.
func hostPathForURL(scriptURL *url.URL) string {
	dir := path.Dir(scriptURL.Path)
	if dir == "." || dir == "/" {
		dir = ""
	} else {
		dir = strings.Trim(dir, "/")
	}
	if dir == "" {
		return Sanitize(scriptURL.Host)
	}
	return Sanitize(scriptURL.Host + "/" + dir)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
