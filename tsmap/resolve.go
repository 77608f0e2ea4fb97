// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// Resolver produces the content of every source declared by a map.
// Embedded sourcesContent always wins; sources without it are fetched from
// base + sourceRoot + source when the map has a sourceRoot.
type Resolver struct {
	fetcher *Fetcher
}

func NewResolver(f *Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// Resolve returns one ResolvedSource per entry of doc.Sources, in order.
// Fetch failures are recorded on the entry and never stop the loop.
func (r *Resolver) Resolve(ctx context.Context, doc *SourceMap, base string) []ResolvedSource {
	out := make([]ResolvedSource, 0, len(doc.Sources))
	for i, src := range doc.Sources {
		rs := r.resolveOne(ctx, doc, base, i, src)
		if !rs.HasContent {
			log.WithFields(logrus.Fields{
				"source": src,
				"url":    rs.FetchURL,
			}).WithError(rs.Err).Warn("source skipped")
		}
		out = append(out, rs)
	}
	return out
}

func (r *Resolver) resolveOne(ctx context.Context, doc *SourceMap, base string, i int, src string) ResolvedSource {
	rs := ResolvedSource{
		OriginalPath:  src,
		SanitizedPath: Sanitize(src),
	}
	if content, ok := doc.embedded(i); ok {
		rs.Content = content
		rs.HasContent = true
		rs.Origin = OriginEmbedded
		return rs
	}
	if doc.SourceRoot == nil {
		rs.Err = fmt.Errorf("%w: no embedded content and no sourceRoot", ErrUnresolvedSource)
		return rs
	}
	if base == "" {
		rs.Err = fmt.Errorf("%w: inline sourcemap has no base location", ErrUnresolvedSource)
		return rs
	}

	target, err := sourceURL(base, *doc.SourceRoot, src)
	if err != nil {
		rs.Err = fmt.Errorf("%w: %w", ErrUnresolvedSource, err)
		return rs
	}
	if !isHTTPURL(target) {
		rs.Err = fmt.Errorf("%w: %s is not an http(s) location", ErrUnresolvedSource, target)
		return rs
	}

	rs.FetchURL = target
	log.WithField("url", target).Debug("fetching source")
	body, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		rs.Err = err
		return rs
	}
	text, err := utf8Text(body, target)
	if err != nil {
		rs.Err = err
		return rs
	}
	if text == "" {
		rs.Err = fmt.Errorf("%w: empty response from %s", ErrUnresolvedSource, target)
		return rs
	}
	rs.Content = text
	rs.HasContent = true
	rs.Origin = OriginFetched
	return rs
}

// sourceURL joins base, then root, then src, with RFC 3986 reference
// resolution at each step.
func sourceURL(base, root, src string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("base %q: %w", base, err)
	}
	rootRef := parsePathRef(root)
	srcRef := parsePathRef(src)
	return b.ResolveReference(rootRef).ResolveReference(srcRef).String(), nil
}

// parsePathRef parses s as a URL reference. Names that are not valid
// references, such as "100%.js", are taken as a literal path and escaped.
func parsePathRef(s string) *url.URL {
	if u, err := url.Parse(s); err == nil {
		return u
	}
	return &url.URL{Path: s}
}
