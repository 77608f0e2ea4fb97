// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const inlinePrefix = "data:application/json;base64,"

var reInlineCharset = regexp.MustCompile(`^data:application/json;charset=[^;,]+;base64,`)

// Locator turns a sourcemap reference into map text plus the base location
// that relative source fetches are resolved against.
type Locator struct {
	fetcher *Fetcher
}

func NewLocator(f *Fetcher) *Locator {
	return &Locator{fetcher: f}
}

// ParseMapReference classifies ref. origin is the URL or local path of the
// file that carried the reference; it is empty when ref already is the map
// location.
func ParseMapReference(ref, origin string) (MapReference, error) {
	if payload, ok := inlinePayload(ref); ok {
		return MapReference{Kind: RefInline, Payload: payload}, nil
	}
	if strings.HasPrefix(ref, "data:") {
		return MapReference{}, fmt.Errorf("%w: %s", ErrUnsupportedReference, truncate(ref, 48))
	}
	if isHTTPURL(ref) {
		return MapReference{Kind: RefURL, Location: ref}, nil
	}
	if isHTTPURL(origin) {
		base, err := url.Parse(origin)
		if err != nil {
			return MapReference{}, fmt.Errorf("%w: origin %s: %w", ErrUnsupportedReference, origin, err)
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return MapReference{}, fmt.Errorf("%w: reference %s: %w", ErrUnsupportedReference, ref, err)
		}
		return MapReference{Kind: RefURL, Location: base.ResolveReference(rel).String()}, nil
	}
	loc := ref
	if origin != "" && !filepath.IsAbs(ref) {
		loc = filepath.Join(filepath.Dir(origin), ref)
	}
	return MapReference{Kind: RefLocal, Location: loc}, nil
}

// Load retrieves the map text for ref. Inline maps have an empty base.
func (l *Locator) Load(ctx context.Context, ref MapReference) (string, string, error) {
	switch ref.Kind {
	case RefInline:
		text, err := decodeInline(ref.Payload)
		if err != nil {
			return "", "", err
		}
		return text, "", nil

	case RefURL:
		u, err := url.Parse(ref.Location)
		if err != nil {
			return "", "", fmt.Errorf("%w: %s: %w", ErrUnsupportedReference, ref.Location, err)
		}
		log.WithField("url", ref.Location).Debug("fetching sourcemap")
		body, err := l.fetcher.Fetch(ctx, ref.Location)
		if err != nil {
			return "", "", err
		}
		text, err := utf8Text(body, ref.Location)
		if err != nil {
			return "", "", err
		}
		return text, urlDir(u), nil

	case RefLocal:
		log.WithField("path", ref.Location).Debug("reading sourcemap")
		body, err := readLocal(ref.Location)
		if err != nil {
			return "", "", err
		}
		text, err := utf8Text(body, ref.Location)
		if err != nil {
			return "", "", err
		}
		base, err := localDir(ref.Location)
		if err != nil {
			return "", "", err
		}
		return text, base, nil
	}
	return "", "", fmt.Errorf("%w: kind %s", ErrUnsupportedReference, ref.Kind)
}

// Locate is ParseMapReference followed by Load.
func (l *Locator) Locate(ctx context.Context, ref, origin string) (string, string, error) {
	mr, err := ParseMapReference(ref, origin)
	if err != nil {
		return "", "", err
	}
	return l.Load(ctx, mr)
}

func inlinePayload(ref string) (string, bool) {
	if strings.HasPrefix(ref, inlinePrefix) {
		return ref[len(inlinePrefix):], true
	}
	if loc := reInlineCharset.FindStringIndex(ref); loc != nil {
		return ref[loc[1]:], true
	}
	return "", false
}

func decodeInline(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// certains bundlers omettent le padding
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(payload)
		if rawErr != nil {
			return "", fmt.Errorf("%w: inline sourcemap: %w", ErrDecode, err)
		}
	}
	return utf8Text(data, "inline sourcemap")
}

func utf8Text(b []byte, what string) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrDecode, what)
	}
	return string(b), nil
}

// urlDir keeps everything up to and including the last '/' of the path.
func urlDir(u *url.URL) string {
	d := *u
	d.RawQuery = ""
	d.ForceQuery = false
	d.Fragment = ""
	d.RawFragment = ""
	d.RawPath = ""
	if i := strings.LastIndex(d.Path, "/"); i >= 0 {
		d.Path = d.Path[:i+1]
	} else {
		d.Path = "/"
	}
	return d.String()
}

func localDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRead, err)
	}
	return filepath.Dir(abs) + string(filepath.Separator), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
