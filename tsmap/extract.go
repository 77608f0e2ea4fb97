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

	"github.com/sirupsen/logrus"
)

// Options configure an Extractor.
type Options struct {
	OutputDir string
	Beautify  bool
	EOL       string
	// SaveMap also stores the raw sourcemap JSON under OutputDir.
	SaveMap bool
	// Out receives the progress lines. Defaults to os.Stdout.
	Out io.Writer
}

// Extractor drives one entry point through locate, parse, resolve and write.
type Extractor struct {
	fetcher  *Fetcher
	locator  *Locator
	resolver *Resolver
	writer   *Writer
	saveMap  bool
	out      io.Writer
}

func NewExtractor(f *Fetcher, opts Options) *Extractor {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Extractor{
		fetcher:  f,
		locator:  NewLocator(f),
		resolver: NewResolver(f),
		writer: &Writer{
			Root:     opts.OutputDir,
			Beautify: opts.Beautify,
			EOL:      opts.EOL,
		},
		saveMap: opts.SaveMap,
		out:     out,
	}
}

// Extract runs the whole pipeline for entry. Any error returned is fatal to
// the run (map not found, unreadable or not JSON) and means nothing was
// written. Per-source problems are recorded in the Report instead.
func (e *Extractor) Extract(ctx context.Context, entry Entry) (*Report, error) {
	text, base, mapLoc, err := e.locate(ctx, entry)
	if err != nil {
		return nil, err
	}
	doc, err := ParseSourceMap([]byte(text))
	if err != nil {
		return nil, err
	}

	report := &Report{
		Entry:       entry,
		MapLocation: mapLoc,
		Base:        base,
		Sources:     make([]SourceResult, 0, len(doc.Sources)),
	}
	if e.saveMap {
		e.storeMap(mapLoc, text)
	}

	for _, rs := range e.resolver.Resolve(ctx, doc, base) {
		report.Sources = append(report.Sources, e.write(rs))
	}
	return report, nil
}

// Run is Extract with the outcome reduced to a boolean: false when the
// pipeline failed or when no file was written.
func (e *Extractor) Run(ctx context.Context, entry Entry) bool {
	_, ok := e.RunReport(ctx, entry)
	return ok
}

// RunReport is Run that also hands back the report, nil on fatal errors.
func (e *Extractor) RunReport(ctx context.Context, entry Entry) (*Report, bool) {
	report, err := e.Extract(ctx, entry)
	if err != nil {
		log.WithFields(logrus.Fields{
			"entry":    entry.Kind.String(),
			"location": entry.Location,
		}).WithError(err).Error("extraction failed")
		printError(e.out, "%v", err)
		return nil, false
	}
	printSummary(e.out, report.Summary())
	return report, report.OK()
}

func (e *Extractor) locate(ctx context.Context, entry Entry) (string, string, string, error) {
	var mr MapReference
	switch entry.Kind {
	case EntryRemoteArtifact, EntryLocalArtifact:
		text, err := e.readArtifact(ctx, entry)
		if err != nil {
			return "", "", "", err
		}
		ref, ok := FindMapDirective(text)
		if !ok {
			return "", "", "", fmt.Errorf("%w in %s", ErrNoMapReference, entry.Location)
		}
		mr, err = ParseMapReference(ref, entry.Location)
		if err != nil {
			return "", "", "", err
		}
	case EntryRemoteMap:
		mr = MapReference{Kind: RefURL, Location: entry.Location}
	case EntryLocalMap:
		mr = MapReference{Kind: RefLocal, Location: entry.Location}
	default:
		return "", "", "", fmt.Errorf("unknown entry kind %s", entry.Kind)
	}

	text, base, err := e.locator.Load(ctx, mr)
	if err != nil {
		return "", "", "", err
	}
	return text, base, mr.Location, nil
}

func (e *Extractor) readArtifact(ctx context.Context, entry Entry) (string, error) {
	var (
		body []byte
		err  error
	)
	if entry.Kind == EntryRemoteArtifact {
		log.WithField("url", entry.Location).Debug("fetching script")
		body, err = e.fetcher.Fetch(ctx, entry.Location)
	} else {
		body, err = readLocal(entry.Location)
	}
	if err != nil {
		return "", err
	}
	return utf8Text(body, entry.Location)
}

func (e *Extractor) write(rs ResolvedSource) SourceResult {
	sr := SourceResult{
		Source: rs.OriginalPath,
		Path:   rs.SanitizedPath,
		Origin: rs.Origin,
		Status: StatusSkipped,
		Err:    rs.Err,
	}
	if !rs.HasContent {
		why := "no content"
		if errors.Is(rs.Err, ErrFetch) || errors.Is(rs.Err, ErrDecode) {
			why = "fetch failed"
		}
		printSkipped(e.out, why, rs.OriginalPath)
		return sr
	}

	_, n, err := e.writer.Write(rs)
	if err != nil {
		sr.Status = StatusFailed
		sr.Err = err
		log.WithFields(logrus.Fields{
			"source": rs.OriginalPath,
			"path":   rs.SanitizedPath,
		}).WithError(err).Error("write failed")
		printError(e.out, "write %s: %v", rs.SanitizedPath, err)
		return sr
	}
	sr.Status = StatusWritten
	sr.Bytes = n
	printWritten(e.out, filepath.Join(e.writer.Root, filepath.FromSlash(rs.SanitizedPath)))
	return sr
}

func (e *Extractor) storeMap(mapLoc, text string) {
	name := mapFileName(mapLoc)
	if _, _, err := e.writer.WriteRaw(name, []byte(text)); err != nil {
		log.WithField("path", name).WithError(err).Warn("could not save sourcemap")
	}
}

func mapFileName(loc string) string {
	name := ""
	if isHTTPURL(loc) {
		if u, err := url.Parse(loc); err == nil {
			name = path.Base(u.Path)
		}
	} else if loc != "" {
		name = filepath.Base(loc)
	}
	if name == "" || name == "." || name == "/" {
		name = "sourcemap.json"
	}
	return name
}
