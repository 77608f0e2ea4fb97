// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SourceMap is the parsed map document. Only sources, sourcesContent and
// sourceRoot drive extraction; mappings are never interpreted.
//
// SourcesContent entries are pointers so that a JSON null stays distinct
// from an empty string. SourceRoot is a pointer because a present but empty
// root still enables the remote fallback.
type SourceMap struct {
	Version        int       `json:"version"`
	File           string    `json:"file"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent"`
	SourceRoot     *string   `json:"sourceRoot"`
}

// ParseSourceMap decodes map JSON. Unknown keys are ignored.
func ParseSourceMap(data []byte) (*SourceMap, error) {
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &sm, nil
}

// embedded returns the embedded content of source i, if any. Null, missing
// and empty entries all count as absent.
func (sm *SourceMap) embedded(i int) (string, bool) {
	if i < 0 || i >= len(sm.SourcesContent) {
		return "", false
	}
	c := sm.SourcesContent[i]
	if c == nil || *c == "" {
		return "", false
	}
	return *c, true
}

// Origin says where a resolved source's content came from.
type Origin int

const (
	OriginNone Origin = iota
	OriginEmbedded
	OriginFetched
)

func (o Origin) String() string {
	switch o {
	case OriginEmbedded:
		return "embedded"
	case OriginFetched:
		return "fetched"
	default:
		return "none"
	}
}

// ResolvedSource is one output unit produced by the Resolver.
type ResolvedSource struct {
	OriginalPath  string
	SanitizedPath string
	Content       string
	HasContent    bool
	Origin        Origin
	// FetchURL is set when a remote fetch was attempted.
	FetchURL string
	// Err explains why HasContent is false.
	Err error
}

// RefKind tags a MapReference.
type RefKind int

const (
	RefInline RefKind = iota
	RefURL
	RefLocal
)

func (k RefKind) String() string {
	switch k {
	case RefInline:
		return "inline"
	case RefURL:
		return "url"
	case RefLocal:
		return "local"
	default:
		return fmt.Sprintf("RefKind(%d)", int(k))
	}
}

// MapReference points at a map: an absolute URL, a local file path, or an
// inline base64 payload.
type MapReference struct {
	Kind RefKind
	// Location is the absolute URL or the local path. Empty for inline maps.
	Location string
	// Payload is the base64 text of an inline map.
	Payload string
}

// EntryKind selects one of the four extraction entry points.
type EntryKind int

const (
	EntryRemoteArtifact EntryKind = iota
	EntryLocalArtifact
	EntryRemoteMap
	EntryLocalMap
)

func (k EntryKind) String() string {
	switch k {
	case EntryRemoteArtifact:
		return "remote-js"
	case EntryLocalArtifact:
		return "local-js"
	case EntryRemoteMap:
		return "remote-sourcemap"
	case EntryLocalMap:
		return "local-sourcemap"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Entry is what the Extractor is asked to process.
type Entry struct {
	Kind     EntryKind
	Location string
}

// File types accepted on the command line.
const (
	TypeJS        = "js"
	TypeSourceMap = "sourcemap"
)

// NewEntry picks the entry point from a file type and a location: locations
// starting with http:// or https:// are remote, anything else is a local path.
func NewEntry(fileType, location string) (Entry, error) {
	remote := isHTTPURL(location)
	switch fileType {
	case TypeJS:
		if remote {
			return Entry{Kind: EntryRemoteArtifact, Location: location}, nil
		}
		return Entry{Kind: EntryLocalArtifact, Location: location}, nil
	case TypeSourceMap:
		if remote {
			return Entry{Kind: EntryRemoteMap, Location: location}, nil
		}
		return Entry{Kind: EntryLocalMap, Location: location}, nil
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrInvalidFileType, fileType)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
