// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrFetch                = errors.New("fetch failed")
	ErrRead                 = errors.New("read failed")
	ErrDecode               = errors.New("decode failed")
	ErrParse                = errors.New("invalid sourcemap JSON")
	ErrNoMapReference       = errors.New("no sourceMappingURL directive")
	ErrUnresolvedSource     = errors.New("no content for source")
	ErrUnsupportedReference = errors.New("unsupported sourcemap reference")
	ErrPathEscape           = errors.New("path traversal blocked")
	ErrInvalidFileType      = errors.New("invalid file type")
)

// StatusError is returned for a non-2xx HTTP response. It unwraps to ErrFetch.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %s", e.URL, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrFetch }
