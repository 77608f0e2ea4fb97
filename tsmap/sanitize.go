// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// FallbackPath replaces any source path that cannot be made safe.
const FallbackPath = "unknown_source.js"

var (
	reSchemePrefix = regexp.MustCompile(`^(?:webpack|file|https?):/{0,2}`)
	reModulePrefix = regexp.MustCompile(`^(?:~|node_modules/|@)`)
	weirdChars     = strings.NewReplacer("<", "_", ">", "_", ":", "_", "\"", "_", "|", "_", "?", "_", "*", "_")
)

// Sanitize turns a path declared in a sourcemap into a relative,
// slash-separated path that cannot climb out of the directory it is joined
// to. It never fails: unusable paths become FallbackPath.
func Sanitize(raw string) string {
	// enlever prefixes uri courants
	p := reSchemePrefix.ReplaceAllString(raw, "")
	// une seule fois: "@scope/node_modules/x" garde node_modules/
	p = reModulePrefix.ReplaceAllString(p, "")
	p = weirdChars.Replace(p)
	p = strings.TrimLeft(p, "/")

	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, seg := range parts {
		switch seg {
		case "", ".":
			continue
		case "..":
			return FallbackPath
		}
		out = append(out, seg)
	}
	p = strings.Join(out, "/")

	if p == "" || strings.HasPrefix(p, "..") {
		return FallbackPath
	}
	return p
}

// SafeJoin joins rel under root and checks that the cleaned result stays
// inside root. The returned path is absolute.
func SafeJoin(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(absRoot, filepath.FromSlash(rel))
	back, err := filepath.Rel(absRoot, target)
	if err != nil {
		return "", err
	}
	if back == "." || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return target, nil
}
