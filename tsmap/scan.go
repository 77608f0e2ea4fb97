// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import "strings"

// MapDirective marks the line that points a generated file at its sourcemap.
const MapDirective = "//# sourceMappingURL="

// FindMapDirective returns the reference following the first
// sourceMappingURL directive in a generated file. Later directives are
// ignored, even when the first one is empty.
func FindMapDirective(text string) (string, bool) {
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		idx := strings.Index(line, MapDirective)
		if idx < 0 {
			continue
		}
		ref := strings.TrimSpace(line[idx+len(MapDirective):])
		return ref, ref != ""
	}
	return "", false
}

// isLineBreak matches every line boundary, not only '\n': old Mac files end
// lines with a bare '\r'.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
