// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"strings"
)

// EOL modes accepted by the writer.
const (
	EOLKeep = ""
	EOLUnix = "unix"
	EOLDos  = "dos"
)

// ValidEOL reports whether mode is a line-ending mode the writer knows.
func ValidEOL(mode string) error {
	switch strings.ToLower(mode) {
	case EOLKeep, EOLUnix, EOLDos, "windows":
		return nil
	}
	return fmt.Errorf("invalid eol %q (want unix or dos)", mode)
}

// beautifyBasic breaks minified code after ; { and } and squeezes blank
// lines. Good enough to read, not a formatter.
func beautifyBasic(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	line := make([]byte, 0, 128)
	blank := false
	flush := func() {
		l := strings.TrimRight(string(line), " \t")
		line = line[:0]
		if l == "" {
			if blank {
				return
			}
			blank = true
		} else {
			blank = false
		}
		b.WriteString(l)
		b.WriteByte('\n')
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' {
			flush()
			continue
		}
		line = append(line, c)
		if c == ';' || c == '{' || c == '}' {
			flush()
		}
	}
	flush()
	return b.String()
}

var toLF = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeEOL rewrites every line ending for mode; EOLKeep leaves s as is.
func normalizeEOL(s, mode string) string {
	switch strings.ToLower(mode) {
	case EOLUnix:
		return toLF.Replace(s)
	case EOLDos, "windows":
		return strings.ReplaceAll(toLF.Replace(s), "\n", "\r\n")
	}
	return s
}
