// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Couleurs desactivees automatiquement hors TTY (color.NoColor)
var (
	cRed = color.New(color.FgRed).SprintFunc()
	cGrn = color.New(color.FgGreen).SprintFunc()
	cYel = color.New(color.FgYellow).SprintFunc()
	cCyn = color.New(color.FgCyan).SprintFunc()
)

func printWritten(w io.Writer, path string) {
	fmt.Fprintf(w, "%s: %s\n", cGrn("Written"), path)
}

func printSkipped(w io.Writer, why, src string) {
	fmt.Fprintf(w, "%s (%s): %s\n", cYel("Skipped"), why, src)
}

func printError(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "%s "+format+"\n", append([]any{cRed("Error:")}, a...)...)
}

func printSummary(w io.Writer, summary string) {
	fmt.Fprintf(w, "\n%s: %s\n", cCyn("Summary"), summary)
}
