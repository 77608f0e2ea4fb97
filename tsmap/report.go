// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Status is the outcome for one declared source.
type Status int

const (
	// StatusSkipped: no content could be recovered.
	StatusSkipped Status = iota
	// StatusWritten: content is on disk.
	StatusWritten
	// StatusFailed: content was recovered but could not be written.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// SourceResult records what happened to one entry of the map's sources.
type SourceResult struct {
	Source string
	Path   string
	Origin Origin
	Status Status
	Bytes  int
	Err    error
}

// Report is the per-source result of one extraction run.
type Report struct {
	Entry Entry
	// MapLocation is the URL or path the map was read from; empty for
	// inline maps.
	MapLocation string
	Base        string
	Sources     []SourceResult
}

func (r *Report) count(s Status) int {
	n := 0
	for _, sr := range r.Sources {
		if sr.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Written() int { return r.count(StatusWritten) }
func (r *Report) Skipped() int { return r.count(StatusSkipped) }
func (r *Report) Failed() int  { return r.count(StatusFailed) }

// Bytes is the total size of the files written.
func (r *Report) Bytes() uint64 {
	var n uint64
	for _, sr := range r.Sources {
		if sr.Status == StatusWritten {
			n += uint64(sr.Bytes)
		}
	}
	return n
}

// OK is true when at least one source was written.
func (r *Report) OK() bool {
	return r.Written() > 0
}

func (r *Report) Summary() string {
	return fmt.Sprintf("%d written (%s), %d skipped, %d failed",
		r.Written(), humanize.Bytes(r.Bytes()), r.Skipped(), r.Failed())
}

// Render prints one table row per declared source.
func (r *Report) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Source", "Path", "Origin", "Status", "Size", "Error"})
	table.SetAutoWrapText(true)
	table.SetColWidth(40)
	for _, sr := range r.Sources {
		size := ""
		if sr.Status == StatusWritten {
			size = humanize.Bytes(uint64(sr.Bytes))
		}
		errText := ""
		if sr.Err != nil {
			errText = sr.Err.Error()
		}
		table.Append([]string{sr.Source, sr.Path, sr.Origin.String(), sr.Status.String(), size, errText})
	}
	table.Render()
}
