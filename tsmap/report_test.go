// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleReport() *Report {
	return &Report{
		Entry: Entry{Kind: EntryLocalMap, Location: "app.js.map"},
		Sources: []SourceResult{
			{Source: "webpack:///src/a.js", Path: "src/a.js", Origin: OriginEmbedded, Status: StatusWritten, Bytes: 5},
			{Source: "src/b.js", Path: "src/b.js", Status: StatusSkipped, Err: ErrUnresolvedSource},
			{Source: "src/c.js", Path: "src/c.js", Origin: OriginFetched, Status: StatusFailed, Err: errors.New("disk full")},
		},
	}
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 1, r.Written())
	assert.Equal(t, 1, r.Skipped())
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, uint64(5), r.Bytes())
	assert.True(t, r.OK())
	assert.Equal(t, "1 written (5 B), 1 skipped, 1 failed", r.Summary())

	empty := &Report{}
	assert.False(t, empty.OK())
	assert.Equal(t, "0 written (0 B), 0 skipped, 0 failed", empty.Summary())
}

func TestReportRender(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().Render(&buf)
	out := buf.String()

	for _, want := range []string{"SOURCE", "STATUS", "src/a.js", "embedded", "written", "5 B", "skipped", "disk full"} {
		assert.Contains(t, out, want)
	}
}

func TestStatusAndOriginStrings(t *testing.T) {
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "written", StatusWritten.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "none", OriginNone.String())
	assert.Equal(t, "fetched", OriginFetched.String())
}
