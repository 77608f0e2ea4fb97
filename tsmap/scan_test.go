// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindMapDirective(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"trailing line", "var a=1;\n//# sourceMappingURL=app.js.map\n", "app.js.map", true},
		{"crlf and spaces", "x\r\n//# sourceMappingURL=  app.js.map  \r\n", "app.js.map", true},
		{"bare cr", "a();\r//# sourceMappingURL=app.js.map\rvar x=1;", "app.js.map", true},
		{"unicode line separator", "a();\u2028//# sourceMappingURL=u.map\u2029b();", "u.map", true},
		{"form feed", "a();\f//# sourceMappingURL=f.map\vb();", "f.map", true},
		{"mid line", "var a=1;//# sourceMappingURL=a.map", "a.map", true},
		{"first wins", "//# sourceMappingURL=one.map\n//# sourceMappingURL=two.map", "one.map", true},
		{"inline", "//# sourceMappingURL=data:application/json;base64,e30=", "data:application/json;base64,e30=", true},
		{"absent", "var a=1;\n", "", false},
		{"old at syntax not recognized", "//@ sourceMappingURL=a.map", "", false},
		{"empty reference", "//# sourceMappingURL=\n//# sourceMappingURL=b.map", "", false},
		{"empty text", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindMapDirective(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindMapDirectiveLongLine(t *testing.T) {
	text := strings.Repeat("a", 200*1024) + "\n//# sourceMappingURL=big.js.map"
	got, ok := FindMapDirective(text)
	assert.True(t, ok)
	assert.Equal(t, "big.js.map", got)
}
