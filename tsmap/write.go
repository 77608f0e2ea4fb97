// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer materialises resolved sources under Root.
type Writer struct {
	Root     string
	Beautify bool
	EOL      string
}

// Write stores rs at Root/<sanitized path>, creating directories as needed
// and overwriting any existing file. It returns the absolute path and the
// number of bytes written.
func (w *Writer) Write(rs ResolvedSource) (string, int, error) {
	content := rs.Content
	if w.Beautify {
		content = beautifyBasic(content)
	}
	content = normalizeEOL(content, w.EOL)
	return w.writeFile(rs.SanitizedPath, []byte(content))
}

// WriteRaw stores data under Root without any formatting.
func (w *Writer) WriteRaw(rel string, data []byte) (string, int, error) {
	return w.writeFile(Sanitize(rel), data)
}

func (w *Writer) writeFile(rel string, data []byte) (string, int, error) {
	// revalider apres jointure, meme si le chemin est deja nettoye
	abs, err := SafeJoin(w.Root, rel)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", 0, fmt.Errorf("create dir: %w", err)
	}
	if err := replaceFile(abs, data); err != nil {
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return abs, len(data), nil
}

// replaceFile writes data to a temp file next to path and renames it over
// path, so concurrent writers of one path never interleave their bytes.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tsmap-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
