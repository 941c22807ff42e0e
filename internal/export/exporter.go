// Package export serializes mesh data to renderable file formats. Every
// exporter writes through a temp file in the target directory and
// renames into place, so a failed export never leaves a partial file.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// Options carries format-specific export settings. Fields not relevant
// to a format are ignored by its exporter.
type Options struct {
	// Binary selects binary vs text serialization (STL, glTF/GLB).
	Binary bool

	// IncludeNormals controls vn emission for OBJ.
	IncludeNormals bool

	// IncludeMaterial enables the companion MTL file for OBJ.
	IncludeMaterial bool

	// MaterialName names the OBJ material. Empty means "default".
	MaterialName string
}

// Exporter serializes mesh data to one family of output formats.
type Exporter interface {
	// CanExport reports whether the exporter handles the format token.
	CanExport(format string) bool

	// Formats lists the handled output tokens.
	Formats() []string

	// Export writes the mesh to outputPath and returns the path written.
	Export(m *mesh.MeshData, outputPath string, opts Options) (string, error)
}

// NormalizeFormat lowercases a format token and strips a leading dot.
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(format), ".")
}

func hasFormat(format string, formats []string) bool {
	got := NormalizeFormat(format)
	for _, f := range formats {
		if got == f {
			return true
		}
	}
	return false
}

// countingWriter tracks bytes written for size reporting.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// writeAtomic writes via fn to a temp file next to path and renames it
// into place on success. On failure the temp file is removed and path
// is left untouched. Returns the byte count written.
func writeAtomic(path string, fn func(w io.Writer) error) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".meshforge-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cw := &countingWriter{w: tmp}
	if err := fn(cw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to place output file: %w", err)
	}
	return cw.n, nil
}
