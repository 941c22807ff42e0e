// Package convert turns CAD source files into mesh data. B-rep formats
// (STEP, IGES) delegate triangulation to the external geometry kernel;
// STL is read directly.
package convert

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// Converter reads one family of input formats into mesh data.
type Converter interface {
	// CanRead reports whether the converter handles the file's extension.
	CanRead(path string) bool

	// Extensions lists the handled extensions without a leading dot.
	Extensions() []string

	// Read parses the file and tessellates it under the given chordal
	// and angular deflection tolerances.
	Read(path string, deflection, angularDeflection float64) (*mesh.MeshData, error)
}

// NormalizeExtension lowercases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// extensionOf returns the normalized extension of path.
func extensionOf(path string) string {
	return NormalizeExtension(filepath.Ext(path))
}

// hasExtension reports whether path's extension is in exts.
func hasExtension(path string, exts []string) bool {
	got := extensionOf(path)
	for _, e := range exts {
		if got == e {
			return true
		}
	}
	return false
}
