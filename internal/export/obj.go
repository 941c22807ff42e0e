package export

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// OBJExporter writes Wavefront OBJ, optionally with per-vertex normals
// and a companion MTL file carrying a fixed default material.
type OBJExporter struct {
	formats []string
}

// NewOBJExporter returns an exporter for the obj token.
func NewOBJExporter() *OBJExporter {
	return &OBJExporter{formats: []string{"obj"}}
}

func (e *OBJExporter) CanExport(format string) bool { return hasFormat(format, e.formats) }

func (e *OBJExporter) Formats() []string { return e.formats }

func (e *OBJExporter) Export(m *mesh.MeshData, outputPath string, opts Options) (string, error) {
	slog.Info("Exporting OBJ", logfields.Path(outputPath))

	materialName := opts.MaterialName
	if materialName == "" {
		materialName = "default"
	}
	mtlPath := strings.TrimSuffix(outputPath, ".obj") + ".mtl"

	includeNormals := opts.IncludeNormals && m.HasNormals()

	size, err := writeAtomic(outputPath, func(w io.Writer) error {
		return e.writeOBJ(w, m, includeNormals, opts.IncludeMaterial, mtlPath, materialName)
	})
	if err != nil {
		return "", meshErrors.ExportFailure("obj", outputPath, err)
	}

	if opts.IncludeMaterial {
		if _, err := writeAtomic(mtlPath, func(w io.Writer) error {
			return e.writeMTL(w, materialName)
		}); err != nil {
			return "", meshErrors.ExportFailure("obj", mtlPath, err)
		}
	}

	slog.Info("OBJ export complete", logfields.Path(outputPath), logfields.SizeBytes(size))
	return outputPath, nil
}

func (e *OBJExporter) writeOBJ(w io.Writer, m *mesh.MeshData, includeNormals, includeMaterial bool, mtlPath, materialName string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Exported by meshforge")
	if includeMaterial {
		fmt.Fprintf(bw, "mtllib %s\n", filepath.Base(mtlPath))
		fmt.Fprintf(bw, "usemtl %s\n", materialName)
	}

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v[0], v[1], v[2])
	}
	if includeNormals {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
		}
	}

	// OBJ indices are 1-based. With normals present, vertex and normal
	// arrays are parallel so the indices coincide.
	for _, f := range m.Faces {
		if includeNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n",
				f[0]+1, f[0]+1, f[1]+1, f[1]+1, f[2]+1, f[2]+1)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
		}
	}
	return bw.Flush()
}

// writeMTL emits the fixed default material.
func (e *OBJExporter) writeMTL(w io.Writer, materialName string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Material file")
	fmt.Fprintf(bw, "newmtl %s\n", materialName)
	fmt.Fprintln(bw, "Ka 0.2 0.2 0.2")
	fmt.Fprintln(bw, "Kd 0.8 0.8 0.8")
	fmt.Fprintln(bw, "Ks 1.0 1.0 1.0")
	fmt.Fprintln(bw, "Ns 100.0")
	fmt.Fprintln(bw, "d 1.0")
	fmt.Fprintln(bw, "illum 2")
	return bw.Flush()
}
