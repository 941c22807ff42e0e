package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// STLExporter writes binary and ASCII STL. Face normals are always
// recomputed from geometry at write time; STL carries no vertex normals.
type STLExporter struct {
	formats []string
}

// NewSTLExporter returns an exporter for the stl, stl_ascii, and
// stl_binary tokens.
func NewSTLExporter() *STLExporter {
	return &STLExporter{formats: []string{"stl", "stl_ascii", "stl_binary"}}
}

func (e *STLExporter) CanExport(format string) bool { return hasFormat(format, e.formats) }

func (e *STLExporter) Formats() []string { return e.formats }

func (e *STLExporter) Export(m *mesh.MeshData, outputPath string, opts Options) (string, error) {
	variant := "ascii"
	if opts.Binary {
		variant = "binary"
	}
	slog.Info("Exporting STL", logfields.Path(outputPath), slog.String("variant", variant))

	write := e.writeASCII
	if opts.Binary {
		write = e.writeBinary
	}
	size, err := writeAtomic(outputPath, func(w io.Writer) error {
		return write(w, m)
	})
	if err != nil {
		return "", meshErrors.ExportFailure("stl", outputPath, err)
	}

	slog.Info("STL export complete", logfields.Path(outputPath), logfields.SizeBytes(size))
	return outputPath, nil
}

func (e *STLExporter) writeBinary(w io.Writer, m *mesh.MeshData) error {
	var header [80]byte
	copy(header[:], "meshforge binary STL")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return err
	}

	for _, f := range m.Faces {
		n := mesh.FaceNormal(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
		rec := struct {
			Normal   [3]float32
			Vertices [3][3]float32
			Attr     uint16
		}{
			Normal: [3]float32{float32(n[0]), float32(n[1]), float32(n[2])},
		}
		for i, idx := range f {
			v := m.Vertices[idx]
			rec.Vertices[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return err
		}
	}
	return nil
}

func (e *STLExporter) writeASCII(w io.Writer, m *mesh.MeshData) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "solid meshforge"); err != nil {
		return err
	}
	for _, f := range m.Faces {
		n := mesh.FaceNormal(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
		fmt.Fprintf(bw, "  facet normal %e %e %e\n", n[0], n[1], n[2])
		fmt.Fprintln(bw, "    outer loop")
		for _, idx := range f {
			v := m.Vertices[idx]
			fmt.Fprintf(bw, "      vertex %e %e %e\n", v[0], v[1], v[2])
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	if _, err := fmt.Fprintln(bw, "endsolid meshforge"); err != nil {
		return err
	}
	return bw.Flush()
}
