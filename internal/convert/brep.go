package convert

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/geometry"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// BRepConverter reads a B-rep exchange format by delegating parsing and
// tessellation to the geometry kernel. With no kernel configured it
// fails closed with a kernel-unavailable error; it never substitutes
// placeholder geometry.
type BRepConverter struct {
	format     geometry.ShapeFormat
	extensions []string
	kernel     geometry.Kernel
}

// NewSTEPConverter returns a converter for .step/.stp files.
func NewSTEPConverter(kernel geometry.Kernel) *BRepConverter {
	return &BRepConverter{
		format:     geometry.FormatSTEP,
		extensions: []string{"step", "stp"},
		kernel:     kernel,
	}
}

// NewIGESConverter returns a converter for .iges/.igs files.
func NewIGESConverter(kernel geometry.Kernel) *BRepConverter {
	return &BRepConverter{
		format:     geometry.FormatIGES,
		extensions: []string{"iges", "igs"},
		kernel:     kernel,
	}
}

func (c *BRepConverter) CanRead(path string) bool { return hasExtension(path, c.extensions) }

func (c *BRepConverter) Extensions() []string { return c.extensions }

func (c *BRepConverter) Read(path string, deflection, angularDeflection float64) (*mesh.MeshData, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, meshErrors.InputNotFound(path)
	}
	if c.kernel == nil {
		return nil, meshErrors.KernelUnavailable(string(c.format))
	}

	slog.Info("Reading B-rep file",
		logfields.Path(path),
		logfields.Format(string(c.format)),
		slog.Float64("deflection", deflection),
		slog.Float64("angular_deflection", angularDeflection))

	shape, err := c.kernel.LoadShape(path, c.format)
	if err != nil {
		return nil, meshErrors.KernelParseFailure(path, err)
	}
	if shape.IsNull() {
		return nil, meshErrors.KernelParseFailure(path, nil).
			WithContext("reason", "kernel produced a null shape")
	}

	faces, err := c.kernel.Tessellate(shape, deflection, angularDeflection)
	if err != nil {
		return nil, meshErrors.MeshingFailure(path, err)
	}

	m, err := geometry.Assemble(faces)
	if err != nil {
		return nil, meshErrors.MeshingFailure(path, err)
	}

	mesh.ComputeVertexNormals(m)

	m.Metadata.SourceFormat = strings.ToUpper(string(c.format))
	m.Metadata.SourceFile = filepath.Base(path)
	m.Metadata.Deflection = deflection
	m.Metadata.AngularDeflection = angularDeflection
	m.Metadata.KernelVersion = c.kernel.Name()

	slog.Info("B-rep file read",
		logfields.Path(path),
		slog.Int("vertices", m.VertexCount()),
		slog.Int("faces", m.FaceCount()))
	return m, nil
}
