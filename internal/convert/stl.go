package convert

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// STLConverter reads ASCII and binary STL files without a geometry
// kernel. The variant is sniffed from file content, not the extension:
// a "solid" prefix alone does not prove ASCII since binary headers may
// start with it too.
type STLConverter struct {
	extensions []string
}

// NewSTLConverter returns a converter for .stl files.
func NewSTLConverter() *STLConverter {
	return &STLConverter{extensions: []string{"stl"}}
}

func (c *STLConverter) CanRead(path string) bool { return hasExtension(path, c.extensions) }

func (c *STLConverter) Extensions() []string { return c.extensions }

func (c *STLConverter) Read(path string, deflection, angularDeflection float64) (*mesh.MeshData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, meshErrors.InputNotFound(path)
		}
		return nil, meshErrors.FileSystemError("read", err).WithContext("path", path)
	}

	slog.Info("Reading STL file", logfields.Path(path))

	variant := "binary"
	var m *mesh.MeshData
	if isASCIISTL(data) {
		variant = "ascii"
		m, err = parseASCIISTL(data)
	} else {
		m, err = parseBinarySTL(data)
	}
	if err != nil {
		return nil, meshErrors.Wrap(err, meshErrors.CategoryInput, meshErrors.SeverityFatal,
			"failed to parse STL file").WithContext("path", path)
	}

	m.Metadata.SourceFormat = "STL"
	m.Metadata.SourceFile = filepath.Base(path)
	m.Metadata.STLVariant = variant
	m.Metadata.Deflection = deflection
	m.Metadata.AngularDeflection = angularDeflection
	m.Metadata.VertexCount = m.VertexCount()
	m.Metadata.FaceCount = m.FaceCount()

	slog.Info("STL file read",
		logfields.Path(path),
		slog.String("variant", variant),
		slog.Int("vertices", m.VertexCount()),
		slog.Int("faces", m.FaceCount()))
	return m, nil
}

// isASCIISTL sniffs whether data is an ASCII STL. The header must start
// with "solid" and the early content must contain "facet normal".
func isASCIISTL(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return false
	}
	probe := data
	if len(probe) > 1000 {
		probe = probe[:1000]
	}
	lower := bytes.ToLower(probe)
	return bytes.Contains(lower, []byte("facet normal"))
}

// vertexWelder deduplicates vertices by exact coordinates within one
// converter pass. STL repeats every vertex per triangle; welding
// restores shared topology.
type vertexWelder struct {
	m     *mesh.MeshData
	index map[mesh.Vec3]int
}

func newVertexWelder() *vertexWelder {
	return &vertexWelder{m: mesh.New(), index: make(map[mesh.Vec3]int)}
}

func (w *vertexWelder) add(v mesh.Vec3) int {
	if idx, ok := w.index[v]; ok {
		return idx
	}
	idx := len(w.m.Vertices)
	w.m.Vertices = append(w.m.Vertices, v)
	w.index[v] = idx
	return idx
}

func (w *vertexWelder) addTriangle(a, b, c mesh.Vec3) {
	w.m.Faces = append(w.m.Faces, mesh.Face{w.add(a), w.add(b), w.add(c)})
}

func parseASCIISTL(data []byte) (*mesh.MeshData, error) {
	welder := newVertexWelder()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var tri []mesh.Vec3
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: malformed vertex line", line)
			}
			var v mesh.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid vertex coordinate %q", line, fields[i+1])
				}
				v[i] = f
			}
			tri = append(tri, v)
		case "endfacet":
			if len(tri) != 3 {
				return nil, fmt.Errorf("line %d: facet with %d vertices", line, len(tri))
			}
			welder.addTriangle(tri[0], tri[1], tri[2])
			tri = tri[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(welder.m.Faces) == 0 {
		return nil, fmt.Errorf("no facets found")
	}
	return welder.m, nil
}

// Binary STL layout: 80-byte header, uint32 triangle count, then per
// triangle a float32 normal, three float32 vertices, and a uint16
// attribute byte count. All little-endian.
const binarySTLHeaderSize = 84
const binarySTLTriangleSize = 50

func parseBinarySTL(data []byte) (*mesh.MeshData, error) {
	if len(data) < binarySTLHeaderSize {
		return nil, fmt.Errorf("file too short for binary STL header (%d bytes)", len(data))
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	want := binarySTLHeaderSize + int(count)*binarySTLTriangleSize
	if len(data) < want {
		return nil, fmt.Errorf("truncated binary STL: %d triangles declared, %d bytes present", count, len(data))
	}

	welder := newVertexWelder()
	r := bytes.NewReader(data[binarySTLHeaderSize:])
	for i := uint32(0); i < count; i++ {
		var rec struct {
			Normal   [3]float32
			Vertices [3][3]float32
			Attr     uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("truncated triangle record %d", i)
			}
			return nil, err
		}
		var tri [3]mesh.Vec3
		for v := 0; v < 3; v++ {
			tri[v] = mesh.Vec3{
				float64(rec.Vertices[v][0]),
				float64(rec.Vertices[v][1]),
				float64(rec.Vertices[v][2]),
			}
		}
		welder.addTriangle(tri[0], tri[1], tri[2])
	}
	if len(welder.m.Faces) == 0 {
		return nil, fmt.Errorf("binary STL declares zero triangles")
	}
	return welder.m, nil
}
