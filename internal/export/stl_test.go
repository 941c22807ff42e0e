package export

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/meshforge/internal/convert"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// cube returns the 8-vertex, 12-face unit cube used across export tests.
func cube() *mesh.MeshData {
	return &mesh.MeshData{
		Vertices: []mesh.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: []mesh.Face{
			{0, 1, 2}, {0, 2, 3},
			{4, 7, 6}, {4, 6, 5},
			{0, 4, 5}, {0, 5, 1},
			{2, 6, 7}, {2, 7, 3},
			{0, 3, 7}, {0, 7, 4},
			{1, 5, 6}, {1, 6, 2},
		},
	}
}

func TestSTLExporterCanExport(t *testing.T) {
	e := NewSTLExporter()
	assert.True(t, e.CanExport("stl"))
	assert.True(t, e.CanExport("stl_ascii"))
	assert.True(t, e.CanExport("STL_BINARY"))
	assert.False(t, e.CanExport("obj"))
}

func TestSTLExportBinaryLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	out, err := NewSTLExporter().Export(cube(), path, Options{Binary: true})
	require.NoError(t, err)
	assert.Equal(t, path, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// 80-byte header + count + 12 triangles of 50 bytes.
	require.Equal(t, 84+12*50, len(data))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(data[80:84]))
}

func TestSTLExportASCIIGrammar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	_, err := NewSTLExporter().Export(cube(), path, Options{Binary: false})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "solid "))
	assert.True(t, strings.Contains(text, "endsolid"))
	assert.Equal(t, 12, strings.Count(text, "facet normal"))
	assert.Equal(t, 12, strings.Count(text, "endfacet"))
	assert.Equal(t, 36, strings.Count(text, "vertex "))
}

// STL is lossless for position and topology: export then re-import must
// round-trip vertex and face counts exactly.
func TestSTLRoundTrip(t *testing.T) {
	for _, binary := range []bool{true, false} {
		name := "ascii"
		if binary {
			name = "binary"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cube.stl")
			_, err := NewSTLExporter().Export(cube(), path, Options{Binary: binary})
			require.NoError(t, err)

			m, err := convert.NewSTLConverter().Read(path, 0.1, 0.5)
			require.NoError(t, err)
			assert.Equal(t, 8, m.VertexCount())
			assert.Equal(t, 12, m.FaceCount())
		})
	}
}

func TestSTLExportFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "cube.stl")
	_, err := NewSTLExporter().Export(cube(), path, Options{Binary: true})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
