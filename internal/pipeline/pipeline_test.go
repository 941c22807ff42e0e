package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
)

const asciiCube = `solid cube
  facet normal 0 0 -1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 1 0 0
    endloop
  endfacet
  facet normal 0 0 -1
    outer loop
      vertex 0 0 0
      vertex 0 1 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 1
      vertex 1 0 1
      vertex 1 1 1
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 1
      vertex 1 1 1
      vertex 0 1 1
    endloop
  endfacet
  facet normal 0 -1 0
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 0 1
    endloop
  endfacet
  facet normal 0 -1 0
    outer loop
      vertex 0 0 0
      vertex 1 0 1
      vertex 0 0 1
    endloop
  endfacet
  facet normal 0 1 0
    outer loop
      vertex 0 1 0
      vertex 1 1 1
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 1 0
    outer loop
      vertex 0 1 0
      vertex 0 1 1
      vertex 1 1 1
    endloop
  endfacet
  facet normal -1 0 0
    outer loop
      vertex 0 0 0
      vertex 0 0 1
      vertex 0 1 1
    endloop
  endfacet
  facet normal -1 0 0
    outer loop
      vertex 0 0 0
      vertex 0 1 1
      vertex 0 1 0
    endloop
  endfacet
  facet normal 1 0 0
    outer loop
      vertex 1 0 0
      vertex 1 1 1
      vertex 1 0 1
    endloop
  endfacet
  facet normal 1 0 0
    outer loop
      vertex 1 0 0
      vertex 1 1 0
      vertex 1 1 1
    endloop
  endfacet
endsolid cube
`

// newTestPipeline returns a kernel-less pipeline plus its input and
// output directories.
func newTestPipeline(t *testing.T) (*Pipeline, string, string) {
	t.Helper()
	inDir := t.TempDir()
	outDir := t.TempDir()
	return New(nil, outDir), inDir, outDir
}

func writeCube(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cube.stl")
	require.NoError(t, os.WriteFile(path, []byte(asciiCube), 0o644))
	return path
}

func TestConvertMissingInput(t *testing.T) {
	p, inDir, _ := newTestPipeline(t)
	_, err := p.Convert(context.Background(), Request{
		InputPath:    filepath.Join(inDir, "missing.stl"),
		OutputFormat: "obj",
	})
	require.Error(t, err)
	assert.True(t, meshErrors.HasCategory(err, meshErrors.CategoryInput))
}

func TestConvertUnsupportedInputFormat(t *testing.T) {
	p, inDir, _ := newTestPipeline(t)
	path := filepath.Join(inDir, "model.3mf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := p.Convert(context.Background(), Request{InputPath: path, OutputFormat: "obj"})
	require.Error(t, err)
	assert.True(t, meshErrors.HasCategory(err, meshErrors.CategoryFormat))
}

func TestConvertUnsupportedOutputFormat(t *testing.T) {
	p, inDir, _ := newTestPipeline(t)
	path := writeCube(t, inDir)

	_, err := p.Convert(context.Background(), Request{InputPath: path, OutputFormat: "ply"})
	require.Error(t, err)
	assert.True(t, meshErrors.HasCategory(err, meshErrors.CategoryFormat))
}

func TestConvertKernelUnavailablePropagates(t *testing.T) {
	p, inDir, _ := newTestPipeline(t)
	path := filepath.Join(inDir, "part.step")
	require.NoError(t, os.WriteFile(path, []byte("ISO-10303-21;"), 0o644))

	_, err := p.Convert(context.Background(), Request{InputPath: path, OutputFormat: "stl"})
	require.Error(t, err)
	// No silent placeholder fallback in the orchestrator.
	assert.True(t, meshErrors.HasCategory(err, meshErrors.CategoryKernel))
}

// End-to-end: a cube through the pipeline to OBJ keeps all 8 vertices
// and 12 faces, with no implicit welding of already-distinct vertices.
func TestConvertCubeToOBJ(t *testing.T) {
	p, inDir, outDir := newTestPipeline(t)
	path := writeCube(t, inDir)

	out, err := p.Convert(context.Background(), Request{
		InputPath:    path,
		OutputFormat: "obj",
		Quality:      "medium",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "cube.obj"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)

	vLines := 0
	fLines := 0
	for _, line := range splitLines(text) {
		switch {
		case len(line) > 2 && line[:2] == "v ":
			vLines++
		case len(line) > 2 && line[:2] == "f ":
			fLines++
		}
	}
	assert.Equal(t, 8, vLines)
	assert.Equal(t, 12, fLines)
}

func TestConvertOutputPathCollisionProbing(t *testing.T) {
	p, inDir, outDir := newTestPipeline(t)
	path := writeCube(t, inDir)

	req := Request{InputPath: path, OutputFormat: "stl", Quality: "medium"}

	first, err := p.Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "cube.stl"), first)

	second, err := p.Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "cube_1.stl"), second)

	third, err := p.Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "cube_2.stl"), third)

	// The earlier outputs are untouched.
	for _, f := range []string{first, second, third} {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}

// A broken output directory must abort the collision probe with a
// filesystem error instead of counting suffixes forever.
func TestConvertOutputDirStatFailureAborts(t *testing.T) {
	inDir := t.TempDir()
	path := writeCube(t, inDir)

	// The "directory" is a regular file, so probing any candidate path
	// beneath it fails with ENOTDIR rather than ENOENT.
	notADir := filepath.Join(t.TempDir(), "outputs")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))
	p := New(nil, notADir)

	done := make(chan error, 1)
	go func() {
		_, err := p.Convert(context.Background(), Request{InputPath: path, OutputFormat: "obj"})
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, meshErrors.HasCategory(err, meshErrors.CategoryFileSystem))
	case <-time.After(5 * time.Second):
		t.Fatal("output path probing did not terminate")
	}
}

func TestConvertExplicitOutputPath(t *testing.T) {
	p, inDir, outDir := newTestPipeline(t)
	path := writeCube(t, inDir)
	want := filepath.Join(outDir, "custom-name.obj")

	out, err := p.Convert(context.Background(), Request{
		InputPath:    path,
		OutputFormat: "obj",
		OutputPath:   want,
	})
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestConvertSTLVariantTokens(t *testing.T) {
	p, inDir, _ := newTestPipeline(t)
	path := writeCube(t, inDir)

	ascii, err := p.Convert(context.Background(), Request{InputPath: path, OutputFormat: "stl_ascii"})
	require.NoError(t, err)
	data, err := os.ReadFile(ascii)
	require.NoError(t, err)
	assert.Contains(t, string(data), "solid ")
	assert.Equal(t, ".stl", filepath.Ext(ascii))

	bin, err := p.Convert(context.Background(), Request{InputPath: path, OutputFormat: "stl_binary"})
	require.NoError(t, err)
	binData, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.NotContains(t, string(binData[:5]), "solid")
}

func TestExportOptionsDerivation(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name       string
		token      string
		req        Request
		wantBinary bool
	}{
		{"stl defaults binary", "stl", Request{}, true},
		{"stl explicit ascii", "stl", Request{Binary: boolPtr(false)}, false},
		{"stl_ascii forces text", "stl_ascii", Request{Binary: boolPtr(true)}, false},
		{"stl_binary", "stl_binary", Request{}, true},
		{"glb forces binary", "glb", Request{Binary: boolPtr(false)}, true},
		{"gltf forces text", "gltf", Request{Binary: boolPtr(true)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exportOptions(tt.token, tt.req)
			assert.Equal(t, tt.wantBinary, got.Binary)
		})
	}

	// OBJ includes normals unless disabled.
	assert.True(t, exportOptions("obj", Request{}).IncludeNormals)
	assert.False(t, exportOptions("obj", Request{IncludeNormals: boolPtr(false)}).IncludeNormals)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
