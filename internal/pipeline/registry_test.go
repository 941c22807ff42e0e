package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/meshforge/internal/convert"
	"git.home.luguber.info/inful/meshforge/internal/export"
)

func standardRegistry() *Registry {
	return NewRegistry(
		[]convert.Converter{
			convert.NewSTEPConverter(nil),
			convert.NewIGESConverter(nil),
			convert.NewSTLConverter(),
		},
		[]export.Exporter{
			export.NewSTLExporter(),
			export.NewOBJExporter(),
			export.NewGLTFExporter(),
		},
	)
}

func TestRegistryConverterLookup(t *testing.T) {
	r := standardRegistry()

	for _, ext := range []string{"step", "stp", "iges", "igs", "stl", "STEP", ".step", ".STP"} {
		_, ok := r.ConverterFor(ext)
		assert.True(t, ok, "expected converter for %q", ext)
	}

	_, ok := r.ConverterFor("3mf")
	assert.False(t, ok)
	_, ok = r.ConverterFor("")
	assert.False(t, ok)
}

func TestRegistryExporterLookup(t *testing.T) {
	r := standardRegistry()

	for _, token := range []string{"stl", "stl_ascii", "stl_binary", "obj", "gltf", "glb", "STL", "GLB"} {
		_, ok := r.ExporterFor(token)
		assert.True(t, ok, "expected exporter for %q", token)
	}

	_, ok := r.ExporterFor("ply")
	assert.False(t, ok)
}

func TestRegistryFormatLists(t *testing.T) {
	r := standardRegistry()

	in := r.InputFormats()
	require.ElementsMatch(t, []string{"step", "stp", "iges", "igs", "stl"}, in)
	assert.IsNonDecreasing(t, in)

	out := r.OutputFormats()
	require.ElementsMatch(t, []string{"stl", "stl_ascii", "stl_binary", "obj", "gltf", "glb"}, out)
	assert.IsNonDecreasing(t, out)
}
