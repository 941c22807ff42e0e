package geometry

import "git.home.luguber.info/inful/meshforge/internal/mesh"

// PlaceholderBox returns a unit cube stand-in mesh for degraded mode
// when no geometry kernel is present. The mesh is tagged via
// Metadata.Placeholder so downstream consumers can never mistake it for
// a real conversion result.
func PlaceholderBox(deflection, angularDeflection float64) *mesh.MeshData {
	m := &mesh.MeshData{
		Vertices: []mesh.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: []mesh.Face{
			{0, 1, 2}, {0, 2, 3}, // bottom
			{4, 7, 6}, {4, 6, 5}, // top
			{0, 4, 5}, {0, 5, 1}, // front
			{2, 6, 7}, {2, 7, 3}, // back
			{0, 3, 7}, {0, 7, 4}, // left
			{1, 5, 6}, {1, 6, 2}, // right
		},
	}
	m.Metadata = mesh.Metadata{
		Placeholder:       true,
		Deflection:        deflection,
		AngularDeflection: angularDeflection,
		VertexCount:       len(m.Vertices),
		FaceCount:         len(m.Faces),
	}
	return m
}
