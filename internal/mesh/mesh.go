// Package mesh defines the triangle mesh representation passed between
// converters and exporters, and the validation/assembly steps applied
// to raw tessellation output.
package mesh

import "math"

// Vec3 is a point or direction in 3D space.
type Vec3 [3]float64

// Face references three distinct vertex indices in counter-clockwise
// winding order.
type Face [3]int

// Metadata carries provenance and diagnostics alongside a mesh. It is
// never consulted for geometry. Kernel-specific diagnostic fields go in
// Extra as opaque strings.
type Metadata struct {
	SourceFormat      string            `json:"source_format,omitempty"`
	SourceFile        string            `json:"source_file,omitempty"`
	Deflection        float64           `json:"deflection,omitempty"`
	AngularDeflection float64           `json:"angular_deflection,omitempty"`
	VertexCount       int               `json:"vertex_count,omitempty"`
	FaceCount         int               `json:"face_count,omitempty"`
	KernelVersion     string            `json:"kernel_version,omitempty"`
	STLVariant        string            `json:"stl_variant,omitempty"` // "ascii" or "binary"
	Placeholder       bool              `json:"placeholder,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// MeshData is the pipeline's universal currency: created by a converter,
// mutated in place by the validator, consumed read-only by an exporter.
type MeshData struct {
	Vertices []Vec3
	Faces    []Face

	// Normals are per-vertex normals. Empty is valid and means
	// "compute or omit" for exporters.
	Normals []Vec3

	Metadata Metadata
}

// New returns an empty mesh.
func New() *MeshData {
	return &MeshData{}
}

// VertexCount returns the number of vertices.
func (m *MeshData) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of faces.
func (m *MeshData) FaceCount() int { return len(m.Faces) }

// HasNormals reports whether per-vertex normals are present.
func (m *MeshData) HasNormals() bool { return len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0 }

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Cross returns the cross product a × b.
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Length returns the Euclidean length of v.
func Length(v Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize returns v scaled to unit length, or the zero vector when v
// has zero length.
func Normalize(v Vec3) Vec3 {
	l := Length(v)
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// FaceNormal returns the unit normal of the triangle (a, b, c), or the
// zero vector for a degenerate triangle.
func FaceNormal(a, b, c Vec3) Vec3 {
	return Normalize(Cross(Sub(b, a), Sub(c, a)))
}
