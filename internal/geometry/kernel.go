// Package geometry defines the contract for the external B-rep geometry
// kernel and the assembly of its per-face tessellation output into a
// single mesh. No geometry computation happens here beyond coordinate
// transforms and index bookkeeping; triangulation itself belongs to the
// kernel.
package geometry

import "git.home.luguber.info/inful/meshforge/internal/mesh"

// ShapeFormat identifies a B-rep exchange format the kernel can parse.
type ShapeFormat string

const (
	FormatSTEP ShapeFormat = "step"
	FormatIGES ShapeFormat = "iges"
)

// Shape is an opaque handle to a parsed boundary-representation solid.
// Its contents are meaningful only to the kernel that produced it.
type Shape interface {
	// IsNull reports whether parsing produced no usable shape.
	IsNull() bool
}

// Trsf is a rigid transform from face-local to global coordinates:
// p' = R*p + T.
type Trsf struct {
	// R is a row-major 3x3 rotation matrix.
	R [3][3]float64
	// T is the translation component.
	T mesh.Vec3
}

// Identity returns the identity transform.
func Identity() Trsf {
	return Trsf{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Apply transforms p from face-local to global coordinates.
func (t Trsf) Apply(p mesh.Vec3) mesh.Vec3 {
	return mesh.Vec3{
		t.R[0][0]*p[0] + t.R[0][1]*p[1] + t.R[0][2]*p[2] + t.T[0],
		t.R[1][0]*p[0] + t.R[1][1]*p[1] + t.R[1][2]*p[2] + t.T[1],
		t.R[2][0]*p[0] + t.R[2][1]*p[1] + t.R[2][2]*p[2] + t.T[2],
	}
}

// FaceTriangulation is the kernel's tessellation of one topological face.
type FaceTriangulation struct {
	// Nodes are triangulation points, possibly in a face-local frame.
	Nodes []mesh.Vec3

	// Triangles hold 1-based indices into Nodes, per kernel convention.
	Triangles [][3]int

	// Reversed marks a face whose geometric orientation is opposite its
	// parametric one; its triangle winding must be flipped.
	Reversed bool

	// Transform maps Nodes to global coordinates. Nil means identity.
	Transform *Trsf
}

// Kernel is the geometry kernel consumed by the B-rep converters. A
// real implementation binds an external CAD kernel; none ships with
// this module.
type Kernel interface {
	// Name identifies the kernel for mesh metadata.
	Name() string

	// LoadShape parses an exchange file into a B-rep shape.
	LoadShape(path string, format ShapeFormat) (Shape, error)

	// Tessellate triangulates every face of the shape under the given
	// chordal and angular deflection tolerances.
	Tessellate(shape Shape, deflection, angularDeflection float64) ([]FaceTriangulation, error)
}
