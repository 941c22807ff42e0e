package geometry

import (
	"fmt"

	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// Assemble concatenates per-face kernel triangulations into one mesh:
// nodes are transformed to global coordinates, triangle indices are
// converted from the kernel's 1-based face-local numbering to global
// 0-based numbering, and reversed faces get their winding flipped.
func Assemble(faces []FaceTriangulation) (*mesh.MeshData, error) {
	m := mesh.New()

	for fi, face := range faces {
		base := len(m.Vertices)

		trsf := Identity()
		if face.Transform != nil {
			trsf = *face.Transform
		}
		for _, node := range face.Nodes {
			m.Vertices = append(m.Vertices, trsf.Apply(node))
		}

		for ti, tri := range face.Triangles {
			n1, n2, n3 := tri[0], tri[1], tri[2]
			for _, n := range []int{n1, n2, n3} {
				if n < 1 || n > len(face.Nodes) {
					return nil, fmt.Errorf("face %d triangle %d references node %d outside 1..%d",
						fi, ti, n, len(face.Nodes))
				}
			}

			f := mesh.Face{base + n1 - 1, base + n2 - 1, base + n3 - 1}
			if face.Reversed {
				f[1], f[2] = f[2], f[1]
			}
			m.Faces = append(m.Faces, f)
		}
	}

	m.Metadata.VertexCount = len(m.Vertices)
	m.Metadata.FaceCount = len(m.Faces)
	return m, nil
}
