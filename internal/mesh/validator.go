package mesh

import (
	"log/slog"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
)

// Validate checks structural mesh invariants in place. Empty vertices,
// empty faces, and out-of-range face indices are hard failures.
// Degenerate faces (fewer than three distinct indices) are logged as a
// warning and left in place; repair is the decimation hook's concern.
func Validate(m *MeshData) error {
	if len(m.Vertices) == 0 {
		return meshErrors.MeshValidationFailure("mesh has no vertices")
	}
	if len(m.Faces) == 0 {
		return meshErrors.MeshValidationFailure("mesh has no faces")
	}

	degenerate := 0
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return meshErrors.MeshValidationFailure("face index out of range").
					WithContext("face", i).
					WithContext("index", idx)
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			degenerate++
		}
	}
	if degenerate > 0 {
		slog.Warn("Mesh contains degenerate faces", logfields.Count(degenerate))
	}

	slog.Debug("Mesh validation passed",
		slog.Int("vertices", len(m.Vertices)),
		slog.Int("faces", len(m.Faces)))
	return nil
}

// ComputeVertexNormals fills m.Normals by accumulating unnormalized face
// normals into each face's vertices and normalizing the sums. Vertices
// touched only by degenerate faces keep a zero normal.
func ComputeVertexNormals(m *MeshData) {
	normals := make([]Vec3, len(m.Vertices))

	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		// Unnormalized cross product: larger faces contribute more.
		n := Cross(Sub(v1, v0), Sub(v2, v0))
		for _, idx := range f {
			normals[idx][0] += n[0]
			normals[idx][1] += n[1]
			normals[idx][2] += n[2]
		}
	}

	for i := range normals {
		normals[i] = Normalize(normals[i])
	}
	m.Normals = normals
}

// ProcessOptions selects the optional post-validation steps.
type ProcessOptions struct {
	Decimate    bool
	TargetFaces int
	Smooth      bool
	Iterations  int
}

// Process validates the mesh, applies the optional decimation and
// smoothing hooks to the validated mesh, and computes normals when the
// converter did not supply them.
func Process(m *MeshData, opts ProcessOptions) error {
	if err := Validate(m); err != nil {
		return err
	}

	if opts.Decimate {
		Decimate(m, opts.TargetFaces)
	}
	if opts.Smooth {
		Smooth(m, opts.Iterations)
	}

	if !m.HasNormals() {
		ComputeVertexNormals(m)
	}
	return nil
}

// Decimate is a hook for mesh simplification. Not implemented; the mesh
// passes through unchanged.
func Decimate(m *MeshData, targetFaces int) {
	if targetFaces > 0 && len(m.Faces) > targetFaces {
		slog.Info("Decimation requested but not implemented, mesh unchanged",
			slog.Int("faces", len(m.Faces)),
			slog.Int("target_faces", targetFaces))
	}
}

// Smooth is a hook for Laplacian smoothing. Not implemented; the mesh
// passes through unchanged.
func Smooth(m *MeshData, iterations int) {
	if iterations > 0 {
		slog.Info("Smoothing requested but not implemented, mesh unchanged",
			slog.Int("iterations", iterations))
	}
}
