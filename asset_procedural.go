package fractal

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/fractal/sierpinski"
)

// CreateTetrahedronMesh registers the fractal's base shape, turned half a
// revolution about Z so its flat side faces -Y.
func (server AssetServer) CreateTetrahedronMesh() AssetId {
	shape := sierpinski.Tetrahedron().Transformed(mgl64.HomogRotate3DZ(math.Pi))

	vertices := make([]mgl32.Vec3, 0, len(shape.Vertices))
	for _, v := range shape.Vertices {
		vertices = append(vertices, mgl32.Vec3{float32(v.X()), float32(v.Y()), float32(v.Z())})
	}

	indices := make([]uint32, 0, len(shape.Faces)*3)
	for _, f := range shape.Faces {
		indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}

	return server.CreateMesh("tetrahedron", vertices, indices)
}

// CreatePlaneMesh registers a square of the given edge length in the XY
// plane, centred on the origin, facing +Z.
func (server AssetServer) CreatePlaneMesh(size float32) AssetId {
	h := size * 0.5
	vertices := []mgl32.Vec3{
		{-h, -h, 0},
		{h, -h, 0},
		{h, h, 0},
		{-h, h, 0},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	return server.CreateMesh("plane", vertices, indices)
}
