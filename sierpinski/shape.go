package sierpinski

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BaseShape is the unit-edge tetrahedron every placement instantiates.
// Instances share it; they never copy it.
type BaseShape struct {
	Vertices [4]mgl64.Vec3
	Faces    [4][3]int
}

// Tetrahedron returns the base shape: an equilateral triangle in the XY plane
// centred on the Z axis with its apex at z = sqrt(2/3).
func Tetrahedron() BaseShape {
	return BaseShape{
		Vertices: [4]mgl64.Vec3{
			{0, -1 / math.Sqrt(3), 0},
			{0.5, 1 / (2 * math.Sqrt(3)), 0},
			{-0.5, 1 / (2 * math.Sqrt(3)), 0},
			{0, 0, math.Sqrt(2.0 / 3.0)},
		},
		Faces: [4][3]int{
			{0, 1, 2},
			{0, 1, 3},
			{1, 2, 3},
			{2, 0, 3},
		},
	}
}

// Transformed returns a copy of the shape with m applied to every vertex.
func (b BaseShape) Transformed(m mgl64.Mat4) BaseShape {
	out := b
	for i, v := range b.Vertices {
		out.Vertices[i] = mgl64.TransformCoordinate(v, m)
	}
	return out
}

// Edges returns the six vertex index pairs of the tetrahedron.
func (b BaseShape) Edges() [6][2]int {
	return [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
}
