package fractal

import (
	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	FovY   float32 // degrees
	Near   float32
	Far    float32
	Active bool
}

func (c CameraComponent) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// CameraForward is the view direction of a camera with the given rotation.
// An unrotated camera looks down -Z.
func CameraForward(rotation mgl32.Quat) mgl32.Vec3 {
	return rotation.Rotate(mgl32.Vec3{0, 0, -1})
}
