package fractal

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/fractal/errors"
	"github.com/gekko3d/fractal/sierpinski"
)

func sceneWithDepth(depth int) SceneDef {
	def := DefaultSceneDef()
	def.Fractal.Depth = depth
	return def
}

func TestLoadScene_EntityCounts(t *testing.T) {
	tests := []struct {
		name     string
		def      SceneDef
		expected int
	}{
		// instances + root + floor + backdrop + 5 lights + camera
		{name: "default rig depth 1", def: sceneWithDepth(1), expected: 4 + 1 + 2 + 5 + 1},
		{name: "default rig depth 3", def: sceneWithDepth(3), expected: 64 + 1 + 2 + 5 + 1},
		{name: "bare fractal", def: SceneDef{Fractal: FractalDef{Size: 1, Depth: 2}}, expected: 16 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp()
			cmd := app.Commands()
			assets := NewAssetServer()

			handles, err := LoadScene(cmd, assets, sierpinski.Generator{}, &tt.def)
			require.NoError(t, err)
			app.FlushCommands()

			assert.Equal(t, tt.expected, app.EntityCount())
			assert.Equal(t, sierpinski.Count(tt.def.Fractal.Depth), handles.Instances)
			assert.Equal(t, tt.def.Fractal.Depth, handles.Depth)
			assert.Equal(t, handles.Instances, MakeQuery1[FractalInstanceComponent](cmd).Count())
			assert.Len(t, handles.Assets(), assets.MeshCount()+assets.MaterialCount())
		})
	}
}

func TestLoadScene_InstancesFollowPlacements(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	assets := NewAssetServer()

	def := SceneDef{Fractal: FractalDef{Origin: mgl64.Vec3{1, 2, 3}, Size: 2, Depth: 2}}
	handles, err := LoadScene(cmd, assets, sierpinski.Generator{}, &def)
	require.NoError(t, err)
	app.FlushCommands()

	placements, err := sierpinski.Generate(def.Fractal.Origin, def.Fractal.Size, def.Fractal.Depth)
	require.NoError(t, err)

	seen := 0
	MakeQuery3[FractalInstanceComponent, LocalTransformComponent, MeshComponent](cmd).Map(
		func(eid EntityId, inst *FractalInstanceComponent, local *LocalTransformComponent, mesh *MeshComponent) bool {
			p := placements[inst.Index]
			assert.InDelta(t, p.Position.X(), local.Position.X(), 1e-6)
			assert.InDelta(t, p.Position.Y(), local.Position.Y(), 1e-6)
			assert.InDelta(t, p.Position.Z(), local.Position.Z(), 1e-6)
			assert.Equal(t, float32(0.5), local.Scale.X())
			assert.Equal(t, handles.Mesh, mesh.Mesh)

			parent, ok := Get[Parent](cmd, eid)
			require.True(t, ok)
			assert.Equal(t, handles.Root, parent.Entity)
			seen++
			return true
		})
	assert.Equal(t, 16, seen)
}

func TestLoadScene_InvalidLeavesWorldUntouched(t *testing.T) {
	tests := []struct {
		name string
		fd   FractalDef
		code errors.Code
	}{
		{name: "zero size", fd: FractalDef{Size: 0, Depth: 1}, code: errors.ErrCodeInvalidArgument},
		{name: "negative depth", fd: FractalDef{Size: 1, Depth: -1}, code: errors.ErrCodeInvalidArgument},
		{name: "too deep", fd: FractalDef{Size: 1, Depth: 11}, code: errors.ErrCodeDepthTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp()
			assets := NewAssetServer()
			def := DefaultSceneDef()
			def.Fractal = tt.fd

			_, err := LoadScene(app.Commands(), assets, sierpinski.Generator{}, &def)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)

			app.FlushCommands()
			assert.Equal(t, 0, app.EntityCount())
			assert.Equal(t, 0, assets.MeshCount())
			assert.Equal(t, 0, assets.MaterialCount())
		})
	}
}

func TestLoadScene_ClampsDepth(t *testing.T) {
	app := NewApp()
	def := SceneDef{Fractal: FractalDef{Size: 1, Depth: 9}}
	gen := sierpinski.Generator{MaxDepth: 2, Policy: sierpinski.DepthClamp}

	handles, err := LoadScene(app.Commands(), NewAssetServer(), gen, &def)
	require.NoError(t, err)
	assert.Equal(t, 2, handles.Depth)
	assert.Equal(t, 16, handles.Instances)
}

func TestLoadScene_Backdrop(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	def := SceneDef{
		Fractal: FractalDef{Size: 1, Depth: 0},
		Floor:   FloorDef{Size: 100, Backdrop: true},
	}

	_, err := LoadScene(cmd, NewAssetServer(), sierpinski.Generator{}, &def)
	require.NoError(t, err)
	app.FlushCommands()

	var backdrop *TransformComponent
	MakeQuery2[NameComponent, TransformComponent](cmd).Map(func(_ EntityId, name *NameComponent, tr *TransformComponent) bool {
		if name.Name == "Backdrop" {
			backdrop = tr
			return false
		}
		return true
	})
	require.NotNil(t, backdrop)
	assert.Equal(t, mgl32.Vec3{0, 50, 25}, backdrop.Position)

	// The wall's normal turns from +Z to +Y, towards the fractal.
	normal := backdrop.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 1, normal.Y(), 1e-6)
}

func TestClearScene(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	def := sceneWithDepth(1)

	_, err := LoadScene(cmd, NewAssetServer(), sierpinski.Generator{}, &def)
	require.NoError(t, err)
	app.FlushCommands()
	before := app.EntityCount()

	assert.Equal(t, before, ClearScene(cmd))
	app.FlushCommands()
	assert.Equal(t, 0, app.EntityCount())
}

func TestAssignFractalMaterial(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	assets := NewAssetServer()
	def := sceneWithDepth(2)

	_, err := LoadScene(cmd, assets, sierpinski.Generator{}, &def)
	require.NoError(t, err)
	app.FlushCommands()

	red := assets.CreateMaterial("red", [3]float32{1, 0, 0}, 0)
	assert.Equal(t, 16, AssignFractalMaterial(cmd, red))

	MakeQuery1[MaterialComponent](cmd).Map(func(_ EntityId, mat *MaterialComponent) bool {
		assert.Equal(t, red, mat.Material)
		return true
	})
}

func TestDefaultSceneDef(t *testing.T) {
	def := DefaultSceneDef()

	assert.Equal(t, 4.0, def.Fractal.Size)
	assert.Equal(t, 5, def.Fractal.Depth)
	assert.Equal(t, [3]float32{0, 0, 1}, def.Fractal.Color)
	require.Len(t, def.Lights, 5)
	assert.Equal(t, LightTypeDirectional, def.Lights[0].Type)
	for _, l := range def.Lights[1:] {
		assert.Equal(t, LightTypePoint, l.Type)
	}
	require.NotNil(t, def.Camera)
	assert.Greater(t, CameraForward(def.Camera.Rotation).Y(), float32(0), "camera looks towards the fractal")
}
