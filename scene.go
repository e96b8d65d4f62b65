package fractal

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/fractal/sierpinski"
)

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Fractal FractalDef
	Floor   FloorDef
	Lights  []LightDef
	Camera  *CameraDef
}

// FractalDef describes the Sierpinski tetrahedron and its shared material.
type FractalDef struct {
	Origin   mgl64.Vec3
	Size     float64
	Depth    int
	Color    [3]float32
	Specular float32
}

// FloorDef adds a square floor of Size at the origin. A zero Size means no
// floor. The backdrop is a wall of the same size behind the fractal.
type FloorDef struct {
	Size     float32
	Backdrop bool
}

// LightDef defines a light instantiation.
type LightDef struct {
	Type      LightType
	Position  mgl32.Vec3
	Rotation  mgl32.Quat
	Color     [3]float32
	Intensity float32
	Range     float32
	ConeAngle float32
}

type CameraDef struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	FovY     float32
}

// FractalInstanceComponent marks an entity as one leaf of the fractal.
// Index is the placement's position in generator order.
type FractalInstanceComponent struct {
	Index int
	Depth int
}

// SceneHandles records what LoadScene created.
type SceneHandles struct {
	Root      EntityId
	Mesh      AssetId
	Material  AssetId
	FloorMesh AssetId
	Instances int
	Depth     int
}

// Assets returns every asset id the scene owns.
func (h SceneHandles) Assets() []AssetId {
	var ids []AssetId
	for _, id := range []AssetId{h.Mesh, h.Material, h.FloorMesh} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// DefaultSceneDef is a blue depth-5 fractal of size 4 on a 100 unit floor
// with a backdrop, a sun plus four point lights, and a camera looking at it
// from the front.
func DefaultSceneDef() SceneDef {
	lights := []LightDef{{
		Type:      LightTypeDirectional,
		Position:  mgl32.Vec3{10, -10, 10},
		Rotation:  mgl32.QuatIdent(),
		Color:     [3]float32{1, 1, 1},
		Intensity: 1,
	}}
	for _, p := range []mgl32.Vec3{{10, -10, 10}, {-10, -10, 10}, {10, 10, 10}, {-10, 10, 10}} {
		lights = append(lights, LightDef{
			Type:      LightTypePoint,
			Position:  p,
			Rotation:  mgl32.QuatIdent(),
			Color:     [3]float32{1, 1, 1},
			Intensity: 1000,
			Range:     40,
		})
	}

	return SceneDef{
		Fractal: FractalDef{
			Size:     4,
			Depth:    5,
			Color:    [3]float32{0, 0, 1},
			Specular: 0.5,
		},
		Floor:  FloorDef{Size: 100, Backdrop: true},
		Lights: lights,
		Camera: &CameraDef{
			Position: mgl32.Vec3{1.66, -8, 4},
			Rotation: mgl32.QuatRotate(mgl32.DegToRad(74), mgl32.Vec3{1, 0, 0}),
			FovY:     39.6,
		},
	}
}

// LoadScene generates the fractal and spawns it with its supporting objects.
// The placements are computed before anything is created, so an invalid
// request leaves the world and the asset server untouched.
func LoadScene(cmd *Commands, assets *AssetServer, gen sierpinski.Generator, def *SceneDef) (SceneHandles, error) {
	fd := def.Fractal
	depth, err := gen.Resolve(fd.Size, fd.Depth)
	if err != nil {
		return SceneHandles{}, err
	}
	if depth != fd.Depth {
		cmd.Logger().Warnf("recursion level %d clamped to %d", fd.Depth, depth)
	}
	placements, err := gen.Generate(fd.Origin, fd.Size, depth)
	if err != nil {
		return SceneHandles{}, err
	}

	handles := SceneHandles{
		Mesh:      assets.CreateTetrahedronMesh(),
		Material:  assets.CreateMaterial("fractal", fd.Color, fd.Specular),
		Instances: len(placements),
		Depth:     depth,
	}

	root := IdentityTransform()
	handles.Root = cmd.AddEntity(
		&NameComponent{Name: "Fractal"},
		&root,
		&LocalTransformComponent{Rotation: root.Rotation, Scale: root.Scale},
	)
	spawnPlacements(cmd, handles, placements)

	if def.Floor.Size > 0 {
		handles.FloorMesh = assets.CreatePlaneMesh(def.Floor.Size)
		spawnFloor(cmd, handles.FloorMesh, def.Floor)
	}
	for _, light := range def.Lights {
		spawnLight(cmd, light)
	}
	if def.Camera != nil {
		spawnCamera(cmd, *def.Camera)
	}

	cmd.Logger().Debugf("scene: %d instances at depth %d", handles.Instances, depth)
	return handles, nil
}

func spawnPlacements(cmd *Commands, handles SceneHandles, placements []sierpinski.Placement) {
	for i, p := range placements {
		pos := mgl32.Vec3{float32(p.Position.X()), float32(p.Position.Y()), float32(p.Position.Z())}
		scale := float32(p.Scale)
		local := LocalTransformComponent{
			Position: pos,
			Rotation: mgl32.QuatIdent(),
			Scale:    mgl32.Vec3{scale, scale, scale},
		}

		cmd.AddEntity(
			&Parent{Entity: handles.Root},
			&local,
			&TransformComponent{Position: local.Position, Rotation: local.Rotation, Scale: local.Scale},
			&MeshComponent{Mesh: handles.Mesh},
			&MaterialComponent{Material: handles.Material},
			&FractalInstanceComponent{Index: i, Depth: handles.Depth},
		)
	}
}

func spawnFloor(cmd *Commands, mesh AssetId, def FloorDef) {
	cmd.AddEntity(
		&NameComponent{Name: "Floor"},
		&TransformComponent{
			Rotation: mgl32.QuatIdent(),
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&MeshComponent{Mesh: mesh},
	)

	if !def.Backdrop {
		return
	}
	cmd.AddEntity(
		&NameComponent{Name: "Backdrop"},
		&TransformComponent{
			Position: mgl32.Vec3{0, def.Size / 2, def.Size / 4},
			Rotation: mgl32.QuatRotate(-math.Pi/2, mgl32.Vec3{1, 0, 0}),
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&MeshComponent{Mesh: mesh},
	)
}

func spawnLight(cmd *Commands, def LightDef) {
	rotation := def.Rotation
	if rotation == (mgl32.Quat{}) {
		rotation = mgl32.QuatIdent()
	}
	cmd.AddEntity(
		&NameComponent{Name: def.Type.String() + " light"},
		&TransformComponent{
			Position: def.Position,
			Rotation: rotation,
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&LightComponent{
			Type:      def.Type,
			Color:     def.Color,
			Intensity: def.Intensity,
			Range:     def.Range,
			ConeAngle: def.ConeAngle,
		},
	)
}

func spawnCamera(cmd *Commands, def CameraDef) {
	fov := def.FovY
	if fov <= 0 {
		fov = 39.6
	}
	rotation := def.Rotation
	if rotation == (mgl32.Quat{}) {
		rotation = mgl32.QuatIdent()
	}
	cmd.AddEntity(
		&NameComponent{Name: "Camera"},
		&TransformComponent{
			Position: def.Position,
			Rotation: rotation,
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&CameraComponent{FovY: fov, Near: 0.1, Far: 1000, Active: true},
	)
}

// ClearScene queues every live entity for removal and returns how many.
func ClearScene(cmd *Commands) int {
	ids := cmd.app.ecs.entityIds()
	for _, eid := range ids {
		cmd.RemoveEntity(eid)
	}
	return len(ids)
}

// AssignFractalMaterial points every fractal instance at material and
// returns how many were changed.
func AssignFractalMaterial(cmd *Commands, material AssetId) int {
	n := 0
	MakeQuery2[FractalInstanceComponent, MaterialComponent](cmd).Map(func(eid EntityId, _ *FractalInstanceComponent, mat *MaterialComponent) bool {
		mat.Material = material
		n++
		return true
	})
	return n
}
