package fractal

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/fractal/errors"
)

type AssetId string

type AssetServer struct {
	meshes    map[AssetId]MeshAsset
	materials map[AssetId]MaterialAsset
}

type AssetServerModule struct{}

// MeshComponent points an entity at a shared mesh asset.
type MeshComponent struct {
	Mesh AssetId
}

// MaterialComponent points an entity at a shared material asset.
type MaterialComponent struct {
	Material AssetId
}

type MeshAsset struct {
	Name     string
	Vertices []mgl32.Vec3
	Indices  []uint32 // three per triangle
}

func (m MeshAsset) VertexCount() int   { return len(m.Vertices) }
func (m MeshAsset) TriangleCount() int { return len(m.Indices) / 3 }

type MaterialAsset struct {
	version           uint
	Name              string
	DiffuseColor      [4]float32 // RGBA
	SpecularIntensity float32
}

func (m MaterialAsset) Version() uint { return m.version }

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:    make(map[AssetId]MeshAsset),
		materials: make(map[AssetId]MaterialAsset),
	}
}

func (server AssetServer) CreateMesh(name string, vertices []mgl32.Vec3, indices []uint32) AssetId {
	id := makeAssetId()

	server.meshes[id] = MeshAsset{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}

	return id
}

func (server AssetServer) Mesh(id AssetId) (MeshAsset, bool) {
	m, ok := server.meshes[id]
	return m, ok
}

// CreateMaterial registers an opaque material with the given RGB colour.
func (server AssetServer) CreateMaterial(name string, color [3]float32, specular float32) AssetId {
	id := makeAssetId()

	server.materials[id] = MaterialAsset{
		Name:              name,
		DiffuseColor:      [4]float32{color[0], color[1], color[2], 1.0},
		SpecularIntensity: specular,
	}

	return id
}

func (server AssetServer) Material(id AssetId) (MaterialAsset, bool) {
	m, ok := server.materials[id]
	return m, ok
}

// SetMaterialColor recolours a material in place. Every entity sharing it
// picks up the change.
func (server AssetServer) SetMaterialColor(id AssetId, color [3]float32) error {
	m, ok := server.materials[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "material %s", id)
	}
	m.DiffuseColor = [4]float32{color[0], color[1], color[2], m.DiffuseColor[3]}
	m.version++
	server.materials[id] = m
	return nil
}

// Release drops assets nothing refers to any more. Unknown ids are ignored.
func (server AssetServer) Release(ids ...AssetId) {
	for _, id := range ids {
		delete(server.meshes, id)
		delete(server.materials, id)
	}
}

func (server AssetServer) MeshCount() int     { return len(server.meshes) }
func (server AssetServer) MaterialCount() int { return len(server.materials) }

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer())
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
