package fractal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/fractal/errors"
	"github.com/gekko3d/fractal/sierpinski"
)

func TestExportOBJ(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	assets := NewAssetServer()
	def := SceneDef{Fractal: FractalDef{Size: 1, Depth: 1}}

	_, err := LoadScene(cmd, assets, sierpinski.Generator{}, &def)
	require.NoError(t, err)
	app.FlushCommands()

	var buf bytes.Buffer
	stats, err := ExportOBJ(&buf, cmd, assets)
	require.NoError(t, err)

	assert.Equal(t, ExportStats{Objects: 4, Vertices: 16, Faces: 16}, stats)

	var objects, vertices, faces []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		switch {
		case strings.HasPrefix(line, "o "):
			objects = append(objects, line)
		case strings.HasPrefix(line, "v "):
			vertices = append(vertices, line)
		case strings.HasPrefix(line, "f "):
			faces = append(faces, line)
		}
	}
	assert.Equal(t, []string{"o instance_0", "o instance_1", "o instance_2", "o instance_3"}, objects)
	assert.Len(t, vertices, 16)
	require.Len(t, faces, 16)
	assert.Equal(t, "f 1 2 3", faces[0])
	assert.Equal(t, "f 13 14 15", faces[12], "face indices continue across objects")
}

func TestExportOBJ_NamesSceneObjects(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	assets := NewAssetServer()
	def := SceneDef{
		Fractal: FractalDef{Size: 1, Depth: 0},
		Floor:   FloorDef{Size: 10, Backdrop: true},
	}

	_, err := LoadScene(cmd, assets, sierpinski.Generator{}, &def)
	require.NoError(t, err)
	app.FlushCommands()

	var buf bytes.Buffer
	stats, err := ExportOBJ(&buf, cmd, assets)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Objects)
	assert.Contains(t, buf.String(), "o Floor\n")
	assert.Contains(t, buf.String(), "o Backdrop\n")
}

func TestExportOBJ_UnknownMesh(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	tr := IdentityTransform()
	cmd.AddEntity(&tr, &MeshComponent{Mesh: "missing"})
	app.FlushCommands()

	_, err := ExportOBJ(&bytes.Buffer{}, cmd, NewAssetServer())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}
