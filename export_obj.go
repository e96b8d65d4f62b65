package fractal

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/fractal/errors"
)

// ExportStats summarises an OBJ export.
type ExportStats struct {
	Objects  int
	Vertices int
	Faces    int
}

// ExportOBJ writes every entity with a mesh as a Wavefront OBJ object, with
// its vertices already in world space. Fractal instances are named by their
// placement index.
func ExportOBJ(w io.Writer, cmd *Commands, assets *AssetServer) (ExportStats, error) {
	bw := bufio.NewWriter(w)
	var stats ExportStats
	var exportErr error

	fmt.Fprintln(bw, "# sierpinski tetrahedron scene")

	MakeQuery2[TransformComponent, MeshComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, mc *MeshComponent) bool {
		mesh, ok := assets.Mesh(mc.Mesh)
		if !ok {
			exportErr = errors.New(errors.ErrCodeNotFound, "entity %d references unknown mesh %s", eid, mc.Mesh)
			return false
		}

		fmt.Fprintf(bw, "o %s\n", objectName(cmd, eid))
		model := tr.Matrix()
		for _, v := range mesh.Vertices {
			p := mgl32.TransformCoordinate(v, model)
			fmt.Fprintf(bw, "v %g %g %g\n", p.X(), p.Y(), p.Z())
		}

		base := stats.Vertices + 1
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			fmt.Fprintf(bw, "f %d %d %d\n",
				base+int(mesh.Indices[i]),
				base+int(mesh.Indices[i+1]),
				base+int(mesh.Indices[i+2]),
			)
			stats.Faces++
		}

		stats.Vertices += len(mesh.Vertices)
		stats.Objects++
		return true
	})
	if exportErr != nil {
		return stats, exportErr
	}

	if err := bw.Flush(); err != nil {
		return stats, errors.Wrap(errors.ErrCodeInternal, err, "writing obj")
	}
	return stats, nil
}

func objectName(cmd *Commands, eid EntityId) string {
	if inst, ok := Get[FractalInstanceComponent](cmd, eid); ok {
		return fmt.Sprintf("instance_%d", inst.Index)
	}
	if name, ok := Get[NameComponent](cmd, eid); ok && name.Name != "" {
		return strings.ReplaceAll(name.Name, " ", "_")
	}
	return fmt.Sprintf("entity_%d", eid)
}
