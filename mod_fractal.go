package fractal

import (
	"github.com/gekko3d/fractal/sierpinski"
)

// FractalSettings is the editable state behind the fractal: what to build and
// what was built last. Set Dirty (or call Regenerate) to rebuild the scene on
// the next Step; SetColor only recolours the shared material.
type FractalSettings struct {
	Scene     SceneDef
	Generator sierpinski.Generator

	Dirty      bool
	ColorDirty bool

	Current   SceneHandles
	Builds    int
	LastError error
}

func (s *FractalSettings) Regenerate() {
	s.Dirty = true
}

func (s *FractalSettings) SetDepth(depth int) {
	s.Scene.Fractal.Depth = depth
	s.Dirty = true
}

func (s *FractalSettings) SetColor(color [3]float32) {
	s.Scene.Fractal.Color = color
	s.ColorDirty = true
}

// FractalModule builds Scene on the first Step and rebuilds it whenever the
// FractalSettings resource is marked dirty. Requires AssetServerModule.
type FractalModule struct {
	Scene     SceneDef
	Generator sierpinski.Generator
}

func (m FractalModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&FractalSettings{
		Scene:     m.Scene,
		Generator: m.Generator,
		Dirty:     true,
	})
	app.UseSystem(
		System(fractalRebuildSystem).
			InStage(Prelude),
	)
}

func fractalRebuildSystem(cmd *Commands, settings *FractalSettings, assets *AssetServer) {
	logger := cmd.Logger()

	if settings.Dirty {
		settings.Dirty = false
		settings.ColorDirty = false

		// The new scene is queued before the old one is cleared; removals
		// flush first, and a failed load leaves the old scene in place.
		handles, err := LoadScene(cmd, assets, settings.Generator, &settings.Scene)
		if err != nil {
			settings.LastError = err
			logger.Errorf("fractal rebuild failed: %v", err)
			return
		}
		removed := ClearScene(cmd)
		assets.Release(settings.Current.Assets()...)

		settings.Current = handles
		settings.LastError = nil
		settings.Builds++
		logger.Infof("fractal built: %d instances at depth %d (replaced %d entities)", handles.Instances, handles.Depth, removed)
		return
	}

	if settings.ColorDirty {
		settings.ColorDirty = false
		if err := assets.SetMaterialColor(settings.Current.Material, settings.Scene.Fractal.Color); err != nil {
			settings.LastError = err
			logger.Errorf("fractal recolor failed: %v", err)
			return
		}
		logger.Debugf("fractal material recoloured to %v", settings.Scene.Fractal.Color)
	}
}
