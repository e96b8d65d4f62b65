package fractal

import (
	stderrors "errors"
	"io/fs"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/fractal/errors"
	"github.com/gekko3d/fractal/sierpinski"
)

// Config is the on-disk description of a fractal scene.
//
//	[fractal]
//	type = "sierpinski"
//	recursion_level = 5
//	size = 4.0
//	origin = [0.0, 0.0, 0.0]
//	max_depth = 10
//	depth_policy = "reject"
//
//	[material]
//	color = [0.0, 0.0, 1.0]
//	specular = 0.5
//
//	[scene]
//	floor_size = 100.0
//	backdrop = true
//	lights = true
//	camera = true
type Config struct {
	Fractal  FractalConfig  `toml:"fractal"`
	Material MaterialConfig `toml:"material"`
	Scene    SceneConfig    `toml:"scene"`
}

type FractalConfig struct {
	Type           string     `toml:"type"`
	RecursionLevel int        `toml:"recursion_level"`
	Size           float64    `toml:"size"`
	Origin         [3]float64 `toml:"origin"`
	MaxDepth       int        `toml:"max_depth"`
	DepthPolicy    string     `toml:"depth_policy"`
}

type MaterialConfig struct {
	Color    [3]float32 `toml:"color"`
	Specular float32    `toml:"specular"`
}

type SceneConfig struct {
	FloorSize float32 `toml:"floor_size"`
	Backdrop  bool    `toml:"backdrop"`
	Lights    bool    `toml:"lights"`
	Camera    bool    `toml:"camera"`
}

const FractalTypeSierpinski = "sierpinski"

func DefaultConfig() Config {
	def := DefaultSceneDef()
	return Config{
		Fractal: FractalConfig{
			Type:           FractalTypeSierpinski,
			RecursionLevel: def.Fractal.Depth,
			Size:           def.Fractal.Size,
			MaxDepth:       sierpinski.DefaultMaxDepth,
			DepthPolicy:    sierpinski.DepthReject.String(),
		},
		Material: MaterialConfig{
			Color:    def.Fractal.Color,
			Specular: def.Fractal.Specular,
		},
		Scene: SceneConfig{
			FloorSize: def.Floor.Size,
			Backdrop:  def.Floor.Backdrop,
			Lights:    true,
			Camera:    true,
		},
	}
}

// LoadConfig reads path over the defaults and validates the result.
// Unknown keys are rejected so typos do not go unnoticed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Fractal.Type != FractalTypeSierpinski {
		return errors.New(errors.ErrCodeInvalidConfig, "fractal.type %q is not supported (want %q)", c.Fractal.Type, FractalTypeSierpinski)
	}
	if c.Fractal.RecursionLevel < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "fractal.recursion_level must be at least 1, got %d", c.Fractal.RecursionLevel)
	}
	for i, v := range c.Fractal.Origin {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "fractal.origin[%d] must be finite", i)
		}
	}

	gen, err := c.Generator()
	if err != nil {
		return err
	}
	if _, err := gen.Resolve(c.Fractal.Size, c.Fractal.RecursionLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "fractal")
	}

	for i, v := range c.Material.Color {
		if v < 0 || v > 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "material.color[%d] must be in [0, 1], got %v", i, v)
		}
	}
	if c.Material.Specular < 0 || c.Material.Specular > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "material.specular must be in [0, 1], got %v", c.Material.Specular)
	}
	if c.Scene.FloorSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scene.floor_size must not be negative, got %v", c.Scene.FloorSize)
	}
	return nil
}

// Generator returns the generator described by max_depth and depth_policy.
func (c Config) Generator() (sierpinski.Generator, error) {
	policy, err := sierpinski.ParseDepthPolicy(c.Fractal.DepthPolicy)
	if err != nil {
		return sierpinski.Generator{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "fractal.depth_policy")
	}
	return sierpinski.Generator{MaxDepth: c.Fractal.MaxDepth, Policy: policy}, nil
}

// SceneDef turns the config into a scene, starting from DefaultSceneDef for
// the light rig and camera placement.
func (c Config) SceneDef() SceneDef {
	def := DefaultSceneDef()
	def.Fractal = FractalDef{
		Origin:   mgl64.Vec3(c.Fractal.Origin),
		Size:     c.Fractal.Size,
		Depth:    c.Fractal.RecursionLevel,
		Color:    c.Material.Color,
		Specular: c.Material.Specular,
	}
	def.Floor = FloorDef{Size: c.Scene.FloorSize, Backdrop: c.Scene.Backdrop}
	if !c.Scene.Lights {
		def.Lights = nil
	}
	if !c.Scene.Camera {
		def.Camera = nil
	}
	return def
}
