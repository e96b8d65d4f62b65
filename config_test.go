package fractal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/fractal/errors"
	"github.com/gekko3d/fractal/sierpinski"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fractal.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, FractalTypeSierpinski, cfg.Fractal.Type)
	assert.Equal(t, 5, cfg.Fractal.RecursionLevel)
	assert.Equal(t, 4.0, cfg.Fractal.Size)
	assert.Equal(t, "reject", cfg.Fractal.DepthPolicy)
	assert.Equal(t, [3]float32{0, 0, 1}, cfg.Material.Color)
	assert.True(t, cfg.Scene.Lights)
	assert.True(t, cfg.Scene.Camera)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[fractal]
recursion_level = 3
size = 2.0
origin = [1.0, 2.0, 3.0]
depth_policy = "clamp"

[material]
color = [1.0, 0.0, 0.0]

[scene]
backdrop = false
lights = false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Fractal.RecursionLevel)
	assert.Equal(t, 2.0, cfg.Fractal.Size)
	assert.Equal(t, [3]float64{1, 2, 3}, cfg.Fractal.Origin)
	assert.Equal(t, float32(0.5), cfg.Material.Specular, "unset keys keep their defaults")
	assert.Equal(t, float32(100), cfg.Scene.FloorSize)

	gen, err := cfg.Generator()
	require.NoError(t, err)
	assert.Equal(t, sierpinski.DepthClamp, gen.Policy)

	def := cfg.SceneDef()
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, def.Fractal.Origin)
	assert.Equal(t, [3]float32{1, 0, 0}, def.Fractal.Color)
	assert.False(t, def.Floor.Backdrop)
	assert.Nil(t, def.Lights)
	assert.NotNil(t, def.Camera)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{name: "syntax", body: "[fractal\n", code: errors.ErrCodeInvalidConfig},
		{name: "unknown key", body: "[fractal]\nrecursion_levle = 3\n", code: errors.ErrCodeInvalidConfig},
		{name: "wrong type", body: "[fractal]\ntype = \"menger\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "too deep", body: "[fractal]\nrecursion_level = 11\n", code: errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), "got %v", err)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}, wantErr: false},
		{name: "zero recursion", modify: func(c *Config) { c.Fractal.RecursionLevel = 0 }, wantErr: true},
		{name: "zero size", modify: func(c *Config) { c.Fractal.Size = 0 }, wantErr: true},
		{name: "negative size", modify: func(c *Config) { c.Fractal.Size = -4 }, wantErr: true},
		{name: "above max depth", modify: func(c *Config) { c.Fractal.RecursionLevel = 11 }, wantErr: true},
		{name: "above max depth with clamp", modify: func(c *Config) {
			c.Fractal.RecursionLevel = 11
			c.Fractal.DepthPolicy = "clamp"
		}, wantErr: false},
		{name: "lower max depth", modify: func(c *Config) { c.Fractal.MaxDepth = 3 }, wantErr: true},
		{name: "max depth over ceiling", modify: func(c *Config) { c.Fractal.MaxDepth = 13 }, wantErr: true},
		{name: "bad policy", modify: func(c *Config) { c.Fractal.DepthPolicy = "wrap" }, wantErr: true},
		{name: "color out of range", modify: func(c *Config) { c.Material.Color[1] = 1.5 }, wantErr: true},
		{name: "negative specular", modify: func(c *Config) { c.Material.Specular = -0.1 }, wantErr: true},
		{name: "negative floor", modify: func(c *Config) { c.Scene.FloorSize = -1 }, wantErr: true},
		{name: "no floor", modify: func(c *Config) { c.Scene.FloorSize = 0 }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
