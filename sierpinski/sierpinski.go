// Package sierpinski computes the instance placements of a Sierpinski
// tetrahedron: every leaf of the recursive subdivision as a position and a
// uniform scale, with no knowledge of any scene.
package sierpinski

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/gekko3d/fractal/errors"
)

// DefaultMaxDepth bounds the instance count at 4^10 (~1M placements).
const DefaultMaxDepth = 10

// depthCeiling is the highest MaxDepth a Generator may be configured with.
const depthCeiling = 12

var (
	sqrt3 = math.Sqrt(3)
	sqrt6 = math.Sqrt(6)
)

// Placement is one leaf instance of the base shape: where it goes and its
// uniform scale.
type Placement struct {
	Position mgl64.Vec3
	Scale    float64
}

// DepthPolicy decides what happens when a requested depth is above the
// generator's cap.
type DepthPolicy int

const (
	// DepthReject fails the request with ErrCodeDepthTooLarge.
	DepthReject DepthPolicy = iota
	// DepthClamp lowers the depth to the cap. Resolve reports the effective depth.
	DepthClamp
)

func (p DepthPolicy) String() string {
	switch p {
	case DepthReject:
		return "reject"
	case DepthClamp:
		return "clamp"
	}
	return "unknown"
}

// ParseDepthPolicy maps "reject" and "clamp" to their policies.
// An empty string selects DepthReject.
func ParseDepthPolicy(s string) (DepthPolicy, error) {
	switch s {
	case "", "reject":
		return DepthReject, nil
	case "clamp":
		return DepthClamp, nil
	}
	return DepthReject, errors.New(errors.ErrCodeInvalidArgument, "unknown depth policy %q (want reject or clamp)", s)
}

// Generator produces Sierpinski tetrahedron placements under a depth cap.
// The zero value rejects depths above DefaultMaxDepth.
type Generator struct {
	MaxDepth int
	Policy   DepthPolicy
}

func (g Generator) limit() (int, error) {
	if g.MaxDepth <= 0 {
		return DefaultMaxDepth, nil
	}
	if g.MaxDepth > depthCeiling {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "max depth %d exceeds ceiling %d", g.MaxDepth, depthCeiling)
	}
	return g.MaxDepth, nil
}

// Resolve validates a request and returns the depth that will actually be
// generated once the policy is applied.
func (g Generator) Resolve(size float64, depth int) (int, error) {
	if !(size > 0) || math.IsInf(size, 1) {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "size must be a positive finite number, got %v", size)
	}
	if depth < 0 {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "depth must be non-negative, got %d", depth)
	}
	capDepth, err := g.limit()
	if err != nil {
		return 0, err
	}
	if depth > capDepth {
		if g.Policy == DepthClamp {
			return capDepth, nil
		}
		return 0, errors.New(errors.ErrCodeDepthTooLarge, "depth %d exceeds maximum %d", depth, capDepth)
	}
	return depth, nil
}

// Generate returns the 4^depth placements of the fractal anchored at origin,
// in branch order. Nothing is computed unless the request is valid.
func (g Generator) Generate(origin mgl64.Vec3, size float64, depth int) ([]Placement, error) {
	d, err := g.Resolve(size, depth)
	if err != nil {
		return nil, err
	}
	out := make([]Placement, 0, Count(d))
	return appendPlacements(out, origin, size, d), nil
}

// GenerateParallel is Generate with the four top-level branches computed
// concurrently. Each branch fills its own segment of the result, so the output
// is identical to Generate's.
func (g Generator) GenerateParallel(ctx context.Context, origin mgl64.Vec3, size float64, depth int) ([]Placement, error) {
	d, err := g.Resolve(size, depth)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d == 0 {
		return []Placement{{Position: origin, Scale: size}}, nil
	}

	out := make([]Placement, Count(d))
	span := Count(d - 1)
	s := size / 2

	grp, ctx := errgroup.WithContext(ctx)
	for i, child := range childOrigins(origin, s) {
		segment := out[i*span : i*span : (i+1)*span]
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			appendPlacements(segment, child, s, d-1)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Generate runs the default Generator.
func Generate(origin mgl64.Vec3, size float64, depth int) ([]Placement, error) {
	return Generator{}.Generate(origin, size, depth)
}

// GenerateParallel runs the default Generator with concurrent branches.
func GenerateParallel(ctx context.Context, origin mgl64.Vec3, size float64, depth int) ([]Placement, error) {
	return Generator{}.GenerateParallel(ctx, origin, size, depth)
}

func appendPlacements(dst []Placement, origin mgl64.Vec3, size float64, depth int) []Placement {
	if depth == 0 {
		return append(dst, Placement{Position: origin, Scale: size})
	}
	s := size / 2
	for _, child := range childOrigins(origin, s) {
		dst = appendPlacements(dst, child, s, depth-1)
	}
	return dst
}

// childOrigins returns the four sub-tetrahedron anchors for half-size s.
// Products are rounded explicitly so no platform fuses them into the additions.
func childOrigins(o mgl64.Vec3, s float64) [4]mgl64.Vec3 {
	half := float64(0.5 * s)
	rise := float64(sqrt3 * 0.5 * s)
	inset := float64(rise / 3)
	apex := float64(sqrt6 / 3.0 * s)

	return [4]mgl64.Vec3{
		o,
		{o[0] + s, o[1], o[2]},
		{o[0] + half, o[1] + rise, o[2]},
		{o[0] + half, o[1] + inset, o[2] + apex},
	}
}

// Count is the number of placements produced at depth, 4^depth.
func Count(depth int) int {
	if depth < 0 {
		return 0
	}
	return 1 << (2 * depth)
}

// LeafScale is the scale of every placement at depth, size/2^depth.
func LeafScale(size float64, depth int) float64 {
	return math.Ldexp(size, -depth)
}
