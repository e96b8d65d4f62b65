package fractal

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeDirectional:
		return "directional"
	case LightTypeSpot:
		return "spot"
	case LightTypeAmbient:
		return "ambient"
	}
	return "unknown"
}

// LightComponent is the ECS component for lights
type LightComponent struct {
	Type      LightType
	Color     [3]float32 // RGB
	Intensity float32
	Range     float32 // For point/spot; 0 means unbounded
	ConeAngle float32 // Full cone angle in degrees (spot)
}
