package vessel

import "math"

// MmToM converts wizard millimetres to scene metres.
const MmToM = 0.001

// MinDimension is the smallest length, in millimetres, the resolver will
// hand to the builder. It replaces zero, negative and NaN inputs.
const MinDimension = 1.0

// Leg height factors relative to the radius.
const (
	legHeightFlat      = 0.6
	legHeightClearance = 1.2
)

// coneDepthFactor is the depth of a cone cap relative to the radius.
// Dome caps are hemispheres, so their depth is the radius itself.
const coneDepthFactor = 0.8

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Clamp returns v limited to r. NaN maps to r.Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Limits are the documented wizard ranges. Values outside them are corrected
// silently rather than rejected.
type Limits struct {
	HeightMm        Range `json:"heightMm" yaml:"height_mm"`
	CrossSectionMm  Range `json:"crossSectionMm" yaml:"cross_section_mm"`
	WallThicknessMm Range `json:"wallThicknessMm" yaml:"wall_thickness_mm"`
	MaxLegs         int   `json:"maxLegs" yaml:"max_legs"`
}

// DefaultLimits returns the ranges used by the wizard.
func DefaultLimits() Limits {
	return Limits{
		HeightMm:        Range{Min: 200, Max: 20000},
		CrossSectionMm:  Range{Min: 200, Max: 10000},
		WallThicknessMm: Range{Min: 1, Max: 50},
		MaxLegs:         12,
	}
}

// sane makes sure every range is usable even if a config file left it empty.
func (l Limits) sane() Limits {
	fix := func(r Range) Range {
		if math.IsNaN(r.Min) || r.Min < MinDimension {
			r.Min = MinDimension
		}
		if math.IsNaN(r.Max) || r.Max < r.Min {
			r.Max = r.Min
		}
		return r
	}
	l.HeightMm = fix(l.HeightMm)
	l.CrossSectionMm = fix(l.CrossSectionMm)
	l.WallThicknessMm = fix(l.WallThicknessMm)
	if l.MaxLegs < 0 {
		l.MaxLegs = 0
	}
	return l
}

// ClampSpec corrects a Spec into the given limits and returns the corrected
// spec together with the names of the fields that changed. Clamping an
// already valid spec is a no-op.
func ClampSpec(s Spec, l Limits) (Spec, []string) {
	l = l.sane()
	var changed []string
	set := func(name string, dst *float64, r Range) {
		v := r.Clamp(*dst)
		if v != *dst {
			changed = append(changed, name)
			*dst = v
		}
	}

	if s.Shape != Cylindrical && s.Shape != Rectangular {
		s.Shape = Cylindrical
		changed = append(changed, "shape")
	}
	if s.Orientation != Vertical && s.Orientation != Horizontal {
		s.Orientation = Vertical
		changed = append(changed, "orientation")
	}
	if s.TopCap < CapFlat || s.TopCap > CapCone {
		s.TopCap = CapFlat
		changed = append(changed, "topCap")
	}
	if s.BottomCap < CapFlat || s.BottomCap > CapCone {
		s.BottomCap = CapFlat
		changed = append(changed, "bottomCap")
	}

	set("heightMm", &s.HeightMm, l.HeightMm)
	if s.Shape == Rectangular {
		set("widthMm", &s.WidthMm, l.CrossSectionMm)
	} else {
		set("diameterMm", &s.DiameterMm, l.CrossSectionMm)
	}
	set("wallThicknessMm", &s.WallThicknessMm, l.WallThicknessMm)

	if s.LegCount < 0 {
		s.LegCount = 0
		changed = append(changed, "legCount")
	}
	if s.LegCount > l.MaxLegs {
		s.LegCount = l.MaxLegs
		changed = append(changed, "legCount")
	}
	return s, changed
}

// Envelope holds the derived quantities every other component reads.
// All lengths are in metres. An Envelope is a value: a spec change
// produces a new one instead of editing the old.
type Envelope struct {
	Shape       Shape       `json:"shape" msgpack:"shape"`
	Orientation Orientation `json:"orientation" msgpack:"orientation"`
	LegCount    int         `json:"legCount" msgpack:"legCount"`

	Radius          float64 `json:"radius" msgpack:"radius"`
	BodyHeight      float64 `json:"bodyHeight" msgpack:"bodyHeight"`
	LegHeight       float64 `json:"legHeight" msgpack:"legHeight"`
	EffectiveHeight float64 `json:"effectiveHeight" msgpack:"effectiveHeight"`
	WallThickness   float64 `json:"wallThickness" msgpack:"wallThickness"`
	TopCapDepth     float64 `json:"topCapDepth" msgpack:"topCapDepth"`
	BottomCapDepth  float64 `json:"bottomCapDepth" msgpack:"bottomCapDepth"`

	// GroundOffset is the height of the body's lowest point above y=0.
	GroundOffset float64 `json:"groundOffset" msgpack:"groundOffset"`
	// CenterY is the world height of the vessel centre.
	CenterY float64 `json:"centerY" msgpack:"centerY"`
	// FootprintRadius is the horizontal half-extent attachments orbit around.
	FootprintRadius float64 `json:"footprintRadius" msgpack:"footprintRadius"`
}

// Resolve derives the Envelope for s using DefaultLimits.
func Resolve(s Spec) Envelope {
	return ResolveWithLimits(s, DefaultLimits())
}

// ResolveWithLimits derives the Envelope for s after clamping it into l.
// It never fails.
func ResolveWithLimits(s Spec, l Limits) Envelope {
	s, _ = ClampSpec(s, l)

	radius := s.CrossSectionMm() / 2 * MmToM
	height := s.HeightMm * MmToM

	env := Envelope{
		Shape:          s.Shape,
		Orientation:    s.Orientation,
		LegCount:       s.LegCount,
		Radius:         radius,
		BodyHeight:     height,
		LegHeight:      LegHeight(radius, s.BottomCap),
		WallThickness:  s.WallThicknessMm * MmToM,
		TopCapDepth:    CapDepth(radius, s.TopCap),
		BottomCapDepth: CapDepth(radius, s.BottomCap),
	}

	switch s.Orientation {
	case Horizontal:
		env.EffectiveHeight = 2 * radius
		env.FootprintRadius = math.Max(radius, height/2)
		if s.LegCount > 0 {
			env.GroundOffset = env.LegHeight
		}
	default:
		env.EffectiveHeight = height
		env.FootprintRadius = radius
		if s.LegCount > 0 {
			env.GroundOffset = env.LegHeight
		} else {
			env.GroundOffset = env.BottomCapDepth
		}
	}
	env.CenterY = env.GroundOffset + env.EffectiveHeight/2
	return env
}

// LegHeight returns the support leg length for a body of the given radius.
// Dome and cone bottoms extend below the body and need the taller legs.
func LegHeight(radius float64, bottom CapType) float64 {
	switch bottom {
	case CapDome, CapCone:
		return radius * legHeightClearance
	default:
		return radius * legHeightFlat
	}
}

// CapDepth returns how far a cap extends beyond the body end.
func CapDepth(radius float64, c CapType) float64 {
	switch c {
	case CapDome:
		return radius
	case CapCone:
		return radius * coneDepthFactor
	default:
		return 0
	}
}

// Degenerate reports whether the envelope cannot support surface placement.
func (e Envelope) Degenerate() bool {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 }
	return bad(e.Radius) || bad(e.EffectiveHeight) || bad(e.FootprintRadius)
}

// Top returns the world height of the top of the body (excluding caps).
func (e Envelope) Top() float64 {
	return e.CenterY + e.EffectiveHeight/2
}
