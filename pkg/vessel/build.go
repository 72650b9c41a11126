package vessel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ShapeKind names the primitive a Solid is built from.
type ShapeKind int

const (
	ShapeCylinder   ShapeKind = iota // axis along Y
	ShapeBox                         // axis-aligned
	ShapeHemisphere                  // flat face toward -Facing
	ShapeCone                        // apex toward Facing
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCylinder:
		return "cylinder"
	case ShapeBox:
		return "box"
	case ShapeHemisphere:
		return "hemisphere"
	case ShapeCone:
		return "cone"
	default:
		return "unknown"
	}
}

func (k ShapeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Leg layout constants.
const (
	legRadialFactor  = 0.85
	legRadiusFactor  = 0.06
	minLegRadius     = 0.015
	legColor         = "#7F8C8D"
	horizPairSpan    = 0.4
	horizQuadSpan    = 0.35
	horizLateral     = 0.6
	horizRunFraction = 0.8
)

// Solid is a geometry description in the vessel-local frame. Size is the
// bounding box of the primitive before rotation; Position is the centre of
// that box. Rotation is in degrees.
type Solid struct {
	Name     string    `json:"name" msgpack:"name"`
	Shape    ShapeKind `json:"shape" msgpack:"shape"`
	Size     r3.Vec    `json:"size" msgpack:"size"`
	Position r3.Vec    `json:"position" msgpack:"position"`
	Rotation r3.Vec    `json:"rotation" msgpack:"rotation"`
	Facing   int       `json:"facing,omitempty" msgpack:"facing"`
	Color    string    `json:"color" msgpack:"color"`
}

// Radius returns half the X extent, the radius for round primitives.
func (s Solid) Radius() float64 {
	return s.Size.X / 2
}

// Solids is the full vessel: body and caps share BodyRotation, legs never
// do. Origin places the vessel-local frame in the world.
type Solids struct {
	Body         Solid   `json:"body" msgpack:"body"`
	Caps         []Solid `json:"caps" msgpack:"caps"`
	Legs         []Solid `json:"legs" msgpack:"legs"`
	BodyRotation r3.Vec  `json:"bodyRotation" msgpack:"bodyRotation"`
	Origin       r3.Vec  `json:"origin" msgpack:"origin"`
}

// Build produces the body, cap and leg solids for a spec and its envelope.
// The result depends only on its inputs.
func Build(s Spec, env Envelope) Solids {
	r := positive(env.Radius)
	h := positive(env.BodyHeight)
	color := s.Material.Color()

	out := Solids{
		Origin: r3.Vec{Y: env.CenterY},
		Caps:   []Solid{},
		Legs:   []Solid{},
	}

	body := Solid{
		Name:  "body",
		Shape: ShapeCylinder,
		Size:  r3.Vec{X: 2 * r, Y: h, Z: 2 * r},
		Color: color,
	}
	if env.Shape == Rectangular {
		body.Shape = ShapeBox
	}
	out.Body = body

	if c, ok := buildCap("cap-top", s.TopCap, r, h, +1, color); ok {
		out.Caps = append(out.Caps, c)
	}
	if c, ok := buildCap("cap-bottom", s.BottomCap, r, h, -1, color); ok {
		out.Caps = append(out.Caps, c)
	}

	if env.Orientation == Horizontal {
		out.BodyRotation = r3.Vec{Z: 90}
		out.Legs = horizontalLegs(env, r, h)
	} else {
		out.Legs = verticalLegs(env, r, h)
	}
	return out
}

func buildCap(name string, c CapType, r, h float64, facing int, color string) (Solid, bool) {
	depth := CapDepth(r, c)
	if depth <= 0 {
		return Solid{}, false
	}
	shape := ShapeHemisphere
	if c == CapCone {
		shape = ShapeCone
	}
	y := float64(facing) * (h/2 + depth/2)
	return Solid{
		Name:     name,
		Shape:    shape,
		Size:     r3.Vec{X: 2 * r, Y: depth, Z: 2 * r},
		Position: r3.Vec{Y: y},
		Facing:   facing,
		Color:    color,
	}, true
}

func legSolid(i int, pos r3.Vec, r, legH float64) Solid {
	lr := math.Max(r*legRadiusFactor, minLegRadius)
	return Solid{
		Name:     fmt.Sprintf("leg-%d", i),
		Shape:    ShapeCylinder,
		Size:     r3.Vec{X: 2 * lr, Y: legH, Z: 2 * lr},
		Position: pos,
		Color:    legColor,
	}
}

// verticalLegs spreads legs evenly around the Y axis.
func verticalLegs(env Envelope, r, h float64) []Solid {
	n := env.LegCount
	legs := make([]Solid, 0, max(n, 0))
	if n <= 0 {
		return legs
	}
	legH := positive(env.LegHeight)
	d := r * legRadialFactor
	y := -h/2 - legH/2
	step := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		a := float64(i) * step
		pos := r3.Vec{X: d * math.Cos(a), Y: y, Z: d * math.Sin(a)}
		legs = append(legs, legSolid(i, pos, r, legH))
	}
	return legs
}

// horizontalLegs places legs along the X axis, which is the resting axis of
// a horizontal vessel. The table is discrete on purpose; see HorizontalLegOffsets.
func horizontalLegs(env Envelope, r, length float64) []Solid {
	offsets := HorizontalLegOffsets(env.LegCount, length, r)
	legs := make([]Solid, 0, len(offsets))
	legH := positive(env.LegHeight)
	y := -r - legH/2
	for i, o := range offsets {
		legs = append(legs, legSolid(i, r3.Vec{X: o.X, Y: y, Z: o.Y}, r, legH))
	}
	return legs
}

// HorizontalLegOffsets returns (x, z) leg offsets for a horizontal vessel of
// the given length and radius, packed as r3.Vec{X: x, Y: z}.
//
//	1 leg   centre
//	2 legs  ±0.4L
//	3 legs  -0.4L, 0, +0.4L
//	4 legs  ±0.35L, z ±0.6R
//	5+ legs evenly across 0.8L, z alternating ±0.6R
func HorizontalLegOffsets(n int, length, radius float64) []r3.Vec {
	if n <= 0 {
		return nil
	}
	lat := horizLateral * radius
	switch n {
	case 1:
		return []r3.Vec{{}}
	case 2:
		x := horizPairSpan * length
		return []r3.Vec{{X: -x}, {X: x}}
	case 3:
		x := horizPairSpan * length
		return []r3.Vec{{X: -x}, {}, {X: x}}
	case 4:
		x := horizQuadSpan * length
		return []r3.Vec{
			{X: -x, Y: -lat}, {X: -x, Y: lat},
			{X: x, Y: -lat}, {X: x, Y: lat},
		}
	}
	run := horizRunFraction * length
	start := -run / 2
	step := run / float64(n-1)
	out := make([]r3.Vec, n)
	for i := range out {
		z := lat
		if i%2 == 1 {
			z = -lat
		}
		out[i] = r3.Vec{X: start + float64(i)*step, Y: z}
	}
	return out
}

// positive substitutes a tiny positive length for degenerate values so the
// kernel never receives zero or NaN dimensions.
func positive(v float64) float64 {
	const eps = MinDimension * MmToM
	if math.IsNaN(v) || math.IsInf(v, 0) || v < eps {
		return eps
	}
	return v
}
