// Package vessel derives the geometry of a configurable storage vessel.
// Resolve turns a millimetre Spec into a metre Envelope, and Build turns the
// pair into the body, cap and leg solids handed to the scene.
package vessel

import "fmt"

// Shape is the cross-section of the vessel body.
type Shape int

const (
	Cylindrical Shape = iota
	Rectangular
)

func (s Shape) String() string {
	switch s {
	case Cylindrical:
		return "cylindrical"
	case Rectangular:
		return "rectangular"
	default:
		return "unknown"
	}
}

// ParseShape converts a name to a Shape.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "cylindrical", "cylinder":
		return Cylindrical, nil
	case "rectangular", "box":
		return Rectangular, nil
	}
	return 0, fmt.Errorf("invalid shape %q, expected cylindrical or rectangular", name)
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Orientation is how the vessel rests on the ground.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	switch o {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "unknown"
	}
}

// ParseOrientation converts a name to an Orientation.
func ParseOrientation(name string) (Orientation, error) {
	switch name {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	}
	return 0, fmt.Errorf("invalid orientation %q, expected vertical or horizontal", name)
}

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(b []byte) error {
	v, err := ParseOrientation(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// CapType is the end closure of the body.
type CapType int

const (
	CapFlat CapType = iota
	CapDome
	CapCone
)

func (c CapType) String() string {
	switch c {
	case CapFlat:
		return "flat"
	case CapDome:
		return "dome"
	case CapCone:
		return "cone"
	default:
		return "unknown"
	}
}

// ParseCapType converts a name to a CapType.
func ParseCapType(name string) (CapType, error) {
	switch name {
	case "flat":
		return CapFlat, nil
	case "dome":
		return CapDome, nil
	case "cone":
		return CapCone, nil
	}
	return 0, fmt.Errorf("invalid cap %q, expected flat, dome or cone", name)
}

func (c CapType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CapType) UnmarshalText(b []byte) error {
	v, err := ParseCapType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Material only affects the rendered color.
type Material string

const (
	MaterialStainless Material = "stainless"
	MaterialCarbon    Material = "carbon"
	MaterialPlastic   Material = "plastic"
	MaterialAluminium Material = "aluminium"
)

var materialColors = map[Material]string{
	MaterialStainless: "#C0C6CC",
	MaterialCarbon:    "#5B6168",
	MaterialPlastic:   "#E8E4D8",
	MaterialAluminium: "#D5D9DE",
}

// ParseMaterial converts a name to a known Material.
func ParseMaterial(name string) (Material, error) {
	m := Material(name)
	if _, ok := materialColors[m]; !ok {
		return "", fmt.Errorf("invalid material %q, expected stainless, carbon, plastic or aluminium", name)
	}
	return m, nil
}

// Color returns the display color for the material, falling back to
// stainless for unknown tags.
func (m Material) Color() string {
	if c, ok := materialColors[m]; ok {
		return c
	}
	return materialColors[MaterialStainless]
}

// Spec is the immutable input snapshot produced by the input wizard.
// All lengths are in millimetres.
type Spec struct {
	Shape           Shape       `json:"shape" yaml:"shape" msgpack:"shape"`
	HeightMm        float64     `json:"heightMm" yaml:"height_mm" msgpack:"heightMm"`
	DiameterMm      float64     `json:"diameterMm,omitempty" yaml:"diameter_mm" msgpack:"diameterMm"`
	WidthMm         float64     `json:"widthMm,omitempty" yaml:"width_mm" msgpack:"widthMm"`
	WallThicknessMm float64     `json:"wallThicknessMm" yaml:"wall_thickness_mm" msgpack:"wallThicknessMm"`
	Orientation     Orientation `json:"orientation" yaml:"orientation" msgpack:"orientation"`
	TopCap          CapType     `json:"topCap" yaml:"top_cap" msgpack:"topCap"`
	BottomCap       CapType     `json:"bottomCap" yaml:"bottom_cap" msgpack:"bottomCap"`
	LegCount        int         `json:"legCount" yaml:"leg_count" msgpack:"legCount"`
	Material        Material    `json:"material,omitempty" yaml:"material" msgpack:"material"`
}

// DefaultSpec is a 1000 mm x 2000 mm vertical cylinder on four legs.
func DefaultSpec() Spec {
	return Spec{
		Shape:           Cylindrical,
		HeightMm:        2000,
		DiameterMm:      1000,
		WidthMm:         1000,
		WallThicknessMm: 3,
		Orientation:     Vertical,
		TopCap:          CapFlat,
		BottomCap:       CapFlat,
		LegCount:        4,
		Material:        MaterialStainless,
	}
}

// CrossSectionMm returns the diameter for cylindrical vessels and the width
// for rectangular ones.
func (s Spec) CrossSectionMm() float64 {
	if s.Shape == Rectangular {
		return s.WidthMm
	}
	return s.DiameterMm
}

// DepthMm is always equal to the width; rectangular vessels are square.
func (s Spec) DepthMm() float64 {
	return s.WidthMm
}
