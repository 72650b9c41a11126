// Package attach describes vessel attachments and computes their default,
// non-overlapping layout around a vessel envelope.
package attach

import (
	"fmt"

	"github.com/chazu/vesselkit/pkg/vessel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Type enumerates the attachments the wizard can enable. The numeric order
// is the stable layout order.
type Type int

const (
	Legs Type = iota
	Insulation
	CIP
	PressureRelief
	LevelIndicator
	Hatch
	Flange
	Agitator
	Ladder
	Sensor
)

var typeNames = []string{
	Legs:           "legs",
	Insulation:     "insulation",
	CIP:            "cip",
	PressureRelief: "pressure-relief",
	LevelIndicator: "level-indicator",
	Hatch:          "hatch",
	Flange:         "flange",
	Agitator:       "agitator",
	Ladder:         "ladder",
	Sensor:         "sensor",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Known reports whether t has an entry in the type table.
func (t Type) Known() bool {
	_, ok := Table[t]
	return ok
}

// ParseType converts a name to a Type. Unknown names are an error here; the
// layout and placement code skip unknown Type values silently instead.
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	switch name {
	case "drain":
		return Hatch, nil
	case "support-legs":
		return Legs, nil
	}
	return 0, fmt.Errorf("unknown attachment type %q", name)
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Types returns every known type in layout order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for i := range typeNames {
		out = append(out, Type(i))
	}
	return out
}

// Size is the size class chosen in the wizard.
type Size int

const (
	SizeNormal Size = iota
	SizeSmall
	SizeLarge
	SizeExtraLarge
)

func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeNormal:
		return "normal"
	case SizeLarge:
		return "large"
	case SizeExtraLarge:
		return "extra-large"
	default:
		return "normal"
	}
}

// Scale is the geometry multiplier for the size class.
func (s Size) Scale() float64 {
	switch s {
	case SizeSmall:
		return 0.75
	case SizeLarge:
		return 1.25
	case SizeExtraLarge:
		return 1.5
	default:
		return 1
	}
}

// ParseSize converts a name to a Size.
func ParseSize(name string) (Size, error) {
	switch name {
	case "small":
		return SizeSmall, nil
	case "", "normal":
		return SizeNormal, nil
	case "large":
		return SizeLarge, nil
	case "extra-large", "xl":
		return SizeExtraLarge, nil
	}
	return SizeNormal, fmt.Errorf("invalid size %q", name)
}

func (s Size) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Size) UnmarshalText(b []byte) error {
	v, err := ParseSize(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Rule selects how a type's default position is derived.
type Rule int

const (
	RuleAngular   Rule = iota // ring around the vessel, 60 degree stride
	RuleTopCenter             // on the vessel axis above the body
	RuleTopRing               // on the top face, half a radius out
	RuleShell                 // wraps the body, centred on the vessel
)

// Mount selects how the placement controller moves a type.
type Mount int

const (
	MountSide  Mount = iota // glued to the side surface
	MountTop                // slides on the top plane
	MountFixed              // cannot be dragged
)

func (m Mount) String() string {
	switch m {
	case MountSide:
		return "side"
	case MountTop:
		return "top"
	case MountFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Info is the data-table row for one attachment type.
type Info struct {
	Label string
	Rule  Rule
	Mount Mount
	Shape vessel.ShapeKind
	Size  r3.Vec // bounding box at SizeNormal, metres
	Color string
	// Vertical is the default height as a fraction of the body height,
	// measured from the vessel centre. Used by RuleAngular.
	Vertical float64
	// Lift is extra height above the body top for top rules, in margins.
	Lift float64
}

// Table maps every known type to its layout, geometry and color. Adding a
// type is a new row here.
var Table = map[Type]Info{
	Legs: {
		Label: "Support legs", Rule: RuleAngular, Mount: MountSide,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.08, Y: 0.4, Z: 0.08},
		Color: "#7F8C8D", Vertical: -0.45,
	},
	Insulation: {
		Label: "Insulation", Rule: RuleShell, Mount: MountFixed,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.05, Y: 0.05, Z: 0.05},
		Color: "#F5E6C8",
	},
	CIP: {
		Label: "CIP system", Rule: RuleAngular, Mount: MountSide,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.12, Y: 0.25, Z: 0.12},
		Color: "#3498DB", Vertical: 0.35,
	},
	PressureRelief: {
		Label: "Pressure relief valve", Rule: RuleTopRing, Mount: MountTop,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.1, Y: 0.2, Z: 0.1},
		Color: "#E74C3C", Lift: 1,
	},
	LevelIndicator: {
		Label: "Level indicator", Rule: RuleAngular, Mount: MountSide,
		Shape: vessel.ShapeBox, Size: r3.Vec{X: 0.06, Y: 0.8, Z: 0.06},
		Color: "#2ECC71", Vertical: 0,
	},
	Hatch: {
		Label: "Hatch / drain", Rule: RuleTopCenter, Mount: MountTop,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.45, Y: 0.08, Z: 0.45},
		Color: "#95A5A6", Lift: 1,
	},
	Flange: {
		Label: "Flange", Rule: RuleAngular, Mount: MountSide,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.15, Y: 0.15, Z: 0.15},
		Color: "#9B59B6", Vertical: 0.2,
	},
	Agitator: {
		Label: "Agitator", Rule: RuleTopCenter, Mount: MountTop,
		Shape: vessel.ShapeCylinder, Size: r3.Vec{X: 0.25, Y: 0.4, Z: 0.25},
		Color: "#F39C12", Lift: 3,
	},
	Ladder: {
		Label: "Ladder", Rule: RuleAngular, Mount: MountSide,
		Shape: vessel.ShapeBox, Size: r3.Vec{X: 0.4, Y: 1.5, Z: 0.05},
		Color: "#34495E", Vertical: -0.05,
	},
	Sensor: {
		Label: "Sensor", Rule: RuleAngular, Mount: MountSide,
		Shape: vessel.ShapeBox, Size: r3.Vec{X: 0.08, Y: 0.08, Z: 0.08},
		Color: "#1ABC9C", Vertical: -0.2,
	},
}

// Lookup returns the table row for t.
func Lookup(t Type) (Info, bool) {
	info, ok := Table[t]
	return info, ok
}

// Instance is one placed attachment. IDs are "<type>-<ordinal>" so repeated
// types coexist.
type Instance struct {
	ID       string `json:"id" msgpack:"id"`
	Type     Type   `json:"type" msgpack:"type"`
	Position r3.Vec `json:"position" msgpack:"position"`
	Rotation r3.Vec `json:"rotation" msgpack:"rotation"`
	Size     Size   `json:"size" msgpack:"size"`
}

// InstanceID returns the id for the ordinal-th instance of t.
func InstanceID(t Type, ordinal int) string {
	return fmt.Sprintf("%s-%d", t, ordinal)
}

// Geometry returns the bounding solid of the instance, scaled by its size
// class. For shell types the size follows the envelope.
func (in Instance) Geometry(env vessel.Envelope) (vessel.Solid, bool) {
	info, ok := Lookup(in.Type)
	if !ok {
		return vessel.Solid{}, false
	}
	size := r3.Scale(in.Size.Scale(), info.Size)
	shape := info.Shape
	if info.Rule == RuleShell {
		// Sized in the body frame; Layout rotates it with the body.
		pad := info.Size.X * in.Size.Scale()
		size = r3.Vec{X: 2 * (env.Radius + pad), Y: env.BodyHeight, Z: 2 * (env.Radius + pad)}
		if env.Shape == vessel.Rectangular {
			shape = vessel.ShapeBox
		}
	}
	return vessel.Solid{
		Name:     in.ID,
		Shape:    shape,
		Size:     size,
		Position: in.Position,
		Rotation: in.Rotation,
		Color:    info.Color,
	}, true
}

// Selection is one wizard choice: a type, its size class, and how many.
type Selection struct {
	Type  Type `json:"type" yaml:"type" msgpack:"type"`
	Size  Size `json:"size" yaml:"size" msgpack:"size"`
	Count int  `json:"count,omitempty" yaml:"count" msgpack:"count"`
}
