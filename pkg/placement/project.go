// Package placement keeps attachments glued to the vessel surface while they
// are dragged. A Controller turns pointer deltas into surface-relative
// motion and is the only writer of attachment positions in an Arena.
package placement

import (
	"math"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/vessel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default tuning values. They are feel constants, not physics; the angular
// response is kept at roughly twice the linear one.
const (
	DefaultSensitivity       = 0.02
	DefaultAngularMultiplier = 2.0
	DefaultHorizontalBounds  = 3.0
	DefaultVerticalBounds    = 2.0
)

// Tuning holds the drag feel and staging bounds.
type Tuning struct {
	// Sensitivity is metres of travel per pointer pixel.
	Sensitivity float64 `json:"sensitivity" yaml:"sensitivity"`
	// AngularMultiplier scales Sensitivity into radians per pixel for orbits.
	AngularMultiplier float64 `json:"angularMultiplier" yaml:"angular_multiplier"`
	// HorizontalBounds is the staging box half-width in vessel footprints.
	HorizontalBounds float64 `json:"horizontalBounds" yaml:"horizontal_bounds"`
	// VerticalBounds is the staging box half-height in vessel heights.
	VerticalBounds float64 `json:"verticalBounds" yaml:"vertical_bounds"`
}

// DefaultTuning returns the stock tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Sensitivity:       DefaultSensitivity,
		AngularMultiplier: DefaultAngularMultiplier,
		HorizontalBounds:  DefaultHorizontalBounds,
		VerticalBounds:    DefaultVerticalBounds,
	}
}

// orDefault fills zero or invalid fields from DefaultTuning.
func (t Tuning) orDefault() Tuning {
	d := DefaultTuning()
	fix := func(v *float64, def float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
			*v = def
		}
	}
	fix(&t.Sensitivity, d.Sensitivity)
	fix(&t.AngularMultiplier, d.AngularMultiplier)
	fix(&t.HorizontalBounds, d.HorizontalBounds)
	fix(&t.VerticalBounds, d.VerticalBounds)
	return t
}

// Face is one of the four vertical faces of a rectangular vessel.
type Face int

const (
	FaceNone Face = iota
	FaceRight     // +X
	FaceLeft      // -X
	FaceFront     // +Z
	FaceBack      // -Z
)

func (f Face) String() string {
	switch f {
	case FaceRight:
		return "right"
	case FaceLeft:
		return "left"
	case FaceFront:
		return "front"
	case FaceBack:
		return "back"
	default:
		return "none"
	}
}

// halfExtents returns the body half-size along X and Z. A horizontal vessel
// lies along X.
func halfExtents(env vessel.Envelope) (hx, hz float64) {
	if env.Orientation == vessel.Horizontal {
		return env.BodyHeight / 2, env.Radius
	}
	return env.Radius, env.Radius
}

// NearestFace picks the face whose plane is closest to p. Ties resolve in
// the order right, left, front, back. A degenerate envelope has no faces.
func NearestFace(env vessel.Envelope, p r3.Vec) Face {
	hx, hz := halfExtents(env)
	if !(hx > 0) || !(hz > 0) || !finite(p) {
		return FaceNone
	}
	best, face := math.Inf(1), FaceNone
	for _, c := range []struct {
		f Face
		d float64
	}{
		{FaceRight, math.Abs(p.X - hx)},
		{FaceLeft, math.Abs(p.X + hx)},
		{FaceFront, math.Abs(p.Z - hz)},
		{FaceBack, math.Abs(p.Z + hz)},
	} {
		if c.d < best {
			best, face = c.d, c.f
		}
	}
	return face
}

// FacePlane returns the pinned coordinate for a face: the axis (0 for X,
// 2 for Z) and its value.
func FacePlane(env vessel.Envelope, f Face) (axis int, value float64) {
	hx, hz := halfExtents(env)
	s := attach.Spacing(env)
	switch f {
	case FaceRight:
		return 0, hx + s
	case FaceLeft:
		return 0, -(hx + s)
	case FaceFront:
		return 2, hz + s
	case FaceBack:
		return 2, -(hz + s)
	}
	return -1, 0
}

func faceRotation(f Face) r3.Vec {
	switch f {
	case FaceFront:
		return r3.Vec{Y: -90}
	case FaceLeft:
		return r3.Vec{Y: -180}
	case FaceBack:
		return r3.Vec{Y: -270}
	}
	return r3.Vec{}
}

// Orbit rotates p about the vessel axis by dx and slides it vertically by
// dy, keeping it at the orbit distance. It returns the new position and
// rotation, or p unchanged if the envelope is degenerate.
func Orbit(env vessel.Envelope, t Tuning, p r3.Vec, dx, dy float64) (r3.Vec, r3.Vec, bool) {
	t = t.orDefault()
	if env.Degenerate() || !finite(p) || !finiteF(dx) || !finiteF(dy) {
		return p, r3.Vec{}, false
	}
	d := attach.OrbitDistance(env)
	a := math.Atan2(p.Z, p.X) + dx*t.Sensitivity*t.AngularMultiplier
	out := r3.Vec{
		X: math.Cos(a) * d,
		Y: clampVertical(env, p.Y-dy*t.Sensitivity),
		Z: math.Sin(a) * d,
	}
	return Clamp(env, t, out), r3.Vec{Y: -a * 180 / math.Pi}, true
}

// Slide moves p along the plane of face f. The coordinate perpendicular to
// the face is pinned; the face itself never changes here.
func Slide(env vessel.Envelope, t Tuning, f Face, p r3.Vec, dx, dy float64) (r3.Vec, r3.Vec, bool) {
	t = t.orDefault()
	axis, pin := FacePlane(env, f)
	if axis < 0 || env.Degenerate() || !finite(p) || !finiteF(dx) || !finiteF(dy) {
		return p, r3.Vec{}, false
	}
	out := p
	out.Y = clampVertical(env, p.Y-dy*t.Sensitivity)
	if axis == 0 {
		out.X = pin
		out.Z = p.Z + dx*t.Sensitivity
	} else {
		out.Z = pin
		out.X = p.X + dx*t.Sensitivity
	}
	out = Clamp(env, t, out)
	// Clamp cannot move the pin; bounds always enclose the face planes.
	return out, faceRotation(f), true
}

// SlideTop moves p across the top plane of the vessel at constant height,
// staying within the top outline.
func SlideTop(env vessel.Envelope, t Tuning, p r3.Vec, dx, dy float64) (r3.Vec, bool) {
	t = t.orDefault()
	if env.Degenerate() || !finite(p) || !finiteF(dx) || !finiteF(dy) {
		return p, false
	}
	out := r3.Vec{X: p.X + dx*t.Sensitivity, Y: p.Y, Z: p.Z + dy*t.Sensitivity}
	hx, hz := halfExtents(env)
	if env.Shape == vessel.Cylindrical && env.Orientation == vessel.Vertical {
		if n := math.Hypot(out.X, out.Z); n > env.Radius {
			out.X *= env.Radius / n
			out.Z *= env.Radius / n
		}
	} else {
		out.X = clampF(out.X, -hx, hx)
		out.Z = clampF(out.Z, -hz, hz)
	}
	return Clamp(env, t, out), true
}

// Clamp limits p to the staging box around the vessel. The box is much
// larger than the body so attachments can be staged beside it. Clamping is
// idempotent.
func Clamp(env vessel.Envelope, t Tuning, p r3.Vec) r3.Vec {
	t = t.orDefault()
	if env.Degenerate() || !finite(p) {
		return p
	}
	h := t.HorizontalBounds * attach.OrbitDistance(env)
	v := t.VerticalBounds * env.EffectiveHeight
	return r3.Vec{
		X: clampF(p.X, -h, h),
		Y: clampF(p.Y, env.CenterY-v, env.CenterY+v),
		Z: clampF(p.Z, -h, h),
	}
}

// clampVertical keeps side-mounted attachments within the body height.
func clampVertical(env vessel.Envelope, y float64) float64 {
	half := env.EffectiveHeight / 2
	return clampF(y, env.CenterY-half, env.CenterY+half)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteF(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finite(p r3.Vec) bool {
	return finiteF(p.X) && finiteF(p.Y) && finiteF(p.Z)
}
