package attach

import (
	"math"
	"sort"

	"github.com/chazu/vesselkit/pkg/vessel"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// AngularStride is the angle between consecutive angular instances.
	AngularStride = math.Pi / 3
	// Margin is the vertical gap used by top rules and tie-breaking, metres.
	Margin = 0.1
	// MinSpacing keeps attachments visibly detached on small vessels.
	MinSpacing = 0.2
	// SpacingFactor is the radial gap relative to the radius.
	SpacingFactor = 0.3

	topRingFactor = 0.5
	ringSlots     = 6
	coincideTol   = 1e-6
)

// Spacing is the radial gap between the vessel surface and its attachments.
func Spacing(env vessel.Envelope) float64 {
	return math.Max(env.Radius*SpacingFactor, MinSpacing)
}

// OrbitDistance is the distance from the vessel axis at which side-mounted
// attachments sit on a cylindrical vessel.
func OrbitDistance(env vessel.Envelope) float64 {
	return env.FootprintRadius + Spacing(env)
}

// FaceDistance is the distance from the vessel axis of the plane a
// side-mounted attachment is pinned to on a rectangular vessel.
func FaceDistance(env vessel.Envelope) float64 {
	return env.Radius + Spacing(env)
}

// Expand turns wizard selections into (type, size, ordinal) slots in stable
// layout order. Unknown types are dropped; a zero count means one.
func Expand(sel []Selection) []Instance {
	byType := make(map[Type][]Selection)
	for _, s := range sel {
		if !s.Type.Known() {
			continue
		}
		byType[s.Type] = append(byType[s.Type], s)
	}
	types := make([]Type, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var out []Instance
	for _, t := range types {
		ordinal := 0
		for _, s := range byType[t] {
			n := s.Count
			if n <= 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				out = append(out, Instance{
					ID:   InstanceID(t, ordinal),
					Type: t,
					Size: s.Size,
				})
				ordinal++
			}
		}
	}
	return out
}

// Layout computes default positions for every selected attachment. The
// angular rule is the fallback; the type table overrides it for top and
// shell mounted types. No two returned instances share a position.
func Layout(env vessel.Envelope, sel []Selection) []Instance {
	slots := Expand(sel)
	out := make([]Instance, 0, len(slots))

	angular := 0
	ordinals := make(map[Type]int)
	for _, in := range slots {
		info, ok := Lookup(in.Type)
		if !ok {
			continue
		}
		k := ordinals[in.Type]
		ordinals[in.Type]++

		switch info.Rule {
		case RuleTopCenter:
			in.Position = r3.Vec{Y: topY(env, info)}
		case RuleTopRing:
			a := float64(k)*AngularStride + AngularStride/2
			d := env.Radius * topRingFactor
			in.Position = r3.Vec{X: d * math.Cos(a), Y: topY(env, info), Z: d * math.Sin(a)}
			in.Rotation = r3.Vec{Y: -degrees(a)}
		case RuleShell:
			in.Position = r3.Vec{Y: env.CenterY}
			if env.Orientation == vessel.Horizontal {
				in.Rotation = r3.Vec{Z: 90}
			}
		default:
			in.Position, in.Rotation = angularPose(env, info, angular)
			angular++
		}
		out = append(out, in)
	}

	separate(out)
	return out
}

// DefaultFor returns the default pose of a single id under the given
// selection, or false if the id is not part of it.
func DefaultFor(env vessel.Envelope, sel []Selection, id string) (Instance, bool) {
	for _, in := range Layout(env, sel) {
		if in.ID == id {
			return in, true
		}
	}
	return Instance{}, false
}

func angularPose(env vessel.Envelope, info Info, n int) (r3.Vec, r3.Vec) {
	theta := float64(n%ringSlots) * AngularStride
	tier := float64(n / ringSlots)
	d := OrbitDistance(env)
	pos := r3.Vec{
		X: d * math.Cos(theta),
		Y: env.CenterY + info.Vertical*env.EffectiveHeight + tier*Margin,
		Z: d * math.Sin(theta),
	}
	return pos, r3.Vec{Y: -degrees(theta)}
}

func topY(env vessel.Envelope, info Info) float64 {
	y := env.Top() + info.Lift*Margin
	if env.Orientation == vessel.Vertical {
		y += env.TopCapDepth
	}
	return y
}

// separate lifts any instance that coincides with an earlier one until it
// no longer does.
func separate(ins []Instance) {
	for i := range ins {
		for clash(ins[:i], ins[i].Position) {
			ins[i].Position.Y += Margin
		}
	}
}

func clash(placed []Instance, p r3.Vec) bool {
	for _, o := range placed {
		if r3.Norm(r3.Sub(o.Position, p)) < coincideTol {
			return true
		}
	}
	return false
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
