package attach

import (
	"math"
	"testing"

	"github.com/chazu/vesselkit/pkg/vessel"
	"gonum.org/v1/gonum/spatial/r3"
)

func envFor(mut func(*vessel.Spec)) vessel.Envelope {
	s := vessel.DefaultSpec()
	if mut != nil {
		mut(&s)
	}
	return vessel.Resolve(s)
}

func allSelected(count int) []Selection {
	var sel []Selection
	for _, t := range Types() {
		sel = append(sel, Selection{Type: t, Count: count})
	}
	return sel
}

func assertDistinct(t *testing.T, ins []Instance) {
	t.Helper()
	for i := range ins {
		for j := i + 1; j < len(ins); j++ {
			if r3.Norm(r3.Sub(ins[i].Position, ins[j].Position)) < 1e-6 {
				t.Errorf("%s and %s share position %v", ins[i].ID, ins[j].ID, ins[i].Position)
			}
		}
	}
}

func TestScenarioThreeAttachments(t *testing.T) {
	env := envFor(nil)
	sel := []Selection{{Type: Hatch}, {Type: Legs}, {Type: CIP}}
	ins := Layout(env, sel)
	if len(ins) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(ins))
	}
	assertDistinct(t, ins)

	var hatch *Instance
	for i := range ins {
		if ins[i].Type == Hatch {
			hatch = &ins[i]
		}
	}
	if hatch == nil {
		t.Fatal("hatch missing from layout")
	}
	want := r3.Vec{Y: env.CenterY + env.BodyHeight/2 + Margin}
	if r3.Norm(r3.Sub(hatch.Position, want)) > 1e-9 {
		t.Errorf("hatch at %v, want %v", hatch.Position, want)
	}
}

func TestAngularStride(t *testing.T) {
	env := envFor(nil)
	ins := Layout(env, []Selection{{Type: Sensor, Count: 3}})
	d := OrbitDistance(env)
	for n, in := range ins {
		theta := float64(n) * AngularStride
		if math.Abs(in.Position.X-d*math.Cos(theta)) > 1e-9 || math.Abs(in.Position.Z-d*math.Sin(theta)) > 1e-9 {
			t.Errorf("%s at %v, want angle %f at distance %f", in.ID, in.Position, theta, d)
		}
		if in.ID != InstanceID(Sensor, n) {
			t.Errorf("id = %q, want %q", in.ID, InstanceID(Sensor, n))
		}
	}
}

func TestSpacingMinimum(t *testing.T) {
	small := envFor(func(s *vessel.Spec) { s.DiameterMm = 200 })
	if got := Spacing(small); got != MinSpacing {
		t.Errorf("Spacing(small) = %f, want %f", got, MinSpacing)
	}
	big := envFor(func(s *vessel.Spec) { s.DiameterMm = 4000 })
	if got := Spacing(big); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Spacing(big) = %f, want 0.6", got)
	}
}

func TestNoOverlapAnySubset(t *testing.T) {
	envs := map[string]vessel.Envelope{
		"vertical":    envFor(nil),
		"horizontal":  envFor(func(s *vessel.Spec) { s.Orientation = vessel.Horizontal }),
		"rectangular": envFor(func(s *vessel.Spec) { s.Shape = vessel.Rectangular }),
	}
	types := Types()
	for name, env := range envs {
		t.Run(name, func(t *testing.T) {
			for mask := 1; mask < 1<<len(types); mask += 37 {
				var sel []Selection
				for i, ty := range types {
					if mask&(1<<i) != 0 {
						sel = append(sel, Selection{Type: ty, Count: 1 + i%3})
					}
				}
				assertDistinct(t, Layout(env, sel))
			}
			assertDistinct(t, Layout(env, allSelected(4)))
		})
	}
}

func TestRepeatedTopCenterStacks(t *testing.T) {
	env := envFor(nil)
	ins := Layout(env, []Selection{{Type: Hatch, Count: 2}})
	if len(ins) != 2 {
		t.Fatalf("expected 2 hatches, got %d", len(ins))
	}
	if ins[1].Position.Y <= ins[0].Position.Y {
		t.Errorf("second hatch should sit above the first: %v vs %v", ins[1].Position, ins[0].Position)
	}
}

func TestUnknownTypeSkipped(t *testing.T) {
	env := envFor(nil)
	ins := Layout(env, []Selection{{Type: Type(99)}, {Type: Flange}})
	if len(ins) != 1 || ins[0].Type != Flange {
		t.Fatalf("expected only the flange, got %+v", ins)
	}
}

func TestLayoutOrderStable(t *testing.T) {
	env := envFor(nil)
	a := Layout(env, []Selection{{Type: Sensor}, {Type: Flange}, {Type: CIP}})
	b := Layout(env, []Selection{{Type: CIP}, {Type: Sensor}, {Type: Flange}})
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("slot %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestShellGeometryFollowsEnvelope(t *testing.T) {
	env := envFor(nil)
	ins := Layout(env, []Selection{{Type: Insulation}})
	g, ok := ins[0].Geometry(env)
	if !ok {
		t.Fatal("no geometry for insulation")
	}
	if g.Size.Y != env.BodyHeight || g.Size.X <= 2*env.Radius {
		t.Errorf("shell size %v does not wrap the body", g.Size)
	}
	if ins[0].Position.Y != env.CenterY {
		t.Errorf("shell y = %f, want %f", ins[0].Position.Y, env.CenterY)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
		ok   bool
	}{
		{"hatch", Hatch, true},
		{"drain", Hatch, true},
		{"level-indicator", LevelIndicator, true},
		{"teleporter", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseType(%q) = %v, %v", tt.in, got, err)
		}
	}
}
