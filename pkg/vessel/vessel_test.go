package vessel

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func approx(t *testing.T, what string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %f, want %f", what, got, want)
	}
}

func baseSpec() Spec {
	return Spec{
		Shape:           Cylindrical,
		HeightMm:        2000,
		DiameterMm:      1000,
		WallThicknessMm: 3,
		Orientation:     Vertical,
		TopCap:          CapFlat,
		BottomCap:       CapFlat,
		LegCount:        4,
		Material:        MaterialStainless,
	}
}

func TestScenarioFlatBottomVerticalLegs(t *testing.T) {
	s := baseSpec()
	env := Resolve(s)

	approx(t, "Radius", env.Radius, 0.5)
	approx(t, "LegHeight", env.LegHeight, 0.3)
	approx(t, "EffectiveHeight", env.EffectiveHeight, 2.0)
	approx(t, "CenterY", env.CenterY, 0.3+1.0)

	solids := Build(s, env)
	if len(solids.Legs) != 4 {
		t.Fatalf("expected 4 legs, got %d", len(solids.Legs))
	}
	for i, leg := range solids.Legs {
		d := math.Hypot(leg.Position.X, leg.Position.Z)
		approx(t, "leg radial distance", d, 0.425)
		approx(t, "leg y", leg.Position.Y, -1.0-0.15)
		approx(t, "leg height", leg.Size.Y, 0.3)

		angle := math.Atan2(leg.Position.Z, leg.Position.X)
		want := float64(i) * math.Pi / 2
		if want > math.Pi {
			want -= 2 * math.Pi
		}
		if math.Abs(angle-want) > 1e-9 {
			t.Errorf("leg %d angle = %f, want %f", i, angle, want)
		}
	}
}

func TestScenarioConeBottomNeedsClearance(t *testing.T) {
	s := baseSpec()
	s.BottomCap = CapCone
	env := Resolve(s)
	approx(t, "LegHeight", env.LegHeight, 0.6)

	s.BottomCap = CapDome
	approx(t, "dome LegHeight", Resolve(s).LegHeight, 0.6)
}

func TestCapNeverReachesGround(t *testing.T) {
	for _, c := range []CapType{CapFlat, CapDome, CapCone} {
		s := baseSpec()
		s.BottomCap = c
		env := Resolve(s)
		if env.BottomCapDepth >= env.LegHeight {
			t.Errorf("%s: cap depth %f >= leg height %f", c, env.BottomCapDepth, env.LegHeight)
		}
	}
}

func TestScenarioHorizontalTwoLegs(t *testing.T) {
	s := baseSpec()
	s.Orientation = Horizontal
	s.LegCount = 2
	env := Resolve(s)

	approx(t, "EffectiveHeight", env.EffectiveHeight, 1.0)
	approx(t, "FootprintRadius", env.FootprintRadius, 1.0)

	solids := Build(s, env)
	if len(solids.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(solids.Legs))
	}
	approx(t, "leg0 x", solids.Legs[0].Position.X, -0.8)
	approx(t, "leg1 x", solids.Legs[1].Position.X, 0.8)
	for _, leg := range solids.Legs {
		approx(t, "leg z", leg.Position.Z, 0)
		if leg.Rotation != (r3.Vec{}) {
			t.Errorf("leg %s must not be rotated, got %v", leg.Name, leg.Rotation)
		}
	}
	if solids.BodyRotation != (r3.Vec{Z: 90}) {
		t.Errorf("BodyRotation = %v, want 90 about Z", solids.BodyRotation)
	}
}

func TestHorizontalLegTable(t *testing.T) {
	const L, R = 2.0, 0.5
	tests := []struct {
		n    int
		want []r3.Vec
	}{
		{0, nil},
		{1, []r3.Vec{{}}},
		{4, []r3.Vec{{X: -0.7, Y: -0.3}, {X: -0.7, Y: 0.3}, {X: 0.7, Y: -0.3}, {X: 0.7, Y: 0.3}}},
		{6, []r3.Vec{
			{X: -0.8, Y: 0.3}, {X: -0.48, Y: -0.3}, {X: -0.16, Y: 0.3},
			{X: 0.16, Y: -0.3}, {X: 0.48, Y: 0.3}, {X: 0.8, Y: -0.3},
		}},
	}
	for _, tt := range tests {
		got := HorizontalLegOffsets(tt.n, L, R)
		if len(got) != len(tt.want) {
			t.Fatalf("n=%d: got %d offsets, want %d", tt.n, len(got), len(tt.want))
		}
		for i := range got {
			if math.Abs(got[i].X-tt.want[i].X) > 1e-9 || math.Abs(got[i].Y-tt.want[i].Y) > 1e-9 {
				t.Errorf("n=%d offset %d = %v, want %v", tt.n, i, got[i], tt.want[i])
			}
		}
	}
}

func TestZeroLegsRestOnGround(t *testing.T) {
	s := baseSpec()
	s.LegCount = 0
	env := Resolve(s)
	solids := Build(s, env)
	if len(solids.Legs) != 0 {
		t.Fatalf("expected no legs, got %d", len(solids.Legs))
	}
	approx(t, "GroundOffset", env.GroundOffset, 0)
	approx(t, "CenterY", env.CenterY, 1.0)

	s.BottomCap = CapDome
	env = Resolve(s)
	approx(t, "dome GroundOffset", env.GroundOffset, 0.5)
}

func TestCaps(t *testing.T) {
	s := baseSpec()
	s.TopCap = CapDome
	s.BottomCap = CapCone
	solids := Build(s, Resolve(s))
	if len(solids.Caps) != 2 {
		t.Fatalf("expected 2 caps, got %d", len(solids.Caps))
	}
	top, bottom := solids.Caps[0], solids.Caps[1]
	if top.Shape != ShapeHemisphere || top.Facing != 1 {
		t.Errorf("top cap = %s facing %d", top.Shape, top.Facing)
	}
	if bottom.Shape != ShapeCone || bottom.Facing != -1 {
		t.Errorf("bottom cap = %s facing %d", bottom.Shape, bottom.Facing)
	}
	approx(t, "top cap y", top.Position.Y, 1.0+0.25)
	approx(t, "bottom cap y", bottom.Position.Y, -1.0-0.2)

	s.TopCap, s.BottomCap = CapFlat, CapFlat
	if n := len(Build(s, Resolve(s)).Caps); n != 0 {
		t.Errorf("flat caps should add nothing, got %d", n)
	}
}

func TestRectangularIsSquare(t *testing.T) {
	s := baseSpec()
	s.Shape = Rectangular
	s.WidthMm = 1200
	s.DiameterMm = 0
	env := Resolve(s)
	approx(t, "Radius", env.Radius, 0.6)

	body := Build(s, env).Body
	if body.Shape != ShapeBox {
		t.Fatalf("body shape = %s, want box", body.Shape)
	}
	if body.Size.X != body.Size.Z {
		t.Errorf("rectangular body not square: %v", body.Size)
	}
	if s.DepthMm() != s.WidthMm {
		t.Errorf("DepthMm = %f, want %f", s.DepthMm(), s.WidthMm)
	}
}

func TestBuildDeterministic(t *testing.T) {
	specs := []Spec{baseSpec()}
	h := baseSpec()
	h.Orientation = Horizontal
	h.LegCount = 7
	h.TopCap = CapCone
	specs = append(specs, h)

	for _, s := range specs {
		a := Build(s, Resolve(s))
		b := Build(s, Resolve(s))
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Build is not deterministic for %+v", s)
		}
	}
}

func TestClampSpec(t *testing.T) {
	s := baseSpec()
	s.HeightMm = -5
	s.DiameterMm = math.NaN()
	s.LegCount = 99
	s.TopCap = CapType(42)

	got, changed := ClampSpec(s, DefaultLimits())
	if got.HeightMm != 200 || got.DiameterMm != 200 || got.LegCount != 12 || got.TopCap != CapFlat {
		t.Errorf("unexpected clamp result: %+v", got)
	}
	if len(changed) != 4 {
		t.Errorf("changed = %v, want 4 fields", changed)
	}

	again, changed := ClampSpec(got, DefaultLimits())
	if !reflect.DeepEqual(again, got) || len(changed) != 0 {
		t.Errorf("clamping twice should be a no-op, changed %v", changed)
	}
}

func TestDegenerateLimitsStillUsable(t *testing.T) {
	env := ResolveWithLimits(Spec{}, Limits{})
	if env.Degenerate() {
		t.Fatalf("resolver produced degenerate envelope: %+v", env)
	}
	solids := Build(Spec{}, env)
	for _, v := range []float64{solids.Body.Size.X, solids.Body.Size.Y} {
		if math.IsNaN(v) || v <= 0 {
			t.Errorf("body size not positive: %v", solids.Body.Size)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseShape("hexagonal"); err == nil {
		t.Error("expected error for unknown shape")
	}
	var c CapType
	if err := c.UnmarshalText([]byte("cone")); err != nil || c != CapCone {
		t.Errorf("UnmarshalText(cone) = %v, %v", c, err)
	}
	b, _ := Horizontal.MarshalText()
	if string(b) != "horizontal" {
		t.Errorf("MarshalText = %q", b)
	}
	if m, err := ParseMaterial("carbon"); err != nil || m != MaterialCarbon {
		t.Errorf("ParseMaterial(carbon) = %q, %v", m, err)
	}
	if _, err := ParseMaterial("wood"); err == nil {
		t.Error("expected error for unknown material")
	}
	if Material("wood").Color() != MaterialStainless.Color() {
		t.Error("unknown material should render as stainless")
	}
}
