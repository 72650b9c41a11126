package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/vessel"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source for zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols.
//  2. kebab-case identifiers become snake_case, since zygomys reads a
//     hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"' || b[i] == '`':
			j := skipString(b, i)
			result = append(result, b[i:j]...)
			i = j

		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}

		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, ':', '=')
			i += 2

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j

		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			result = append(result, '_')
			i++

		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

// skipString returns the index just past the string literal starting at i.
// Double-quoted strings honour backslash escapes; backtick strings do not.
func skipString(b []byte, i int) int {
	quote := b[i]
	j := i + 1
	for j < len(b) && b[j] != quote {
		if quote == '"' && b[j] == '\\' && j+1 < len(b) {
			j++
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a world-space vector in metres.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSpec is the value of a (vessel ...) form.
type sexpSpec struct {
	spec vessel.Spec
}

func (s *sexpSpec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vessel :shape :%s :height %g :orientation :%s :legs %d)",
		s.spec.Shape, s.spec.HeightMm, s.spec.Orientation, s.spec.LegCount)
}
func (s *sexpSpec) Type() *zygo.RegisteredType { return nil }

// sexpSelection is the value of an (attach ...) form.
type sexpSelection struct {
	sel attach.Selection
}

func (s *sexpSelection) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(attach :%s :size :%s :count %d)", s.sel.Type, s.sel.Size, s.sel.Count)
}
func (s *sexpSelection) Type() *zygo.RegisteredType { return nil }

// sexpPlacement is the value of a (place ...) form.
type sexpPlacement struct {
	p Placement
}

func (s *sexpPlacement) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(place %q (vec3 %g %g %g))", s.p.ID, s.p.Position.X, s.p.Position.Y, s.p.Position.Z)
}
func (s *sexpPlacement) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_dome) and plain strings ("dome").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// keywordField parses kw[key] with parse when present.
func keywordField[T any](pa kwArgs, form, key string, parse func(string) (T, error), dst *T) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	name, err := toKeywordString(v)
	if err == nil {
		var out T
		if out, err = parse(name); err == nil {
			*dst = out
			return nil
		}
	}
	return fmt.Errorf("%s: %s: %w", form, key, err)
}

// numberField parses kw[key] as a number when present.
func numberField(pa kwArgs, form, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", form, key, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// attachOptions are the keys (attach ...) accepts after the type.
var attachOptions = map[string]bool{"type": true, "size": true, "count": true}

// registerBuiltins installs the script builtins into a zygomys environment.
// Each builtin records its result into d as well as returning it.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, d *Design) {

	// -----------------------------------------------------------------------
	// (vessel :shape :cylindrical :height 2000 :diameter 1000 :width 800
	//         :wall 3 :orientation :vertical :top :dome :bottom :cone
	//         :legs 4 :material :stainless)
	// -----------------------------------------------------------------------
	env.AddFunction("vessel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := vessel.DefaultSpec()

		steps := []error{
			keywordField(pa, name, "shape", vessel.ParseShape, &spec.Shape),
			keywordField(pa, name, "orientation", vessel.ParseOrientation, &spec.Orientation),
			keywordField(pa, name, "top", vessel.ParseCapType, &spec.TopCap),
			keywordField(pa, name, "bottom", vessel.ParseCapType, &spec.BottomCap),
			keywordField(pa, name, "material", vessel.ParseMaterial, &spec.Material),
			numberField(pa, name, "height", &spec.HeightMm),
			numberField(pa, name, "diameter", &spec.DiameterMm),
			numberField(pa, name, "width", &spec.WidthMm),
			numberField(pa, name, "wall", &spec.WallThicknessMm),
		}
		for _, err := range steps {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["legs"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vessel: legs: %w", err)
			}
			spec.LegCount = n
		}

		if d.HasVessel {
			d.warnf("vessel defined more than once; the last definition wins")
		}
		d.Spec = spec
		d.HasVessel = true
		return &sexpSpec{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (attach :sensor :size :large :count 2)
	// (attach :type :cip)
	// -----------------------------------------------------------------------
	env.AddFunction("attach", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var sel attach.Selection
		typeName := ""
		// A leading keyword that is not an option key names the type.
		if len(args) > 0 {
			if kw, ok := isKW(args[0]); ok && !attachOptions[kw] {
				typeName = kw
				args = args[1:]
			}
		}
		pa := parseArgs(args)
		if v, ok := pa.kw["type"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("attach: type: %w", err)
			}
			typeName = s
		}
		if typeName == "" && len(pa.positional) > 0 {
			s, err := toKeywordString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("attach: type: %w", err)
			}
			typeName = s
		}
		if typeName == "" {
			return zygo.SexpNull, fmt.Errorf("attach requires an attachment type")
		}

		t, err := attach.ParseType(typeName)
		if err != nil {
			d.warnf("attach: skipping unknown attachment type %q", typeName)
			return zygo.SexpNull, nil
		}
		sel.Type = t

		if err := keywordField(pa, name, "size", attach.ParseSize, &sel.Size); err != nil {
			return zygo.SexpNull, err
		}
		sel.Count = 1
		if v, ok := pa.kw["count"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("attach: count: %w", err)
			}
			if n < 1 {
				return zygo.SexpNull, fmt.Errorf("attach: count must be at least 1, got %d", n)
			}
			sel.Count = n
		}

		d.Selection = append(d.Selection, sel)
		return &sexpSelection{sel: sel}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 0.8 1.2 0.3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (place "sensor-1" (vec3 0.8 1.2 0.3))
	// (place "sensor-1" :at (vec3 0.8 1.2 0.3))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires an attachment id as first argument")
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: id: %w", err)
		}

		at, ok := pa.kw["at"]
		if !ok && len(pa.positional) > 1 {
			at, ok = pa.positional[1], true
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("place: %q needs a position", id)
		}
		pos, err := toVec3(at)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}

		p := Placement{ID: id, Position: pos}
		d.Placements = append(d.Placements, p)
		return &sexpPlacement{p: p}, nil
	})
}
