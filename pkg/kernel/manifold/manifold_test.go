//go:build manifold

package manifold

import (
	"math"
	"testing"

	"github.com/chazu/vesselkit/pkg/kernel"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func assertBounds(t *testing.T, name string, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("%s min[%d] = %f, want %f", name, i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("%s max[%d] = %f, want %f", name, i, max[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := mustNew(t)
	assertBounds(t, "box", k.Box(1, 2, 3),
		[3]float64{-0.5, -1, -1.5}, [3]float64{0.5, 1, 1.5}, 1e-6)
}

func TestCylinderAxisIsY(t *testing.T) {
	k := mustNew(t)
	s := k.Cylinder(2, 0.5)
	min, max := s.BoundingBox()
	if math.Abs(min[1]+1) > 1e-6 || math.Abs(max[1]-1) > 1e-6 {
		t.Errorf("cylinder Y extent = [%f, %f], want [-1, 1]", min[1], max[1])
	}
	// Polygon inscribed in the circle.
	for _, i := range []int{0, 2} {
		if min[i] > -0.49 || max[i] < 0.49 || max[i] > 0.5+1e-6 {
			t.Errorf("cylinder extent on axis %d = [%f, %f], want ~0.5", i, min[i], max[i])
		}
	}
}

func TestConeNarrowsUpward(t *testing.T) {
	k := mustNew(t)
	mesh, err := k.ToMesh(k.Cone(1, 0.5, 0.1))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	// Every vertex near the top must lie within the top radius.
	for i := 0; i+2 < len(mesh.Vertices); i += 3 {
		x, y, z := float64(mesh.Vertices[i]), float64(mesh.Vertices[i+1]), float64(mesh.Vertices[i+2])
		if y > 0.49 && math.Hypot(x, z) > 0.1+1e-4 {
			t.Fatalf("vertex (%f, %f, %f) outside the top radius", x, y, z)
		}
	}
}

func TestHemisphere(t *testing.T) {
	k := mustNew(t)
	s := k.Hemisphere(0.5)
	min, max := s.BoundingBox()
	if math.Abs(min[1]) > 1e-6 || math.Abs(max[1]-0.5) > 1e-3 {
		t.Errorf("hemisphere Y extent = [%f, %f], want [0, 0.5]", min[1], max[1])
	}
}

func TestDifference(t *testing.T) {
	k := mustNew(t)
	result := k.Difference(k.Box(1, 1, 1), k.Cylinder(2, 0.3))
	assertBounds(t, "difference", result,
		[3]float64{-0.5, -0.5, -0.5}, [3]float64{0.5, 0.5, 0.5}, 1e-6)
}

func TestTranslate(t *testing.T) {
	k := mustNew(t)
	assertBounds(t, "translate", k.Translate(k.Box(1, 1, 1), 10, 20, 30),
		[3]float64{9.5, 19.5, 29.5}, [3]float64{10.5, 20.5, 30.5}, 1e-6)
}

func TestToMesh(t *testing.T) {
	k := mustNew(t)
	mesh, err := k.ToMesh(k.Box(1, 1, 1))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if mesh == nil || mesh.IsEmpty() {
		t.Fatal("ToMesh() returned empty mesh for a box")
	}
	if mesh.TriangleCount() < 12 {
		t.Errorf("ToMesh() triangle count = %d, want >= 12", mesh.TriangleCount())
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		t.Errorf("ToMesh() normals length = %d, vertices length = %d, want equal",
			len(mesh.Normals), len(mesh.Vertices))
	}
}
