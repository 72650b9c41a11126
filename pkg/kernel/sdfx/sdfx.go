// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"
	"os"

	"github.com/chazu/vesselkit/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel   = (*SdfxKernel)(nil)
	_ kernel.Exporter = (*SdfxKernel)(nil)
)

// DefaultMeshCells controls marching cubes tessellation resolution along the
// longest axis of a solid.
const DefaultMeshCells = 200

// sdfx primitives are Z-up; this turns their axis onto Y.
var zToY = sdf.RotateX(-math.Pi / 2)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel at the default mesh resolution.
func New() *SdfxKernel {
	return NewWithCells(DefaultMeshCells)
}

// NewWithCells returns a kernel that meshes with the given number of
// marching cubes cells. Non-positive values use DefaultMeshCells.
func NewWithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string { return "sdfx" }

// Cells returns the marching cubes resolution.
func (k *SdfxKernel) Cells() int { return k.cells }

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// must panics on constructor errors. Callers validate dimensions first;
// sdfx only rejects non-positive sizes.
func must(s sdf.SDF3, err error, what string) sdf.SDF3 {
	if err != nil {
		panic(fmt.Sprintf("sdfx.%s: %v", what, err))
	}
	return s
}

// Box creates a box with the given dimensions, centred on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	return wrap(must(sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0), "Box3D"))
}

// Cylinder creates a Y-axis cylinder centred on the origin.
func (k *SdfxKernel) Cylinder(height, radius float64) kernel.Solid {
	s := must(sdf.Cylinder3D(height, radius, 0), "Cylinder3D")
	return wrap(sdf.Transform3D(s, zToY))
}

// Cone creates a Y-axis truncated cone centred on the origin with the bottom
// radius at -Y. A zero top radius gives a pointed cone.
func (k *SdfxKernel) Cone(height, bottom, top float64) kernel.Solid {
	s := must(sdf.Cone3D(height, bottom, top, 0), "Cone3D")
	return wrap(sdf.Transform3D(s, zToY))
}

// bounded overrides the bounding box of an SDF whose own box is too loose.
type bounded struct {
	sdf.SDF3
	bb sdf.Box3
}

func (b bounded) BoundingBox() sdf.Box3 { return b.bb }

// Hemisphere creates the upper half of a sphere with its flat face on y=0.
func (k *SdfxKernel) Hemisphere(radius float64) kernel.Solid {
	s := must(sdf.Sphere3D(radius), "Sphere3D")
	// Cut3D keeps the whole sphere's box.
	return wrap(bounded{
		SDF3: sdf.Cut3D(s, v3.Vec{}, v3.Vec{Y: 1}),
		bb: sdf.Box3{
			Min: v3.Vec{X: -radius, Y: 0, Z: -radius},
			Max: v3.Vec{X: radius, Y: radius, Z: radius},
		},
	})
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	if x == 0 && y == 0 && z == 0 {
		return s
	}
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// WriteSTL renders s to an STL file at path.
func (k *SdfxKernel) WriteSTL(s kernel.Solid, path string) error {
	render.ToSTL(unwrap(s), path, render.NewMarchingCubesUniform(k.cells))
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("sdfx: write stl: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("sdfx: write stl: %s is empty", path)
	}
	return nil
}
