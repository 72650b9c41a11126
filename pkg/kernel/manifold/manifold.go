//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Its exact mesh
// booleans make it the backend of choice for export; sdfx remains the
// default because it needs no C toolchain.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/vesselkit/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer and implements kernel.Solid.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// newSolid wraps a C ManifoldManifold pointer with Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// Segments is the circular resolution of cylinders, cones and spheres.
const Segments = 64

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct{}

// New creates a new ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// Name returns "manifold".
func (k *ManifoldKernel) Name() string { return "manifold" }

// Box creates an axis-aligned box with the given dimensions.
// The box is centered at the origin.
func (k *ManifoldKernel) Box(x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(x), C.double(y), C.double(z),
		C.int(1), // center=true
	)
	return newSolid(ptr)
}

// zToY turns a Z-axis manifold primitive onto the Y axis.
func zToY(ptr *C.ManifoldManifold) *manifoldSolid {
	alloc := C.manifold_alloc_manifold()
	out := C.manifold_rotate(alloc, ptr, C.double(-90), C.double(0), C.double(0))
	C.manifold_delete_manifold(ptr)
	return newSolid(out)
}

// Cylinder creates a Y-axis cylinder centred on the origin.
func (k *ManifoldKernel) Cylinder(height, radius float64) kernel.Solid {
	return k.Cone(height, radius, radius)
}

// Cone creates a Y-axis truncated cone centred on the origin with the
// bottom radius at -Y.
func (k *ManifoldKernel) Cone(height, bottom, top float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(height),
		C.double(bottom), // radius_low
		C.double(top),    // radius_high
		C.int(Segments),
		C.int(1), // center=true
	)
	return zToY(ptr)
}

// Hemisphere creates the upper half of a sphere with its flat face on y=0.
func (k *ManifoldKernel) Hemisphere(radius float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	sphere := C.manifold_sphere(alloc, C.double(radius), C.int(Segments))
	defer C.manifold_delete_manifold(sphere)

	alloc = C.manifold_alloc_manifold()
	ptr := C.manifold_trim_by_plane(alloc, sphere,
		C.double(0), C.double(1), C.double(0), // keep +Y
		C.double(0),
	)
	return newSolid(ptr)
}

type boolOp int

const (
	opUnion boolOp = iota
	opDifference
	opIntersection
)

func boolean(a, b kernel.Solid, op boolOp) kernel.Solid {
	pa, pb := a.(*manifoldSolid).ptr, b.(*manifoldSolid).ptr
	alloc := C.manifold_alloc_manifold()
	switch op {
	case opDifference:
		return newSolid(C.manifold_difference(alloc, pa, pb))
	case opIntersection:
		return newSolid(C.manifold_intersection(alloc, pa, pb))
	}
	return newSolid(C.manifold_union(alloc, pa, pb))
}

// Union returns the union of a and b.
func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid { return boolean(a, b, opUnion) }

// Difference returns a minus b.
func (k *ManifoldKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return boolean(a, b, opDifference)
}

// Intersection returns the volume shared by a and b.
func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return boolean(a, b, opIntersection)
}

// Translate moves the solid by (x, y, z) metres.
func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_translate(alloc, s.(*manifoldSolid).ptr,
		C.double(x), C.double(y), C.double(z)))
}

// Rotate applies Euler angles in degrees. Manifold applies X, then Y, then
// Z, matching the kernel contract.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_rotate(alloc, s.(*manifoldSolid).ptr,
		C.double(x), C.double(y), C.double(z)))
}

// ToMesh copies the solid's MeshGL into a kernel.Mesh. MeshGL interleaves
// numProp floats per vertex with the position first and, when present, the
// normal next.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	gl := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), s.(*manifoldSolid).ptr)
	defer C.manifold_delete_meshgl(gl)

	numVert := int(C.manifold_meshgl_num_vert(gl))
	numTri := int(C.manifold_meshgl_num_tri(gl))
	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(gl))
	if numProp < 3 {
		return nil, fmt.Errorf("manifold: mesh has %d properties per vertex, need at least 3", numProp)
	}

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), gl)
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, numVert*3),
		Indices:  make([]uint32, numTri*3),
	}
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&m.Indices[0])), gl)

	withNormals := numProp >= 6
	if withNormals {
		m.Normals = make([]float32, 0, numVert*3)
	}
	for v := 0; v < numVert; v++ {
		row := props[v*numProp : (v+1)*numProp]
		m.Vertices = append(m.Vertices, row[0], row[1], row[2])
		if withNormals {
			m.Normals = append(m.Normals, row[3], row[4], row[5])
		}
	}
	if !withNormals {
		m.ComputeNormals()
	}
	return m, nil
}
