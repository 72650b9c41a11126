// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) build vessel and attachment solids behind
// this interface so the scene can be meshed by either backend.
//
// All kernels share one frame: Y is up, lengths are metres and every
// primitive is centred on the origin.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Name identifies the backend in logs and responses.
	Name() string

	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid // axis along Y
	Cone(height, bottom, top float64) Solid // axis along Y, bottom radius at -Y
	Hemisphere(radius float64) Solid        // flat face on y=0, dome toward +Y

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, applied X then Y then Z

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Exporter is implemented by kernels that can write a solid straight to an
// STL file.
type Exporter interface {
	WriteSTL(s Solid, path string) error
}
