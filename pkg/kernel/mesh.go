package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices" msgpack:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals" msgpack:"normals"`   // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices" msgpack:"indices"`   // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName" msgpack:"partName"` // which scene part this came from
	Color    string    `json:"color,omitempty" msgpack:"color,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertices. An empty mesh
// returns zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := range min {
		min[i] = math.Inf(1)
		max[i] = math.Inf(-1)
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for j := 0; j < 3; j++ {
			v := float64(m.Vertices[i+j])
			min[j] = math.Min(min[j], v)
			max[j] = math.Max(max[j], v)
		}
	}
	return min, max
}

// ComputeNormals replaces Normals with per-vertex normals averaged from the
// incident faces. Larger faces weigh more. Vertices on no face get a zero
// normal.
func (m *Mesh) ComputeNormals() {
	acc := make([]r3.Vec, m.VertexCount())
	at := func(i uint32) r3.Vec {
		return r3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		a := at(i0)
		n := r3.Cross(r3.Sub(at(i1), a), r3.Sub(at(i2), a))
		for _, i := range []uint32{i0, i1, i2} {
			acc[i] = r3.Add(acc[i], n)
		}
	}
	m.Normals = make([]float32, 0, 3*len(acc))
	for _, n := range acc {
		if l := r3.Norm(n); l > 1e-12 {
			n = r3.Scale(1/l, n)
		}
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
}
