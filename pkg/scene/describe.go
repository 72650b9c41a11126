package scene

import (
	"math"

	"github.com/chazu/vesselkit/pkg/vessel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Descriptor is the flat, renderer-facing view of one scene node.
type Descriptor struct {
	ID          NodeID           `json:"id" msgpack:"id"`
	Parent      NodeID           `json:"parent,omitempty" msgpack:"parent,omitempty"`
	Kind        NodeKind         `json:"kind" msgpack:"kind"`
	Name        string           `json:"name" msgpack:"name"`
	Shape       vessel.ShapeKind `json:"shape" msgpack:"shape"`
	Size        r3.Vec           `json:"size" msgpack:"size"`
	Facing      int              `json:"facing,omitempty" msgpack:"facing,omitempty"`
	Color       string           `json:"color,omitempty" msgpack:"color,omitempty"`
	Translation r3.Vec           `json:"translation" msgpack:"translation"`
	Rotation    r3.Vec           `json:"rotation" msgpack:"rotation"`
	// World is the world position of the node's local origin.
	World r3.Vec `json:"world" msgpack:"world"`
}

// Describe flattens the scene in depth-first order, parents before
// children. Nodes reachable along more than one path are described once.
func Describe(s *Scene) []Descriptor {
	if s == nil {
		return nil
	}
	var out []Descriptor
	seen := make(map[NodeID]bool)

	var walk func(n *Node, parent NodeID, stack []TransformData)
	walk = func(n *Node, parent NodeID, stack []TransformData) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true

		d := Descriptor{ID: n.ID, Parent: parent, Kind: n.Kind, Name: n.Name}
		switch data := n.Data.(type) {
		case PrimitiveData:
			d.Shape, d.Size, d.Facing, d.Color = data.Shape, data.Size, data.Facing, data.Color
		case TransformData:
			d.Translation, d.Rotation = data.Translation, data.Rotation
			stack = append(stack[:len(stack):len(stack)], data)
		}
		d.World = Apply(stack, r3.Vec{})
		out = append(out, d)

		for _, c := range s.Children(n) {
			walk(c, n.ID, stack)
		}
	}
	for _, id := range s.Roots {
		if n := s.Get(id); n != nil {
			walk(n, "", nil)
		}
	}
	return out
}

// Apply maps p through a stack of transforms, innermost last.
func Apply(stack []TransformData, p r3.Vec) r3.Vec {
	for i := len(stack) - 1; i >= 0; i-- {
		p = RotateEuler(stack[i].Rotation, p)
		p = r3.Add(p, stack[i].Translation)
	}
	return p
}

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// RotateEuler rotates p by Euler angles in degrees, X then Y then Z.
func RotateEuler(deg r3.Vec, p r3.Vec) r3.Vec {
	if deg.X != 0 {
		p = r3.NewRotation(deg.X*math.Pi/180, axisX).Rotate(p)
	}
	if deg.Y != 0 {
		p = r3.NewRotation(deg.Y*math.Pi/180, axisY).Rotate(p)
	}
	if deg.Z != 0 {
		p = r3.NewRotation(deg.Z*math.Pi/180, axisZ).Rotate(p)
	}
	return p
}
