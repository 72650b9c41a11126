// Package tessellate walks a scene graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per part.
package tessellate

import (
	"errors"
	"fmt"
	"path"

	"github.com/chazu/vesselkit/pkg/kernel"
	"github.com/chazu/vesselkit/pkg/scene"
	"github.com/chazu/vesselkit/pkg/vessel"
)

// ErrEmptyScene is returned by Solid when the scene has no parts.
var ErrEmptyScene = errors.New("tessellate: scene has no parts")

// transformStack accumulates transforms during traversal. Transforms are
// applied to a leaf innermost first.
type transformStack []scene.TransformData

func (ts transformStack) push(t scene.TransformData) transformStack {
	return append(ts[:len(ts):len(ts)], t)
}

// place applies every transform on the stack to s.
func (ts transformStack) place(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts) - 1; i >= 0; i-- {
		t := ts[i]
		if r := t.Rotation; r.X != 0 || r.Y != 0 || r.Z != 0 {
			s = k.Rotate(s, r.X, r.Y, r.Z)
		}
		if v := t.Translation; v.X != 0 || v.Y != 0 || v.Z != 0 {
			s = k.Translate(s, v.X, v.Y, v.Z)
		}
	}
	return s
}

// part is a placed solid ready for meshing.
type part struct {
	node  *scene.Node
	data  scene.PrimitiveData
	solid kernel.Solid
}

// collect walks the scene and builds a placed solid for every primitive.
func collect(s *scene.Scene, k kernel.Kernel) ([]part, error) {
	if s == nil {
		return nil, nil
	}
	if errs := scene.Validate(s); scene.HasErrors(errs) {
		return nil, fmt.Errorf("tessellate: invalid scene: %w", errs[0])
	}

	var parts []part
	var walk func(n *scene.Node, ts transformStack) error
	walk = func(n *scene.Node, ts transformStack) error {
		switch n.Kind {
		case scene.NodePrimitive:
			data := n.Data.(scene.PrimitiveData)
			sol, err := Primitive(k, data)
			if err != nil {
				return fmt.Errorf("node %s: %w", n.ID.Short(), err)
			}
			parts = append(parts, part{node: n, data: data, solid: ts.place(k, sol)})
			return nil
		case scene.NodeTransform:
			ts = ts.push(n.Data.(scene.TransformData))
		case scene.NodeGroup:
		default:
			return fmt.Errorf("unknown node kind: %v", n.Kind)
		}
		for _, c := range s.Children(n) {
			if err := walk(c, ts); err != nil {
				return err
			}
		}
		return nil
	}

	for _, id := range s.Roots {
		root := s.Get(id)
		if root == nil {
			continue
		}
		if err := walk(root, nil); err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", id.Short(), err)
		}
	}
	return parts, nil
}

// Tessellate walks the scene and produces one triangle mesh per primitive
// part using the provided geometry kernel. The tessellator is read-only and
// never mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	parts, err := collect(s, k)
	if err != nil {
		return nil, err
	}
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		mesh, err := k.ToMesh(p.solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for node %s: %w", p.node.ID.Short(), err)
		}
		mesh.PartName = PartName(p.node)
		mesh.Color = p.data.Color
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Solid unions every part of the scene into a single solid, for export.
func Solid(s *scene.Scene, k kernel.Kernel) (kernel.Solid, error) {
	parts, err := collect(s, k)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, ErrEmptyScene
	}
	out := parts[0].solid
	for _, p := range parts[1:] {
		out = k.Union(out, p.solid)
	}
	return out, nil
}

// PartName returns the display name of a part node: the last element of
// its scene path, or the short ID when unnamed.
func PartName(n *scene.Node) string {
	if n.Name == "" {
		return n.ID.Short()
	}
	return path.Base(n.Name)
}

// Primitive builds a solid centred on its bounding box for d.
func Primitive(k kernel.Kernel, d scene.PrimitiveData) (kernel.Solid, error) {
	x, y, z := d.Size.X, d.Size.Y, d.Size.Z
	switch d.Shape {
	case vessel.ShapeBox:
		return k.Box(x, y, z), nil
	case vessel.ShapeCylinder:
		return k.Cylinder(y, x/2), nil
	case vessel.ShapeCone:
		// Apex toward Facing.
		if d.Facing < 0 {
			return k.Cone(y, 0, x/2), nil
		}
		return k.Cone(y, x/2, 0), nil
	case vessel.ShapeHemisphere:
		// The kernel hemisphere rests on y=0; re-centre on its box, flat
		// face away from Facing.
		h := k.Hemisphere(x / 2)
		if d.Facing < 0 {
			h = k.Rotate(h, 180, 0, 0)
			return k.Translate(h, 0, y/2, 0), nil
		}
		return k.Translate(h, 0, -y/2, 0), nil
	}
	return nil, fmt.Errorf("unsupported shape %v", d.Shape)
}
