// Package scene composes the vessel and its attachments into a scene graph:
// a DAG of groups, transforms and primitive solids that a renderer or a
// geometry kernel can walk. A Scene is rebuilt, never mutated, whenever the
// vessel or an attachment pose changes.
package scene

import (
	"fmt"

	"github.com/chazu/vesselkit/pkg/vessel"
)

// Well-known node names.
const (
	RootName        = "scene"
	VesselName      = "vessel"
	BodyFrameName   = "vessel/body-frame"
	AttachmentsName = "attachments"
)

// Scene is the composed scene graph.
type Scene struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the scene. It does not check for duplicates.
func (s *Scene) AddNode(n *Node) {
	s.Nodes[n.ID] = n
	if n.Name != "" {
		s.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the scene.
func (s *Scene) AddRoot(id NodeID) {
	s.Roots = append(s.Roots, id)
}

// Lookup returns the node with the given name, or nil.
func (s *Scene) Lookup(name string) *Node {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Nodes[id]
}

// Get returns the node with the given ID, or nil.
func (s *Scene) Get(id NodeID) *Node {
	return s.Nodes[id]
}

// Children returns the child nodes of the given node.
func (s *Scene) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := s.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (s *Scene) NodeCount() int {
	return len(s.Nodes)
}

// builder assembles nodes with path-derived IDs.
type builder struct {
	s *Scene
}

func (b builder) add(kind NodeKind, name string, data NodeData, children ...NodeID) NodeID {
	n := &Node{
		ID:       NewNodeID(name),
		Kind:     kind,
		Name:     name,
		Children: children,
		Data:     data,
	}
	b.s.AddNode(n)
	return n.ID
}

// part adds a primitive wrapped in the transform that places it.
func (b builder) part(prefix string, sol vessel.Solid) NodeID {
	name := prefix + "/" + sol.Name
	prim := b.add(NodePrimitive, name, PrimitiveData{
		Shape:  sol.Shape,
		Size:   sol.Size,
		Facing: sol.Facing,
		Color:  sol.Color,
	})
	return b.add(NodeTransform, name+"@", TransformData{
		Translation: sol.Position,
		Rotation:    sol.Rotation,
	}, prim)
}

// Compose builds the scene for a vessel and its attachments. Vessel solids
// are in the vessel-local frame; attachment solids are in the world frame.
func Compose(v vessel.Solids, attachments []vessel.Solid) *Scene {
	s := New()
	b := builder{s: s}

	var framed []NodeID
	framed = append(framed, b.part(VesselName, v.Body))
	for _, c := range v.Caps {
		framed = append(framed, b.part(VesselName, c))
	}
	bodyFrame := b.add(NodeTransform, BodyFrameName, TransformData{Rotation: v.BodyRotation}, framed...)

	local := []NodeID{bodyFrame}
	for _, l := range v.Legs {
		local = append(local, b.part(VesselName, l))
	}
	vesselNode := b.add(NodeTransform, VesselName, TransformData{Translation: v.Origin}, local...)

	var parts []NodeID
	for _, a := range attachments {
		parts = append(parts, b.part(AttachmentsName, a))
	}
	attachNode := b.add(NodeGroup, AttachmentsName, GroupData{Description: fmt.Sprintf("%d attachments", len(attachments))}, parts...)

	root := b.add(NodeGroup, RootName, GroupData{Description: "vessel assembly"}, vesselNode, attachNode)
	s.AddRoot(root)
	return s
}

// Part returns the primitive node for a vessel part or attachment name
// (for example "body", "leg-2" or "sensor-0"), or nil.
func (s *Scene) Part(name string) *Node {
	if n := s.Lookup(VesselName + "/" + name); n != nil {
		return n
	}
	return s.Lookup(AttachmentsName + "/" + name)
}
