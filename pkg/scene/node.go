package scene

import (
	"github.com/chazu/vesselkit/pkg/vessel"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// namespace seeds deterministic node IDs so the same scene path always maps
// to the same ID across recompositions.
var namespace = uuid.MustParse("6c1f3b8e-2d4a-5e7b-9c0d-1a2b3c4d5e6f")

// NodeID identifies a scene node. IDs are derived from the node's path.
type NodeID string

// NewNodeID returns the deterministic ID for a scene path.
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)).String())
}

// Short returns the first eight characters of the ID, for messages.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool {
	return id == ""
}

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // leaf solid (body, cap, leg, attachment)
	NodeTransform                 // translation and rotation of its children
	NodeGroup                     // logical grouping (vessel, attachments)
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

func (k NodeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// PrimitiveData is a solid centred on its local origin. Size is the
// bounding box before any rotation.
type PrimitiveData struct {
	Shape  vessel.ShapeKind `json:"shape"`
	Size   r3.Vec           `json:"size"`
	Facing int              `json:"facing,omitempty"` // caps: +1 top, -1 bottom
	Color  string           `json:"color"`
}

func (PrimitiveData) nodeData() {}

// TransformData places its children: rotation (Euler degrees, X then Y
// then Z) is applied first, then translation.
type TransformData struct {
	Translation r3.Vec `json:"translation"`
	Rotation    r3.Vec `json:"rotation"`
}

func (TransformData) nodeData() {}

// IsIdentity reports whether the transform does nothing.
func (t TransformData) IsIdentity() bool {
	return t.Translation == (r3.Vec{}) && t.Rotation == (r3.Vec{})
}

// GroupData is a logical grouping with no geometry of its own.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
