package scene

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ValidationSeverity indicates whether a validation finding blocks meshing
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks meshing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs the structural and geometric checks and returns every
// finding, errors first. This function is read-only.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(s)...)
	errs = append(errs, validateReferences(s)...)
	errs = append(errs, validateRoots(s)...)
	errs = append(errs, validateKinds(s)...)
	errs = append(errs, validateDimensions(s)...)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Severity < errs[j].Severity })
	return errs
}

// HasErrors reports whether any finding is blocking.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// sortedIDs gives map iteration a stable order so findings are reproducible.
func sortedIDs(s *Scene) []NodeID {
	ids := make([]NodeID, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(s *Scene) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := s.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range sortedIDs(s) {
		if color[id] == white && visit(id) {
			// One cycle error is sufficient.
			break
		}
	}
	return errs
}

// validateReferences checks that every child ID points to an existing node.
func validateReferences(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(s) {
		for _, childID := range s.Nodes[id].Children {
			if _, ok := s.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateRoots checks that the scene has roots and that they exist.
func validateRoots(s *Scene) []ValidationError {
	if len(s.Roots) == 0 {
		return []ValidationError{{Message: "scene has no roots", Severity: SeverityWarning}}
	}
	var errs []ValidationError
	for _, id := range s.Roots {
		if _, ok := s.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "root does not exist",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateKinds checks that node data matches the node kind and that
// primitives are leaves.
func validateKinds(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(s) {
		n := s.Nodes[id]
		ok := true
		switch n.Kind {
		case NodePrimitive:
			_, ok = n.Data.(PrimitiveData)
			if len(n.Children) > 0 {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  "primitive has children",
					Severity: SeverityError,
				})
			}
		case NodeTransform:
			_, ok = n.Data.(TransformData)
		case NodeGroup:
			_, ok = n.Data.(GroupData)
		default:
			ok = false
		}
		if !ok {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s node carries %T", n.Kind, n.Data),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateDimensions checks that primitive sizes are positive and finite
// and that transforms are finite.
func validateDimensions(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(s) {
		switch d := s.Nodes[id].Data.(type) {
		case PrimitiveData:
			for i, v := range []float64{d.Size.X, d.Size.Y, d.Size.Z} {
				if !(v > 0) || math.IsInf(v, 0) {
					errs = append(errs, ValidationError{
						NodeID:   id,
						Message:  fmt.Sprintf("size %c is %.4f, must be positive and finite", "XYZ"[i], v),
						Severity: SeverityError,
					})
				}
			}
		case TransformData:
			if !finite(d.Translation) || !finite(d.Rotation) {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  "transform is not finite",
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
