// Package session ties the configurator together. A Session owns the current
// spec, its envelope and solids, the attachment arena and the placement
// controller, and recomputes everything downstream when an input changes.
//
// A Session is single-threaded. Transports that serve concurrent callers go
// through a Manager, which serialises access per session.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/engine"
	"github.com/chazu/vesselkit/pkg/kernel"
	"github.com/chazu/vesselkit/pkg/placement"
	"github.com/chazu/vesselkit/pkg/scene"
	"github.com/chazu/vesselkit/pkg/tessellate"
	"github.com/chazu/vesselkit/pkg/vessel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrUnknownAttachment is returned for ids not in the current layout.
	ErrUnknownAttachment = errors.New("unknown attachment")
	// ErrDragging is returned by direct edits while a drag is engaged.
	ErrDragging = errors.New("attachment drag in progress")
	// ErrExportUnsupported is returned when the kernel cannot write STL.
	ErrExportUnsupported = errors.New("kernel does not support STL export")
)

// Options configure a new Session. Zero values select defaults.
type Options struct {
	Limits vessel.Limits
	Tuning placement.Tuning
	Logger zerolog.Logger
}

// Session is one configurator instance.
type Session struct {
	ID        string
	CreatedAt time.Time

	limits    vessel.Limits
	spec      vessel.Spec
	env       vessel.Envelope
	solids    vessel.Solids
	selection []attach.Selection

	arena *placement.Arena
	ctrl  *placement.Controller
	log   zerolog.Logger
}

// New creates a session showing the default vessel with no attachments.
func New(opts Options) *Session {
	if opts.Limits == (vessel.Limits{}) {
		opts.Limits = vessel.DefaultLimits()
	}
	id := uuid.New().String()
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		limits:    opts.Limits,
		arena:     placement.NewArena(),
		log:       opts.Logger.With().Str("session", id[:8]).Logger(),
	}
	s.spec, _ = vessel.ClampSpec(vessel.DefaultSpec(), s.limits)
	s.env = vessel.ResolveWithLimits(s.spec, s.limits)
	s.solids = vessel.Build(s.spec, s.env)
	s.ctrl = placement.NewController(s.arena, s.env, opts.Tuning)
	s.ctrl.OnDragChange(func(dragging bool) {
		s.log.Debug().Bool("dragging", dragging).Msg("drag state changed")
	})
	return s
}

// Spec returns the current (clamped) spec.
func (s *Session) Spec() vessel.Spec { return s.spec }

// Envelope returns the envelope derived from the current spec.
func (s *Session) Envelope() vessel.Envelope { return s.env }

// Solids returns the vessel solids for the current spec.
func (s *Session) Solids() vessel.Solids { return s.solids }

// Selection returns a copy of the enabled attachments.
func (s *Session) Selection() []attach.Selection {
	return append([]attach.Selection(nil), s.selection...)
}

// Tuning returns the drag tuning in effect.
func (s *Session) Tuning() placement.Tuning { return s.ctrl.Tuning() }

// Apply replaces the spec. Out-of-range values are clamped and the names of
// the corrected fields returned. Attachments the user has moved keep their
// positions; the rest follow the new default layout.
func (s *Session) Apply(spec vessel.Spec) []string {
	spec, clamped := vessel.ClampSpec(spec, s.limits)
	if len(clamped) > 0 {
		s.log.Warn().Strs("fields", clamped).Msg("spec values clamped into range")
	}
	s.spec = spec
	s.env = vessel.ResolveWithLimits(spec, s.limits)
	s.solids = vessel.Build(spec, s.env)
	s.ctrl.SetEnvelope(s.env)
	s.relayout()
	s.log.Info().
		Str("shape", spec.Shape.String()).
		Str("orientation", spec.Orientation.String()).
		Float64("radius_m", s.env.Radius).
		Float64("center_y_m", s.env.CenterY).
		Msg("spec applied")
	return clamped
}

// Select replaces the attachment selection. Unknown types are dropped.
func (s *Session) Select(sel []attach.Selection) {
	kept := make([]attach.Selection, 0, len(sel))
	for _, x := range sel {
		if !x.Type.Known() {
			s.log.Warn().Int("type", int(x.Type)).Msg("skipping unknown attachment type")
			continue
		}
		kept = append(kept, x)
	}
	s.selection = kept
	s.relayout()
}

func (s *Session) relayout() {
	added, removed := s.arena.Sync(attach.Layout(s.env, s.selection))
	s.log.Debug().
		Int("attachments", s.arena.Len()).
		Strs("added", added).
		Strs("removed", removed).
		Msg("layout synced")
}

// ApplyDesign loads an evaluated script: its vessel (if it defines one), its
// selection and then its placements. A placement naming an id outside the
// selection fails with ErrUnknownAttachment after the rest is applied.
func (s *Session) ApplyDesign(d *engine.Design) error {
	if d == nil {
		return nil
	}
	if d.HasVessel {
		s.Apply(d.Spec)
	}
	s.Select(d.Selection)
	for _, w := range d.Warnings {
		s.log.Warn().Msg(w.Message)
	}
	var errs []error
	for _, p := range d.Placements {
		if _, err := s.Place(p.ID, p.Position); err != nil {
			errs = append(errs, fmt.Errorf("place %q: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// PointerDown starts dragging id. It reports whether a drag was engaged.
func (s *Session) PointerDown(id string, x, y float64) bool {
	ok := s.ctrl.PointerDown(id, x, y)
	if ok {
		s.log.Debug().Str("id", id).Msg("drag engaged")
	}
	return ok
}

// PointerMove feeds a pointer sample to the active drag.
func (s *Session) PointerMove(x, y float64) (r3.Vec, bool) {
	return s.ctrl.PointerMove(x, y)
}

// PointerUp commits the active drag.
func (s *Session) PointerUp() (attach.Instance, bool) {
	in, ok := s.ctrl.PointerUp()
	if ok {
		s.log.Info().Str("id", in.ID).
			Float64("x", in.Position.X).Float64("y", in.Position.Y).Float64("z", in.Position.Z).
			Msg("attachment placed")
	}
	return in, ok
}

// Release ends any drag, as on a global pointer-up or focus loss.
func (s *Session) Release() { s.PointerUp() }

// Dragging reports whether a drag is engaged.
func (s *Session) Dragging() bool { return s.ctrl.Dragging() }

// OnDragChange registers fn for drag start and end.
func (s *Session) OnDragChange(fn func(dragging bool)) { s.ctrl.OnDragChange(fn) }

// Place moves id to a world position, clamped into the staging bounds.
func (s *Session) Place(id string, p r3.Vec) (attach.Instance, error) {
	if s.ctrl.Dragging() {
		return attach.Instance{}, ErrDragging
	}
	if _, ok := s.arena.Get(id); !ok {
		return attach.Instance{}, fmt.Errorf("%w: %s", ErrUnknownAttachment, id)
	}
	in, ok := s.ctrl.Place(id, p)
	if !ok {
		return attach.Instance{}, fmt.Errorf("cannot place %s at %v", id, p)
	}
	return in, nil
}

// Reset returns id to its default slot.
func (s *Session) Reset(id string) error {
	if s.ctrl.Dragging() {
		return ErrDragging
	}
	if !s.ctrl.Reset(id) {
		return fmt.Errorf("%w: %s", ErrUnknownAttachment, id)
	}
	return nil
}

// Attachment returns the committed instance for id.
func (s *Session) Attachment(id string) (attach.Instance, bool) {
	return s.arena.Get(id)
}

// Frame returns the per-frame attachment poses and drag flags.
func (s *Session) Frame() placement.Frame {
	return s.ctrl.Frame()
}

// Scene composes the vessel and the attachments as they appear this frame.
func (s *Session) Scene() *scene.Scene {
	f := s.ctrl.Frame()
	parts := make([]vessel.Solid, 0, len(f.Attachments))
	for _, p := range f.Attachments {
		in := attach.Instance{ID: p.ID, Type: p.Type, Size: p.Size, Position: p.Position, Rotation: p.Rotation}
		if sol, ok := in.Geometry(s.env); ok {
			parts = append(parts, sol)
		}
	}
	return scene.Compose(s.solids, parts)
}

// Describe returns a flat description of the current scene.
func (s *Session) Describe() []scene.Descriptor {
	return scene.Describe(s.Scene())
}

// Meshes tessellates the current scene with k, one mesh per part.
func (s *Session) Meshes(k kernel.Kernel) ([]*kernel.Mesh, error) {
	start := time.Now()
	meshes, err := tessellate.Tessellate(s.Scene(), k)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	s.log.Debug().Str("kernel", k.Name()).Int("parts", len(meshes)).
		Dur("took", time.Since(start)).Msg("scene tessellated")
	return meshes, nil
}

// ExportSTL writes the whole scene as one STL file.
func (s *Session) ExportSTL(k kernel.Kernel, path string) error {
	exp, ok := k.(kernel.Exporter)
	if !ok {
		return fmt.Errorf("%s: %w", k.Name(), ErrExportUnsupported)
	}
	solid, err := tessellate.Solid(s.Scene(), k)
	if err != nil {
		return fmt.Errorf("build solid: %w", err)
	}
	if err := exp.WriteSTL(solid, path); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	s.log.Info().Str("path", path).Msg("stl exported")
	return nil
}
