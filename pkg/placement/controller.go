package placement

import (
	"github.com/chazu/vesselkit/pkg/attach"
	"github.com/chazu/vesselkit/pkg/vessel"
	"gonum.org/v1/gonum/spatial/r3"
)

// DragSession exists only while a pointer is held on an attachment.
type DragSession struct {
	AttachmentID string
	Mount        attach.Mount
	Shape        vessel.Shape
	// Face is fixed for the whole gesture on rectangular vessels.
	Face         Face
	LastPointerX float64
	LastPointerY float64
	Origin       r3.Vec
	Current      r3.Vec
	Rotation     r3.Vec
}

// Pose is the per-frame state of one attachment.
type Pose struct {
	ID       string      `json:"id" msgpack:"id"`
	Type     attach.Type `json:"type" msgpack:"type"`
	Size     attach.Size `json:"size" msgpack:"size"`
	Position r3.Vec      `json:"position" msgpack:"position"`
	Rotation r3.Vec      `json:"rotation" msgpack:"rotation"`
	Moved    bool        `json:"moved" msgpack:"moved"`
}

// Frame is what the scene composer reads every animation frame.
type Frame struct {
	Attachments  []Pose `json:"attachments" msgpack:"attachments"`
	Dragging     bool   `json:"dragging" msgpack:"dragging"`
	OrbitEnabled bool   `json:"orbitEnabled" msgpack:"orbitEnabled"`
}

// Controller is the drag state machine: Idle when session is nil, Engaged
// otherwise. It is not safe for concurrent use; callers drive it from a
// single event loop.
type Controller struct {
	arena   *Arena
	env     vessel.Envelope
	pending *vessel.Envelope
	tune    Tuning
	session *DragSession

	listeners []func(dragging bool)
}

// NewController returns an idle controller over arena.
func NewController(arena *Arena, env vessel.Envelope, tune Tuning) *Controller {
	return &Controller{arena: arena, env: env, tune: tune.orDefault()}
}

// Tuning returns the active tuning.
func (c *Controller) Tuning() Tuning {
	return c.tune
}

// Envelope returns the envelope drags are projected against.
func (c *Controller) Envelope() vessel.Envelope {
	return c.env
}

// SetEnvelope replaces the envelope. While a drag is engaged the new
// envelope is held back until the gesture ends so a recompute never lands
// in the middle of an update.
func (c *Controller) SetEnvelope(env vessel.Envelope) {
	if c.session != nil {
		c.pending = &env
		return
	}
	c.env = env
}

// OnDragChange registers fn to be told when dragging starts and stops. The
// scene composer uses it to suspend camera orbit.
func (c *Controller) OnDragChange(fn func(dragging bool)) {
	c.listeners = append(c.listeners, fn)
}

// Dragging reports whether a drag session is engaged.
func (c *Controller) Dragging() bool {
	return c.session != nil
}

// OrbitEnabled reports whether outer camera controls may run.
func (c *Controller) OrbitEnabled() bool {
	return c.session == nil
}

// Session returns a copy of the active drag session.
func (c *Controller) Session() (DragSession, bool) {
	if c.session == nil {
		return DragSession{}, false
	}
	return *c.session, true
}

// PointerDown engages a drag on id. It returns false, leaving the controller
// unchanged, if a drag is already engaged, the id is unknown, its type is not
// in the table, or the type cannot be dragged.
func (c *Controller) PointerDown(id string, x, y float64) bool {
	if c.session != nil {
		return false
	}
	in, ok := c.arena.Get(id)
	if !ok {
		return false
	}
	info, ok := attach.Lookup(in.Type)
	if !ok || info.Mount == attach.MountFixed {
		return false
	}
	s := &DragSession{
		AttachmentID: id,
		Mount:        info.Mount,
		Shape:        c.env.Shape,
		LastPointerX: x,
		LastPointerY: y,
		Origin:       in.Position,
		Current:      in.Position,
		Rotation:     in.Rotation,
	}
	if s.Mount == attach.MountSide && s.Shape == vessel.Rectangular {
		s.Face = NearestFace(c.env, in.Position)
	}
	c.session = s
	c.notify(true)
	return true
}

// PointerMove applies the delta since the previous pointer sample and
// returns the projected position. It returns false when idle.
func (c *Controller) PointerMove(x, y float64) (r3.Vec, bool) {
	s := c.session
	if s == nil {
		return r3.Vec{}, false
	}
	dx, dy := x-s.LastPointerX, y-s.LastPointerY
	if !finiteF(dx) || !finiteF(dy) {
		return s.Current, true
	}
	s.LastPointerX, s.LastPointerY = x, y

	switch s.Mount {
	case attach.MountTop:
		if p, ok := SlideTop(c.env, c.tune, s.Current, dx, dy); ok {
			s.Current = p
		}
	case attach.MountSide:
		if s.Shape == vessel.Rectangular {
			if p, rot, ok := Slide(c.env, c.tune, s.Face, s.Current, dx, dy); ok {
				s.Current, s.Rotation = p, rot
			}
		} else if p, rot, ok := Orbit(c.env, c.tune, s.Current, dx, dy); ok {
			s.Current, s.Rotation = p, rot
		}
	}
	return s.Current, true
}

// PointerUp commits the last projected position, ends the session and
// re-enables orbit controls. It is safe to call when idle.
func (c *Controller) PointerUp() (attach.Instance, bool) {
	s := c.session
	if s == nil {
		return attach.Instance{}, false
	}
	c.arena.commit(s.AttachmentID, s.Current, s.Rotation)
	c.session = nil
	if c.pending != nil {
		c.env = *c.pending
		c.pending = nil
	}
	c.notify(false)
	return c.arena.Get(s.AttachmentID)
}

// Release ends any engaged drag as if the pointer had been released. It is
// wired to global pointer-up and focus-loss events.
func (c *Controller) Release() {
	c.PointerUp()
}

// Place moves id directly to p, clamped into the staging bounds. Ignored
// while a drag is engaged.
func (c *Controller) Place(id string, p r3.Vec) (attach.Instance, bool) {
	if c.session != nil {
		return attach.Instance{}, false
	}
	in, ok := c.arena.Get(id)
	if !ok || !in.Type.Known() || !finite(p) {
		return attach.Instance{}, false
	}
	p = Clamp(c.env, c.tune, p)
	c.arena.commit(id, p, in.Rotation)
	return c.arena.Get(id)
}

// Reset returns id to its default slot. Ignored while a drag is engaged.
func (c *Controller) Reset(id string) bool {
	if c.session != nil {
		return false
	}
	return c.arena.reset(id)
}

// Frame returns the pose of every attachment, with the in-flight position
// of the dragged one.
func (c *Controller) Frame() Frame {
	all := c.arena.All()
	f := Frame{
		Attachments:  make([]Pose, 0, len(all)),
		Dragging:     c.session != nil,
		OrbitEnabled: c.session == nil,
	}
	for _, in := range all {
		p := Pose{
			ID:       in.ID,
			Type:     in.Type,
			Size:     in.Size,
			Position: in.Position,
			Rotation: in.Rotation,
			Moved:    c.arena.Moved(in.ID),
		}
		if c.session != nil && c.session.AttachmentID == in.ID {
			p.Position = c.session.Current
			p.Rotation = c.session.Rotation
		}
		f.Attachments = append(f.Attachments, p)
	}
	return f
}

func (c *Controller) notify(dragging bool) {
	for _, fn := range c.listeners {
		fn(dragging)
	}
}
