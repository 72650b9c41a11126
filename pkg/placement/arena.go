package placement

import (
	"github.com/chazu/vesselkit/pkg/attach"
	"gonum.org/v1/gonum/spatial/r3"
)

type entry struct {
	current attach.Instance
	def     attach.Instance
	moved   bool
}

// Arena is the id-addressed store of attachment instances for one
// configurator session. Positions are written only by Sync (for defaults)
// and by the Controller.
type Arena struct {
	items map[string]*entry
	order []string
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{items: make(map[string]*entry)}
}

// Sync reconciles the arena with a freshly computed default layout. New ids
// are added at their default slot, ids missing from defaults are dropped,
// and ids that were moved by the user keep their position. Instances still
// at their default follow the new default.
func (a *Arena) Sync(defaults []attach.Instance) (added, removed []string) {
	keep := make(map[string]bool, len(defaults))
	order := make([]string, 0, len(defaults))
	for _, d := range defaults {
		keep[d.ID] = true
		order = append(order, d.ID)

		e, ok := a.items[d.ID]
		if !ok {
			a.items[d.ID] = &entry{current: d, def: d}
			added = append(added, d.ID)
			continue
		}
		e.def = d
		e.current.Size = d.Size
		if !e.moved {
			e.current = d
		}
	}
	for _, id := range a.order {
		if !keep[id] {
			delete(a.items, id)
			removed = append(removed, id)
		}
	}
	a.order = order
	return added, removed
}

// Get returns the instance with the given id.
func (a *Arena) Get(id string) (attach.Instance, bool) {
	e, ok := a.items[id]
	if !ok {
		return attach.Instance{}, false
	}
	return e.current, true
}

// Default returns the default slot of the given id.
func (a *Arena) Default(id string) (attach.Instance, bool) {
	e, ok := a.items[id]
	if !ok {
		return attach.Instance{}, false
	}
	return e.def, true
}

// Moved reports whether the id has been placed away from its default.
func (a *Arena) Moved(id string) bool {
	e, ok := a.items[id]
	return ok && e.moved
}

// All returns every instance in layout order.
func (a *Arena) All() []attach.Instance {
	out := make([]attach.Instance, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.items[id].current)
	}
	return out
}

// Len returns the number of instances.
func (a *Arena) Len() int {
	return len(a.order)
}

func (a *Arena) commit(id string, pos, rot r3.Vec) bool {
	e, ok := a.items[id]
	if !ok {
		return false
	}
	e.current.Position = pos
	e.current.Rotation = rot
	e.moved = pos != e.def.Position || rot != e.def.Rotation
	return true
}

func (a *Arena) reset(id string) bool {
	e, ok := a.items[id]
	if !ok {
		return false
	}
	e.current = e.def
	e.moved = false
	return true
}
