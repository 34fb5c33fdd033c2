package core

// ComponentID addresses a component inside an Arena. IDs are allocated
// sequentially, never reused, and stay valid as map keys after the component
// is disposed (lookups simply miss).
type ComponentID uint64

// NoComponent is the sentinel for "unset". It never resolves.
const NoComponent ComponentID = 0

// IsNone reports whether the id is the unset sentinel.
func (id ComponentID) IsNone() bool {
	return id == NoComponent
}

// Arena owns every live component of one runtime tree and resolves ids to
// instances. All structural mutation goes through component lifecycle
// methods; the arena itself is a lookup table plus a name index.
//
// Arena is not safe for concurrent use. The runtime confines it to the
// update thread.
type Arena struct {
	nextID   ComponentID
	nodes    map[ComponentID]*Component
	byName   map[string]map[ComponentID]struct{}
	released []func(ComponentID)
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		nextID: 1,
		nodes:  make(map[ComponentID]*Component),
		byName: make(map[string]map[ComponentID]struct{}),
	}
}

// Get resolves an id to a live component. Returns nil for NoComponent,
// unknown ids, and disposed components.
func (a *Arena) Get(id ComponentID) *Component {
	if id.IsNone() {
		return nil
	}
	return a.nodes[id]
}

// Len returns the number of live components.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// FindByName returns the live components currently carrying the given name,
// in arbitrary order. Names are not unique.
func (a *Arena) FindByName(name string) []*Component {
	set := a.byName[name]
	if len(set) == 0 {
		return nil
	}
	found := make([]*Component, 0, len(set))
	for id := range set {
		if c := a.nodes[id]; c != nil {
			found = append(found, c)
		}
	}
	return found
}

// FirstByName returns one live component with the given name, preferring the
// lowest id so repeated lookups are deterministic.
func (a *Arena) FirstByName(name string) *Component {
	var best *Component
	for id := range a.byName[name] {
		c := a.nodes[id]
		if c == nil {
			continue
		}
		if best == nil || c.id < best.id {
			best = c
		}
	}
	return best
}

// register allocates an id for a new component and indexes it.
func (a *Arena) register(c *Component) ComponentID {
	id := a.nextID
	a.nextID++
	a.nodes[id] = c
	a.indexName(id, c.name)
	return id
}

// OnRelease registers a hook invoked with each component id as the
// component leaves the arena, after lookups already miss. Subsystems
// holding per-component state keyed by id (the event bus, for one) use it
// to drop that state on disposal.
func (a *Arena) OnRelease(fn func(ComponentID)) {
	if fn != nil {
		a.released = append(a.released, fn)
	}
}

// release drops a disposed component from the arena.
func (a *Arena) release(c *Component) {
	a.unindexName(c.id, c.name)
	delete(a.nodes, c.id)
	for _, fn := range a.released {
		fn(c.id)
	}
}

// rename keeps the name index consistent when a component's Name changes.
func (a *Arena) rename(id ComponentID, old, new string) {
	a.unindexName(id, old)
	a.indexName(id, new)
}

func (a *Arena) indexName(id ComponentID, name string) {
	if name == "" {
		return
	}
	set := a.byName[name]
	if set == nil {
		set = make(map[ComponentID]struct{})
		a.byName[name] = set
	}
	set[id] = struct{}{}
}

func (a *Arena) unindexName(id ComponentID, name string) {
	if name == "" {
		return
	}
	set := a.byName[name]
	delete(set, id)
	if len(set) == 0 {
		delete(a.byName, name)
	}
}
