package sim

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/sirupsen/logrus"
)

// Architecture is one configured tree: the Producer, every consuming entity
// attached below it, and the random source all of them draw from.
//
// Entities are created through the Architecture so their ids come from one
// arena. An entity becomes part of the tree only through Attach; the registry
// and the tree edges are changed together and never independently.
type Architecture struct {
	name     string
	producer *Producer
	// registry maps EntityID to ConsumingEntity in attach order.
	registry *linkedhashmap.Map
	// arena holds every entity created here, attached or not, so edges can
	// be resolved after their parent has been detached.
	arena  map[EntityID]ConsumingEntity
	nextID EntityID
	rng    *PartitionedRNG
}

// NewArchitecture creates an empty tree whose Producer is labelled
// producerName. seed drives every random choice made during runs.
func NewArchitecture(name, producerName string, seed int64) *Architecture {
	a := &Architecture{
		name:     name,
		registry: linkedhashmap.New(),
		arena:    make(map[EntityID]ConsumingEntity),
		nextID:   1,
		rng:      NewPartitionedRNG(NewSimulationKey(seed)),
	}
	a.producer = newProducer(a, producerName)
	return a
}

// Name returns the architecture's label used in result rows.
func (a *Architecture) Name() string { return a.name }

// Producer returns the tree root.
func (a *Architecture) Producer() *Producer { return a.producer }

// Seed returns the seed the architecture was created with.
func (a *Architecture) Seed() int64 { return int64(a.rng.Key()) }

// NewConsumer creates an unattached consumer with the given capacity.
func (a *Architecture) NewConsumer(unitsPerStep int) (*Consumer, error) {
	c, err := newConsumer(a.nextID, a, unitsPerStep)
	if err != nil {
		return nil, err
	}
	a.arena[c.ID()] = c
	a.nextID++
	return c, nil
}

// NewScheduler creates an unattached scheduler running the named policy.
func (a *Architecture) NewScheduler(policy string, opts ...PolicyOption) (*Scheduler, error) {
	p, err := NewPolicy(policy, opts...)
	if err != nil {
		return nil, err
	}
	s := newScheduler(a.nextID, a, p)
	a.arena[s.ID()] = s
	a.nextID++
	return s, nil
}

// Attach makes child the last child of parent and registers it.
// A child that already has a parent is moved. Nothing changes on error.
func (a *Architecture) Attach(parent ParentEntity, child ConsumingEntity) error {
	fail := func(kind error) error {
		return &TreeError{Op: "attach", Kind: kind, ParentID: parent.ID(), ChildID: child.ID()}
	}
	if parent.node().owner != a || child.node().owner != a {
		return fail(ErrForeignEntity)
	}
	if !a.isRegisteredParent(parent) {
		return fail(ErrUnregisteredParent)
	}
	if parent.Kind() == KindConsumer {
		return fail(ErrLeafParent)
	}
	if a.isAncestorOrSelf(child.ID(), parent) {
		return fail(ErrCycle)
	}
	if root := a.producer.root(); parent.Kind() == KindProducer && root != nil && root.ID() != child.ID() {
		return fail(ErrProducerOccupied)
	}

	if old := child.Parent(); old != NoEntity {
		if old == parent.ID() {
			return nil
		}
		if p, ok := a.parentByID(old); ok {
			p.node().removeChild(child.ID())
		}
		logrus.Debugf("architecture %s: moving entity %d from %d to %d", a.name, child.ID(), old, parent.ID())
	}
	parent.node().addChild(child)
	child.node().parent = parent.ID()
	a.registry.Put(child.ID(), child)
	return nil
}

// Detach removes child from parent and from the registry. Descendants of
// child stay attached to it but are no longer reachable from the Producer;
// the caller must detach or re-attach them before running.
func (a *Architecture) Detach(parent ParentEntity, child ConsumingEntity) error {
	fail := func(kind error) error {
		return &TreeError{Op: "detach", Kind: kind, ParentID: parent.ID(), ChildID: child.ID()}
	}
	if parent.node().owner != a || child.node().owner != a {
		return fail(ErrForeignEntity)
	}
	if !a.isRegisteredParent(parent) {
		return fail(ErrUnregisteredParent)
	}
	if !a.IsRegistered(child) {
		return fail(ErrUnregisteredChild)
	}
	if child.Parent() != parent.ID() {
		return fail(ErrNotChild)
	}
	parent.node().removeChild(child.ID())
	child.node().parent = NoEntity
	a.registry.Remove(child.ID())
	return nil
}

// IsRegistered reports whether e is currently attached to this architecture.
func (a *Architecture) IsRegistered(e ConsumingEntity) bool {
	if e == nil || e.node().owner != a {
		return false
	}
	_, ok := a.registry.Get(e.ID())
	return ok
}

func (a *Architecture) isRegisteredParent(p ParentEntity) bool {
	if p.Kind() == KindProducer {
		return p.node() == a.producer.node()
	}
	ce, ok := p.(ConsumingEntity)
	return ok && a.IsRegistered(ce)
}

// isAncestorOrSelf reports whether id is p or one of p's ancestors.
func (a *Architecture) isAncestorOrSelf(id EntityID, p ParentEntity) bool {
	cur := p.ID()
	for cur != NoEntity && cur != a.producer.ID() {
		if cur == id {
			return true
		}
		e, ok := a.arena[cur]
		if !ok {
			return false
		}
		cur = e.Parent()
	}
	return false
}

// parentByID resolves id among all entities of the arena, registered or not.
func (a *Architecture) parentByID(id EntityID) (ParentEntity, bool) {
	if id == a.producer.ID() {
		return a.producer, true
	}
	e, ok := a.arena[id]
	return e, ok
}

// Lookup returns the registered entity with the given id.
func (a *Architecture) Lookup(id EntityID) (ConsumingEntity, bool) {
	v, ok := a.registry.Get(id)
	if !ok {
		return nil, false
	}
	return v.(ConsumingEntity), true
}

// Entities returns every registered entity in attach order.
func (a *Architecture) Entities() []ConsumingEntity {
	values := a.registry.Values()
	out := make([]ConsumingEntity, len(values))
	for i, v := range values {
		out[i] = v.(ConsumingEntity)
	}
	return out
}

// Consumers returns the registered consumers in attach order.
func (a *Architecture) Consumers() []*Consumer {
	var out []*Consumer
	for _, e := range a.Entities() {
		if c, ok := e.(*Consumer); ok {
			out = append(out, c)
		}
	}
	return out
}

// Schedulers returns the registered schedulers in attach order.
func (a *Architecture) Schedulers() []*Scheduler {
	var out []*Scheduler
	for _, e := range a.Entities() {
		if s, ok := e.(*Scheduler); ok {
			out = append(out, s)
		}
	}
	return out
}

// ResetAll returns the Producer and every registered entity to their
// pre-run state and rewinds the random streams, so the next run over the
// same tree replays the previous one exactly.
func (a *Architecture) ResetAll() {
	a.producer.Reset()
	for _, e := range a.Entities() {
		e.Reset()
	}
	a.rng.Rewind()
}
