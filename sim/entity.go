package sim

import (
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"
)

// EntityID addresses a node of the tree within its Architecture.
// The Producer is always 0.
type EntityID int

// NoEntity is the parent of the Producer and of detached entities.
const NoEntity EntityID = -1

// EntityKind is the concrete variant of a tree node.
type EntityKind string

const (
	KindProducer  EntityKind = "producer"
	KindScheduler EntityKind = "scheduler"
	KindConsumer  EntityKind = "consumer"
)

// Steppable is anything the driver advances once per tick.
type Steppable interface {
	ID() EntityID
	LocalStep() int64
	Step(tick *Tick)
	Reset()
	IsFinished() bool
}

// TaskSink accepts tasks from its parent.
type TaskSink interface {
	Submit(t *Task)
	WaitingTasks() []*Task
}

// ParentEntity is a node that may own children: the Producer or a Scheduler.
// Consumers satisfy it too, but Attach rejects them.
type ParentEntity interface {
	Steppable
	Kind() EntityKind
	Children() []ConsumingEntity
	node() *treeNode
}

// ConsumingEntity is a Scheduler or a Consumer. The set is closed: only
// types in this package can implement it.
type ConsumingEntity interface {
	ParentEntity
	TaskSink
	Parent() EntityID

	// UnitsPerStep is the work the entity can retire per step.
	UnitsPerStep() int
	// Utilisation is the fraction of capacity used over elapsed steps, in [0, 1].
	Utilisation() float64
	// Delay estimates how many steps of backlog are already queued.
	Delay() float64
}

// treeNode holds the state shared by every tree node. children owns the
// subtree; parent is a plain id resolved through the Architecture.
type treeNode struct {
	id        EntityID
	owner     *Architecture
	parent    EntityID
	children  []ConsumingEntity
	localStep int64
}

func (n *treeNode) node() *treeNode { return n }

// ID returns the entity's id.
func (n *treeNode) ID() EntityID { return n.id }

// Parent returns the id of the entity's parent, or NoEntity.
func (n *treeNode) Parent() EntityID { return n.parent }

// LocalStep returns how many times the entity has been stepped.
func (n *treeNode) LocalStep() int64 { return n.localStep }

// Children returns a copy of the entity's children in insertion order.
func (n *treeNode) Children() []ConsumingEntity {
	return slices.Clone(n.children)
}

func (n *treeNode) addChild(c ConsumingEntity) {
	n.children = append(n.children, c)
}

func (n *treeNode) removeChild(id EntityID) bool {
	i := n.childIndex(id)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	return true
}

func (n *treeNode) childIndex(id EntityID) int {
	return slices.IndexFunc(n.children, func(c ConsumingEntity) bool { return c.ID() == id })
}

// Tick is the per-step context handed to every Step call. It replaces any
// process-wide step counter: everything an entity needs about "now" comes
// from here.
type Tick struct {
	Step int64

	arch *Architecture
	sim  *Simulation
}

// Rand returns the architecture's stream for the named subsystem.
func (t *Tick) Rand(subsystem string) *rand.Rand {
	return t.arch.rng.ForSubsystem(subsystem)
}

// recordAssignment notifies observers and the dispatch trace that s handed
// task to child during this tick.
func (t *Tick) recordAssignment(s *Scheduler, task *Task, child ConsumingEntity) {
	toConsumer := child.Kind() == KindConsumer
	logrus.Debugf("[step %07d] scheduler %d (%s) -> %s %d: %v", t.Step, s.ID(), s.PolicyName(), child.Kind(), child.ID(), task)
	if t.sim == nil {
		return
	}
	t.sim.recordDispatch(Assignment{
		Step:        t.Step,
		SchedulerID: s.ID(),
		TargetID:    child.ID(),
		TaskID:      task.ID,
		TaskUnits:   task.StartUnits,
		Policy:      s.PolicyName(),
		ToConsumer:  toConsumer,
	})
}
