package sim

import (
	"errors"
	"fmt"
)

// Tree misconfiguration. Returned wrapped in a *TreeError by Attach and
// Detach; test with errors.Is. The tree is left unchanged when one of these
// is returned.
var (
	ErrUnregisteredParent = errors.New("parent is not registered in the architecture")
	ErrUnregisteredChild  = errors.New("child is not registered in the architecture")
	ErrNotChild           = errors.New("child is not attached to this parent")
	ErrLeafParent         = errors.New("consumers cannot have children")
	ErrCycle              = errors.New("attaching would create a cycle")
	ErrProducerOccupied   = errors.New("producer already has a root child")
	ErrForeignEntity      = errors.New("entity belongs to a different architecture")
)

// Run preconditions checked by Simulation.Run before the first tick.
var (
	ErrNoRoot         = errors.New("producer has waves but no root child")
	ErrEmptyScheduler = errors.New("scheduler has no children")
	ErrAlreadyRan     = errors.New("simulation has already run")
	ErrHorizonReached = errors.New("step horizon reached before the tree drained")
)

// TreeError reports a rejected Attach or Detach call.
type TreeError struct {
	Op       string // "attach" or "detach"
	Kind     error
	ParentID EntityID
	ChildID  EntityID
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("%s(parent=%d, child=%d): %v", e.Op, e.ParentID, e.ChildID, e.Kind)
}

func (e *TreeError) Unwrap() error {
	return e.Kind
}

// StepDesyncError reports an entity that was stepped a different number of
// times than the simulation ticked. It indicates a traversal defect.
type StepDesyncError struct {
	EntityID   EntityID
	LocalStep  int64
	GlobalStep int64
}

func (e *StepDesyncError) Error() string {
	return fmt.Sprintf("entity %d is at step %d but the simulation is at step %d", e.EntityID, e.LocalStep, e.GlobalStep)
}

// TaskCountError reports that consumers completed a different number of tasks
// than the Producer submitted. It indicates a queue-management defect.
type TaskCountError struct {
	Submitted int
	Completed int
}

func (e *TaskCountError) Error() string {
	return fmt.Sprintf("task count mismatch: %d submitted, %d completed", e.Submitted, e.Completed)
}

// GeneratorConfigError reports workload generator parameters that cannot
// produce a finite wave.
type GeneratorConfigError struct {
	Generator string
	Reason    string
}

func (e *GeneratorConfigError) Error() string {
	return fmt.Sprintf("generator %s: %s", e.Generator, e.Reason)
}
