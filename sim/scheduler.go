package sim

import (
	"fmt"
)

// Scheduler is an interior node that forwards every task it receives to one
// of its children, as chosen by its DispatchPolicy, within the same step.
type Scheduler struct {
	treeNode
	policy  DispatchPolicy
	waiting TaskQueue
}

func newScheduler(id EntityID, owner *Architecture, policy DispatchPolicy) *Scheduler {
	return &Scheduler{
		treeNode: treeNode{id: id, owner: owner, parent: NoEntity},
		policy:   policy,
	}
}

// Kind returns KindScheduler.
func (s *Scheduler) Kind() EntityKind { return KindScheduler }

// PolicyName returns the name of the scheduler's dispatch policy.
func (s *Scheduler) PolicyName() string { return s.policy.Name() }

// Submit appends t to the waiting queue.
func (s *Scheduler) Submit(t *Task) {
	s.waiting.Enqueue(t)
}

// WaitingTasks returns the tasks not yet dispatched.
func (s *Scheduler) WaitingTasks() []*Task {
	return s.waiting.Items()
}

// Step dispatches every waiting task to a child. A scheduler without
// children keeps its queue; Simulation.Run refuses to start in that state.
func (s *Scheduler) Step(tick *Tick) {
	s.localStep++
	if len(s.children) == 0 || s.waiting.Len() == 0 {
		return
	}
	s.policy.Dispatch(&Dispatch{
		Queue:    &s.waiting,
		Children: s.children,
		Rand:     tick.Rand(SubsystemPolicy(s.id)),
		assign: func(task *Task, child ConsumingEntity) {
			child.Submit(task)
			tick.recordAssignment(s, task, child)
		},
	})
	if s.waiting.Len() != 0 {
		panic(fmt.Sprintf("scheduler %d: policy %s left %d tasks queued", s.id, s.policy.Name(), s.waiting.Len()))
	}
}

// IsFinished reports whether nothing is queued here or anywhere below.
func (s *Scheduler) IsFinished() bool {
	if s.waiting.Len() > 0 {
		return false
	}
	for _, c := range s.children {
		if !c.IsFinished() {
			return false
		}
	}
	return true
}

// UnitsPerStep is the combined capacity of the children.
func (s *Scheduler) UnitsPerStep() int {
	total := 0
	for _, c := range s.children {
		total += c.UnitsPerStep()
	}
	return total
}

// Utilisation is the unweighted mean utilisation of the children.
func (s *Scheduler) Utilisation() float64 {
	if len(s.children) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s.children {
		sum += c.Utilisation()
	}
	return sum / float64(len(s.children))
}

// Delay is the smallest backlog among the children: how soon this subtree
// could start on new work.
func (s *Scheduler) Delay() float64 {
	if len(s.children) == 0 {
		return 0
	}
	shortest := s.children[0].Delay()
	for _, c := range s.children[1:] {
		shortest = min(shortest, c.Delay())
	}
	return shortest
}

// Reset clears the queue, the step counter and the policy state.
func (s *Scheduler) Reset() {
	s.localStep = 0
	s.waiting.Clear()
	s.policy.Reset()
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("Scheduler(%d, %s)", s.id, s.policy.Name())
}
