package sim

import (
	"cmp"
	"fmt"
	"slices"
)

// StepUnset marks a lifecycle timestamp that has not been reached yet.
const StepUnset int64 = -1

// Task is one unit of work flowing from the Producer to a Consumer.
//
// StartUnits never changes. RemainingUnits only decreases, reaching 0 on the
// step recorded in StepFinished. The three timestamps are each set once,
// in order: StepSubmitted <= StepProcessingStarted <= StepFinished.
type Task struct {
	ID             int64
	StartUnits     int
	RemainingUnits int

	StepSubmitted         int64
	StepProcessingStarted int64
	StepFinished          int64
}

// NewTask creates an unsubmitted task of the given size.
// The ID is assigned by the Producer when the task enters the tree.
func NewTask(size int) *Task {
	if size < 0 {
		panic(fmt.Sprintf("NewTask: size must be >= 0, got %d", size))
	}
	return &Task{
		StartUnits:            size,
		RemainingUnits:        size,
		StepSubmitted:         StepUnset,
		StepProcessingStarted: StepUnset,
		StepFinished:          StepUnset,
	}
}

// markSubmitted stamps the task with its id and submission step.
func (t *Task) markSubmitted(id int64, step int64) {
	if t.StepSubmitted != StepUnset {
		panic(fmt.Sprintf("task %d submitted twice (steps %d and %d)", t.ID, t.StepSubmitted, step))
	}
	t.ID = id
	t.StepSubmitted = step
}

// Consume retires up to units of work at the given step and returns how many
// units were actually taken. The first call stamps StepProcessingStarted; the
// call that brings RemainingUnits to 0 stamps StepFinished. A zero-size task
// finishes on its first Consume call having taken nothing.
func (t *Task) Consume(units int, step int64) int {
	if t.StepFinished != StepUnset {
		return 0
	}
	if t.StepProcessingStarted == StepUnset {
		t.StepProcessingStarted = step
	}
	used := min(max(units, 0), t.RemainingUnits)
	t.RemainingUnits -= used
	if t.RemainingUnits == 0 {
		t.StepFinished = step
	}
	return used
}

// IsFinished reports whether all work on the task has been retired.
func (t *Task) IsFinished() bool {
	return t.StepFinished != StepUnset
}

// Turnaround is the number of steps between submission and completion.
// Returns 0 for a task that has not finished.
func (t *Task) Turnaround() int64 {
	if !t.IsFinished() || t.StepSubmitted == StepUnset {
		return 0
	}
	return t.StepFinished - t.StepSubmitted
}

func (t *Task) String() string {
	return fmt.Sprintf("Task(%d, %d/%d units)", t.ID, t.RemainingUnits, t.StartUnits)
}

// SortSmallestFirst orders tasks by ascending remaining units.
// Equal tasks keep their queue order.
func SortSmallestFirst(tasks []*Task) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		return cmp.Compare(a.RemainingUnits, b.RemainingUnits)
	})
}

// SortLargestFirst orders tasks by descending remaining units.
// Equal tasks keep their queue order.
func SortLargestFirst(tasks []*Task) {
	slices.SortStableFunc(tasks, func(a, b *Task) int {
		return cmp.Compare(b.RemainingUnits, a.RemainingUnits)
	})
}
