package sim

import (
	"cmp"
	"fmt"
	"slices"
)

// Consumer is a leaf processor that retires up to UnitsPerStep units of
// queued work each step.
type Consumer struct {
	treeNode
	unitsPerStep int
	waiting      TaskQueue
	completed    []*Task
	// busyFraction accumulates consumed/unitsPerStep over every elapsed step.
	busyFraction float64
}

func newConsumer(id EntityID, owner *Architecture, unitsPerStep int) (*Consumer, error) {
	if unitsPerStep < 1 {
		return nil, fmt.Errorf("consumer units per step must be >= 1, got %d", unitsPerStep)
	}
	return &Consumer{
		treeNode:     treeNode{id: id, owner: owner, parent: NoEntity},
		unitsPerStep: unitsPerStep,
	}, nil
}

// Kind returns KindConsumer.
func (c *Consumer) Kind() EntityKind { return KindConsumer }

// UnitsPerStep returns the consumer's fixed capacity.
func (c *Consumer) UnitsPerStep() int { return c.unitsPerStep }

// Submit appends t to the waiting queue.
func (c *Consumer) Submit(t *Task) {
	c.waiting.Enqueue(t)
}

// WaitingTasks returns the queued tasks, the in-progress one first.
func (c *Consumer) WaitingTasks() []*Task {
	return c.waiting.Items()
}

// CompletedTasks returns the tasks this consumer has finished, in completion order.
func (c *Consumer) CompletedTasks() []*Task {
	return slices.Clone(c.completed)
}

// Step retires work from the head of the queue. Capacity left over after a
// task finishes flows into the next task in the same step.
func (c *Consumer) Step(tick *Tick) {
	c.localStep++
	capacity := c.unitsPerStep
	for c.waiting.Len() > 0 {
		head := c.waiting.Peek()
		if capacity == 0 && head.RemainingUnits > 0 {
			break
		}
		capacity -= head.Consume(capacity, tick.Step)
		if !head.IsFinished() {
			break
		}
		c.completed = append(c.completed, c.waiting.Dequeue())
	}
	c.busyFraction += float64(c.unitsPerStep-capacity) / float64(c.unitsPerStep)
}

// IsFinished reports whether the consumer has nothing queued or in progress.
func (c *Consumer) IsFinished() bool {
	return c.waiting.Len() == 0
}

// Utilisation is the mean fraction of capacity used per elapsed step.
func (c *Consumer) Utilisation() float64 {
	if c.localStep == 0 {
		return 0
	}
	return c.busyFraction / float64(c.localStep)
}

// Delay is the queued backlog expressed in steps of this consumer's capacity.
func (c *Consumer) Delay() float64 {
	return float64(c.waiting.RemainingUnits()) / float64(c.unitsPerStep)
}

// Reset returns the consumer to its pre-run state.
func (c *Consumer) Reset() {
	c.localStep = 0
	c.busyFraction = 0
	c.completed = nil
	c.waiting.Clear()
}

func (c *Consumer) String() string {
	return fmt.Sprintf("Consumer(%d, %d ups)", c.id, c.unitsPerStep)
}

// SortByCapacity orders consumers largest capacity first.
// Equal capacities keep their relative order.
func SortByCapacity(consumers []*Consumer) {
	slices.SortStableFunc(consumers, func(a, b *Consumer) int {
		return cmp.Compare(b.unitsPerStep, a.unitsPerStep)
	})
}
