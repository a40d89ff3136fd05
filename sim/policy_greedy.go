package sim

import (
	"cmp"

	"github.com/addrummond/heap"
)

// The greedy family keeps a projected delay per child, seeded from the
// child's current backlog, and places each task on the child with the
// lowest estimated completion:
//
//	estimate = task.RemainingUnits / child.UnitsPerStep + projectedDelay
//
// The chosen child's projected delay becomes that estimate. Ties go to the
// child that comes first in insertion order. The variants differ only in the
// order tasks are taken and in how the children are scanned.

// MinMinPolicy places the smallest waiting task first.
type MinMinPolicy struct{}

// Name implements DispatchPolicy for MinMinPolicy.
func (p *MinMinPolicy) Name() string { return PolicyMinMin }

// Dispatch implements DispatchPolicy for MinMinPolicy.
func (p *MinMinPolicy) Dispatch(d *Dispatch) {
	tasks := d.Queue.Drain()
	SortSmallestFirst(tasks)
	scan := newLinearScan(d.Children)
	for _, t := range tasks {
		d.Assign(t, d.Children[scan.pick(t)])
	}
}

// Reset implements DispatchPolicy for MinMinPolicy.
func (p *MinMinPolicy) Reset() {}

// MaxMinPolicy places the largest waiting task first.
type MaxMinPolicy struct{}

// Name implements DispatchPolicy for MaxMinPolicy.
func (p *MaxMinPolicy) Name() string { return PolicyMaxMin }

// Dispatch implements DispatchPolicy for MaxMinPolicy.
func (p *MaxMinPolicy) Dispatch(d *Dispatch) {
	tasks := d.Queue.Drain()
	SortLargestFirst(tasks)
	scan := newLinearScan(d.Children)
	for _, t := range tasks {
		d.Assign(t, d.Children[scan.pick(t)])
	}
}

// Reset implements DispatchPolicy for MaxMinPolicy.
func (p *MaxMinPolicy) Reset() {}

// MaxMinFastTrackPolicy makes the same choices as MaxMinPolicy but only
// inspects the least-delayed child of each distinct capacity, so a task costs
// O(capacity classes) instead of O(children).
type MaxMinFastTrackPolicy struct{}

// Name implements DispatchPolicy for MaxMinFastTrackPolicy.
func (p *MaxMinFastTrackPolicy) Name() string { return PolicyMaxMinFastTrack }

// Dispatch implements DispatchPolicy for MaxMinFastTrackPolicy.
func (p *MaxMinFastTrackPolicy) Dispatch(d *Dispatch) {
	tasks := d.Queue.Drain()
	SortLargestFirst(tasks)
	scan := newFastTrackScan(d.Children)
	for _, t := range tasks {
		d.Assign(t, d.Children[scan.pick(t)])
	}
}

// Reset implements DispatchPolicy for MaxMinFastTrackPolicy.
func (p *MaxMinFastTrackPolicy) Reset() {}

// MinMaxFastTrackPolicy alternates between the smallest and the largest
// remaining task, starting with the smallest, using the fast-track scan.
// Small tasks fill gaps early while large ones still reach fast children.
type MinMaxFastTrackPolicy struct{}

// Name implements DispatchPolicy for MinMaxFastTrackPolicy.
func (p *MinMaxFastTrackPolicy) Name() string { return PolicyMinMaxFastTrack }

// Dispatch implements DispatchPolicy for MinMaxFastTrackPolicy.
func (p *MinMaxFastTrackPolicy) Dispatch(d *Dispatch) {
	tasks := d.Queue.Drain()
	SortSmallestFirst(tasks)
	scan := newFastTrackScan(d.Children)
	lo, hi := 0, len(tasks)-1
	for takeSmall := true; lo <= hi; takeSmall = !takeSmall {
		var t *Task
		if takeSmall {
			t = tasks[lo]
			lo++
		} else {
			t = tasks[hi]
			hi--
		}
		d.Assign(t, d.Children[scan.pick(t)])
	}
}

// Reset implements DispatchPolicy for MinMaxFastTrackPolicy.
func (p *MinMaxFastTrackPolicy) Reset() {}

func estimateCompletion(t *Task, unitsPerStep int, projectedDelay float64) float64 {
	return float64(t.RemainingUnits)/float64(unitsPerStep) + projectedDelay
}

// linearScan checks every child for every task.
type linearScan struct {
	capacity []int
	delay    []float64
}

func newLinearScan(children []ConsumingEntity) *linearScan {
	s := &linearScan{
		capacity: make([]int, len(children)),
		delay:    make([]float64, len(children)),
	}
	for i, c := range children {
		s.capacity[i] = c.UnitsPerStep()
		s.delay[i] = c.Delay()
	}
	return s
}

// pick returns the index of the child to receive t and updates its delay.
func (s *linearScan) pick(t *Task) int {
	best := 0
	bestEstimate := estimateCompletion(t, s.capacity[0], s.delay[0])
	for i := 1; i < len(s.capacity); i++ {
		if e := estimateCompletion(t, s.capacity[i], s.delay[i]); e < bestEstimate {
			best, bestEstimate = i, e
		}
	}
	s.delay[best] = bestEstimate
	return best
}

// childSlot is a child's position in its capacity class heap.
type childSlot struct {
	delay float64
	index int
}

func (a *childSlot) Cmp(b *childSlot) int {
	if c := cmp.Compare(a.delay, b.delay); c != 0 {
		return c
	}
	return cmp.Compare(a.index, b.index)
}

type capacityClass struct {
	unitsPerStep int
	slots        heap.Heap[childSlot, heap.Min]
}

// fastTrackScan groups children by capacity. Within a class the child with
// the smallest projected delay (lowest index on ties) always has the lowest
// estimate, so only the head of each class heap needs checking.
type fastTrackScan struct {
	classes []*capacityClass
}

func newFastTrackScan(children []ConsumingEntity) *fastTrackScan {
	s := &fastTrackScan{}
	byCapacity := make(map[int]*capacityClass)
	for i, c := range children {
		ups := c.UnitsPerStep()
		class, ok := byCapacity[ups]
		if !ok {
			class = &capacityClass{unitsPerStep: ups}
			byCapacity[ups] = class
			s.classes = append(s.classes, class)
		}
		heap.PushOrderable(&class.slots, childSlot{delay: c.Delay(), index: i})
	}
	return s
}

func (s *fastTrackScan) pick(t *Task) int {
	var (
		bestClass    *capacityClass
		bestSlot     childSlot
		bestEstimate float64
	)
	for _, class := range s.classes {
		head, ok := heap.Peek(&class.slots)
		if !ok {
			continue
		}
		e := estimateCompletion(t, class.unitsPerStep, head.delay)
		if bestClass == nil || e < bestEstimate || (e == bestEstimate && head.index < bestSlot.index) {
			bestClass, bestSlot, bestEstimate = class, head, e
		}
	}
	slot, _ := heap.PopOrderable(&bestClass.slots)
	slot.delay = bestEstimate
	heap.PushOrderable(&bestClass.slots, slot)
	return slot.index
}
