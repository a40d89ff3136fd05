// Implements the TaskQueue, which holds tasks waiting at a scheduler or consumer.
// Tasks are enqueued in arrival order

package sim

import (
	"fmt"
	"strings"

	"github.com/gammazero/deque"
)

// TaskQueue is a FIFO of tasks waiting at a consuming entity.
// The zero value is an empty queue ready to use.
type TaskQueue struct {
	q deque.Deque[*Task]
}

// Enqueue adds a task to the back of the queue.
func (tq *TaskQueue) Enqueue(t *Task) {
	if t == nil {
		panic("Enqueue: task must not be nil")
	}
	tq.q.PushBack(t)
}

// Len returns the number of waiting tasks.
func (tq *TaskQueue) Len() int {
	return tq.q.Len()
}

// Peek returns the task at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (tq *TaskQueue) Peek() *Task {
	if tq.q.Len() == 0 {
		return nil
	}
	return tq.q.Front()
}

// Dequeue removes and returns the task at the front of the queue.
// Returns nil if the queue is empty.
func (tq *TaskQueue) Dequeue() *Task {
	if tq.q.Len() == 0 {
		return nil
	}
	return tq.q.PopFront()
}

// Drain removes every waiting task and returns them in arrival order.
func (tq *TaskQueue) Drain() []*Task {
	out := make([]*Task, 0, tq.q.Len())
	for tq.q.Len() > 0 {
		out = append(out, tq.q.PopFront())
	}
	return out
}

// Items returns a copy of the queue contents in arrival order.
func (tq *TaskQueue) Items() []*Task {
	out := make([]*Task, tq.q.Len())
	for i := range out {
		out[i] = tq.q.At(i)
	}
	return out
}

// RemainingUnits sums the outstanding work of every waiting task.
func (tq *TaskQueue) RemainingUnits() int {
	total := 0
	for i := 0; i < tq.q.Len(); i++ {
		total += tq.q.At(i).RemainingUnits
	}
	return total
}

// Clear empties the queue.
func (tq *TaskQueue) Clear() {
	tq.q.Clear()
}

func (tq *TaskQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < tq.q.Len(); i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprint(tq.q.At(i)))
	}
	sb.WriteString("]")
	return sb.String()
}
