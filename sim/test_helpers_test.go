package sim

import (
	"math/rand"
)

// sizesGenerator emits one task per listed size, in order.
type sizesGenerator struct {
	sizes []int
}

func (g *sizesGenerator) Name() string { return "sizes" }

func (g *sizesGenerator) Generate(_ *rand.Rand) ([]*Task, error) {
	tasks := make([]*Task, len(g.sizes))
	for i, s := range g.sizes {
		tasks[i] = NewTask(s)
	}
	return tasks, nil
}

func repeatSize(size, count int) *sizesGenerator {
	g := &sizesGenerator{sizes: make([]int, count)}
	for i := range g.sizes {
		g.sizes[i] = size
	}
	return g
}

// failingGenerator always returns err.
type failingGenerator struct {
	err error
}

func (g *failingGenerator) Name() string { return "failing" }

func (g *failingGenerator) Generate(_ *rand.Rand) ([]*Task, error) { return nil, g.err }

// fataler is the subset of testing.TB that *rapid.T also satisfies.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func mustConsumer(t fataler, a *Architecture, ups int) *Consumer {
	t.Helper()
	c, err := a.NewConsumer(ups)
	if err != nil {
		t.Fatalf("NewConsumer(%d): %v", ups, err)
	}
	return c
}

func mustScheduler(t fataler, a *Architecture, policy string, opts ...PolicyOption) *Scheduler {
	t.Helper()
	s, err := a.NewScheduler(policy, opts...)
	if err != nil {
		t.Fatalf("NewScheduler(%q): %v", policy, err)
	}
	return s
}

func mustAttach(t fataler, a *Architecture, parent ParentEntity, child ConsumingEntity) {
	t.Helper()
	if err := a.Attach(parent, child); err != nil {
		t.Fatalf("Attach(%d, %d): %v", parent.ID(), child.ID(), err)
	}
}

// newFlatTree builds producer -> scheduler(policy) -> consumers(capacities...).
func newFlatTree(t fataler, seed int64, policy string, capacities ...int) (*Architecture, *Scheduler, []*Consumer) {
	t.Helper()
	a := NewArchitecture("flat", "test", seed)
	s := mustScheduler(t, a, policy)
	mustAttach(t, a, a.Producer(), s)
	consumers := make([]*Consumer, len(capacities))
	for i, c := range capacities {
		consumers[i] = mustConsumer(t, a, c)
		mustAttach(t, a, s, consumers[i])
	}
	return a, s, consumers
}

// recordingDispatch builds a Dispatch over children that records every assignment.
func recordingDispatch(rng *rand.Rand, tasks []*Task, children []ConsumingEntity) (*Dispatch, *[]EntityID) {
	var q TaskQueue
	for _, task := range tasks {
		q.Enqueue(task)
	}
	var got []EntityID
	d := &Dispatch{
		Queue:    &q,
		Children: children,
		Rand:     rng,
		assign: func(task *Task, child ConsumingEntity) {
			child.Submit(task)
			got = append(got, child.ID())
		},
	}
	return d, &got
}

func asEntities(consumers []*Consumer) []ConsumingEntity {
	out := make([]ConsumingEntity, len(consumers))
	for i, c := range consumers {
		out[i] = c
	}
	return out
}

func tasksOfSizes(sizes ...int) []*Task {
	out := make([]*Task, len(sizes))
	for i, s := range sizes {
		out[i] = NewTask(s)
		out[i].ID = int64(i)
	}
	return out
}
