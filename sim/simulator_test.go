package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedule-sim/sim/internal/testutil"
	"github.com/inference-sim/schedule-sim/sim/trace"
)

func run(t *testing.T, a *Architecture, cfg RunConfig) *Result {
	t.Helper()
	res, err := NewSimulation(a, cfg).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRun_SingleConsumerTwoWaves(t *testing.T) {
	// GIVEN producer -> consumer(1) with a 1-unit task at step 1 and another at step 4
	a := NewArchitecture("single", "two-waves", 1)
	c := mustConsumer(t, a, 1)
	mustAttach(t, a, a.Producer(), c)
	require.NoError(t, a.Producer().AddWave(1, repeatSize(1, 1)))
	require.NoError(t, a.Producer().AddWave(4, repeatSize(1, 1)))

	// WHEN run
	sim := NewSimulation(a, RunConfig{Output: DefaultOutputOptions()})
	res, err := sim.Run(context.Background())

	// THEN the run ends at step 4 with the consumer busy half the time
	require.NoError(t, err)
	assert.Equal(t, StateFinished, sim.State())
	assert.Equal(t, int64(4), res.Steps)
	testutil.AssertFloat64Equal(t, "consumer utilisation", 0.5, c.Utilisation(), 1e-12)
	testutil.AssertFloat64Equal(t, "tree utilisation", 0.5, res.Utilisation, 1e-12)
	assert.Equal(t, int64(3), res.Makespan)
	assert.Equal(t, 2, res.TasksSubmitted)
	assert.Equal(t, 2, res.TasksCompleted)
}

func TestRun_NoWaves_FinishesImmediately(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 2)
	res := run(t, a, RunConfig{})
	assert.Equal(t, int64(0), res.Steps)
	assert.Equal(t, int64(0), res.Makespan)
	assert.Equal(t, 0.0, res.Utilisation)
}

func TestRun_TaskCrossesAllTiersInOneStep(t *testing.T) {
	// GIVEN producer -> root -> mid -> consumer(10)
	a := NewArchitecture("deep", "p", 1)
	root := mustScheduler(t, a, PolicyRoundRobin)
	mid := mustScheduler(t, a, PolicyMinMin)
	c := mustConsumer(t, a, 10)
	mustAttach(t, a, a.Producer(), root)
	mustAttach(t, a, root, mid)
	mustAttach(t, a, mid, c)
	require.NoError(t, a.Producer().AddWave(1, repeatSize(5, 1)))

	// WHEN run
	res := run(t, a, RunConfig{})

	// THEN the task is submitted, started and finished on step 1
	require.Len(t, c.CompletedTasks(), 1)
	task := c.CompletedTasks()[0]
	assert.Equal(t, int64(1), task.StepSubmitted)
	assert.Equal(t, int64(1), task.StepProcessingStarted)
	assert.Equal(t, int64(1), task.StepFinished)
	assert.Equal(t, int64(1), res.Steps)
}

func TestRun_ObserverSeesOnlyConsumerPlacements(t *testing.T) {
	// GIVEN producer -> root(rr) -> {sub(rr) -> {c2, c3}, c1}
	a := NewArchitecture("hook", "p", 1)
	root := mustScheduler(t, a, PolicyRoundRobin)
	sub := mustScheduler(t, a, PolicyRoundRobin)
	mustAttach(t, a, a.Producer(), root)
	mustAttach(t, a, root, sub)
	mustAttach(t, a, root, mustConsumer(t, a, 1))
	mustAttach(t, a, sub, mustConsumer(t, a, 1))
	mustAttach(t, a, sub, mustConsumer(t, a, 1))
	require.NoError(t, a.Producer().AddWave(1, repeatSize(2, 6)))

	var seen []Assignment
	cfg := RunConfig{
		Trace:     trace.TraceConfig{Level: trace.TraceLevelDispatches},
		Observers: []AssignmentObserver{AssignmentObserverFunc(func(as Assignment) { seen = append(seen, as) })},
	}

	// WHEN run
	sim := NewSimulation(a, cfg)
	_, err := sim.Run(context.Background())
	require.NoError(t, err)

	// THEN the hook fires once per task, always for a consumer
	assert.Len(t, seen, 6)
	for _, as := range seen {
		assert.True(t, as.ToConsumer)
		_, isConsumer := mustLookup(t, a, as.TargetID).(*Consumer)
		assert.True(t, isConsumer)
	}
	// AND the trace also holds the three hand-offs from root to sub
	summary := trace.Summarize(sim.Trace())
	assert.Equal(t, 9, summary.TotalDispatches)
	assert.Equal(t, 6, summary.ConsumerDispatches)
	assert.Equal(t, 3, summary.TargetDistribution[int(sub.ID())])
}

func mustLookup(t *testing.T, a *Architecture, id EntityID) ConsumingEntity {
	t.Helper()
	e, ok := a.Lookup(id)
	require.True(t, ok, "entity %d not registered", id)
	return e
}

// buildRandomTree builds producer -> shopping root -> {random sub -> 3 consumers, wrr sub -> 3 consumers}.
func buildRandomTree(t *testing.T, seed int64) *Architecture {
	t.Helper()
	a := NewArchitecture("random-tree", "uniform", seed)
	root := mustScheduler(t, a, PolicyShopping, WithShoppingOptions(2))
	s1 := mustScheduler(t, a, PolicyRandom)
	s2 := mustScheduler(t, a, PolicyWeightedRoundRobin)
	mustAttach(t, a, a.Producer(), root)
	mustAttach(t, a, root, s1)
	mustAttach(t, a, root, s2)
	for _, ups := range []int{4, 2, 1} {
		mustAttach(t, a, s1, mustConsumer(t, a, ups))
		mustAttach(t, a, s2, mustConsumer(t, a, ups*2))
	}
	sizes := make([]int, 60)
	for i := range sizes {
		sizes[i] = 1 + (i*7)%13
	}
	require.NoError(t, a.Producer().AddWave(1, &sizesGenerator{sizes: sizes}))
	require.NoError(t, a.Producer().AddWave(5, &sizesGenerator{sizes: sizes[:20]}))
	return a
}

func completedTimeline(a *Architecture) map[EntityID][]TaskView {
	out := map[EntityID][]TaskView{}
	for _, c := range a.Consumers() {
		out[c.ID()] = viewTasks(c.CompletedTasks())
	}
	return out
}

func TestRun_SameSeed_IdenticalRuns(t *testing.T) {
	// GIVEN two identically built randomized trees with the same seed
	a1 := buildRandomTree(t, 42)
	a2 := buildRandomTree(t, 42)

	// WHEN both run
	r1 := run(t, a1, RunConfig{})
	r2 := run(t, a2, RunConfig{})

	// THEN every task has the same lifecycle on the same consumer
	if diff := cmp.Diff(completedTimeline(a1), completedTimeline(a2)); diff != "" {
		t.Errorf("timelines differ (-a1 +a2):\n%s", diff)
	}
	assert.Equal(t, r1.Makespan, r2.Makespan)
	assert.Equal(t, r1.Steps, r2.Steps)
}

func TestRun_DifferentSeed_DifferentPlacement(t *testing.T) {
	a1 := buildRandomTree(t, 1)
	a2 := buildRandomTree(t, 2)
	run(t, a1, RunConfig{})
	run(t, a2, RunConfig{})
	assert.NotEqual(t, completedTimeline(a1), completedTimeline(a2))
}

func TestRun_ResetAll_ReplaysIdentically(t *testing.T) {
	a := buildRandomTree(t, 7)
	run(t, a, RunConfig{})
	first := completedTimeline(a)

	a.ResetAll()
	run(t, a, RunConfig{})

	if diff := cmp.Diff(first, completedTimeline(a)); diff != "" {
		t.Errorf("replay differs (-first +second):\n%s", diff)
	}
}

func TestRun_UnreachableEntity_StepDesync(t *testing.T) {
	// GIVEN a consumer left registered under a detached scheduler
	a := NewArchitecture("orphan", "p", 1)
	root := mustScheduler(t, a, PolicyRoundRobin)
	mid := mustScheduler(t, a, PolicyRoundRobin)
	mustAttach(t, a, a.Producer(), root)
	mustAttach(t, a, root, mustConsumer(t, a, 1))
	mustAttach(t, a, root, mid)
	orphan := mustConsumer(t, a, 1)
	mustAttach(t, a, mid, orphan)
	require.NoError(t, a.Detach(root, mid))
	require.NoError(t, a.Producer().AddWave(1, repeatSize(1, 3)))

	// WHEN run
	_, err := NewSimulation(a, RunConfig{}).Run(context.Background())

	// THEN the integrity check names the orphan
	var desync *StepDesyncError
	require.True(t, errors.As(err, &desync), "expected StepDesyncError, got %v", err)
	assert.Equal(t, orphan.ID(), desync.EntityID)
	assert.Equal(t, int64(0), desync.LocalStep)
	assert.Equal(t, int64(3), desync.GlobalStep)
}

func TestRun_TaskInjectedOutsideProducer_CountMismatch(t *testing.T) {
	a, _, cs := newFlatTree(t, 1, PolicyRoundRobin, 1)
	require.NoError(t, a.Producer().AddWave(1, repeatSize(1, 2)))
	cs[0].Submit(NewTask(1))

	_, err := NewSimulation(a, RunConfig{}).Run(context.Background())

	var mismatch *TaskCountError
	require.True(t, errors.As(err, &mismatch), "expected TaskCountError, got %v", err)
	assert.Equal(t, 2, mismatch.Submitted)
	assert.Equal(t, 3, mismatch.Completed)
}

func TestRun_Preconditions(t *testing.T) {
	t.Run("waves without root", func(t *testing.T) {
		a := NewArchitecture("a", "p", 1)
		require.NoError(t, a.Producer().AddWave(1, repeatSize(1, 1)))
		_, err := NewSimulation(a, RunConfig{}).Run(context.Background())
		assert.ErrorIs(t, err, ErrNoRoot)
	})
	t.Run("childless scheduler", func(t *testing.T) {
		a := NewArchitecture("a", "p", 1)
		mustAttach(t, a, a.Producer(), mustScheduler(t, a, PolicyRandom))
		_, err := NewSimulation(a, RunConfig{}).Run(context.Background())
		assert.ErrorIs(t, err, ErrEmptyScheduler)
	})
	t.Run("negative bins", func(t *testing.T) {
		a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
		_, err := NewSimulation(a, RunConfig{Output: OutputOptions{BinCount: -1}}).Run(context.Background())
		assert.Error(t, err)
	})
}

func TestRun_GeneratorError_Propagates(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
	boom := &GeneratorConfigError{Generator: "failing", Reason: "boom"}
	require.NoError(t, a.Producer().AddWave(2, &failingGenerator{err: boom}))

	_, err := NewSimulation(a, RunConfig{}).Run(context.Background())

	var cfgErr *GeneratorConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "boom", cfgErr.Reason)
}

func TestRun_CancelledContext_StopsBetweenTicks(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
	require.NoError(t, a.Producer().AddWave(10, repeatSize(1, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulation(a, RunConfig{}).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MaxSteps_HorizonReached(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
	require.NoError(t, a.Producer().AddWave(1, repeatSize(100, 1)))

	sim := NewSimulation(a, RunConfig{MaxSteps: 10})
	_, err := sim.Run(context.Background())

	assert.ErrorIs(t, err, ErrHorizonReached)
	assert.Equal(t, int64(10), sim.Step())
}

func TestRun_Twice_ErrAlreadyRan(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
	sim := NewSimulation(a, RunConfig{})
	_, err := sim.Run(context.Background())
	require.NoError(t, err)
	_, err = sim.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRan)
}

func TestRun_SharedStepWaves_FireInRegistrationOrder(t *testing.T) {
	a := NewArchitecture("order", "p", 1)
	c := mustConsumer(t, a, 100)
	mustAttach(t, a, a.Producer(), c)
	require.NoError(t, a.Producer().AddWave(1, &sizesGenerator{sizes: []int{7}}))
	require.NoError(t, a.Producer().AddWave(1, &sizesGenerator{sizes: []int{3}}))

	run(t, a, RunConfig{})

	done := c.CompletedTasks()
	require.Len(t, done, 2)
	assert.Equal(t, 7, done[0].StartUnits)
	assert.Equal(t, 3, done[1].StartUnits)
	assert.Less(t, done[0].ID, done[1].ID)
}
