package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedule-sim/sim/internal/testutil"
)

func stepConsumer(a *Architecture, c *Consumer, step int64) {
	c.Step(&Tick{Step: step, arch: a})
}

func TestNewConsumer_NonPositiveCapacity_Rejected(t *testing.T) {
	a := NewArchitecture("a", "p", 1)
	for _, ups := range []int{0, -3} {
		_, err := a.NewConsumer(ups)
		assert.Error(t, err, "capacity %d", ups)
	}
}

func TestConsumer_LeftoverCapacity_CarriesToNextTask(t *testing.T) {
	// GIVEN a 5-unit consumer holding tasks of 3 and 4 units
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 5)
	tasks := tasksOfSizes(3, 4)
	for _, task := range tasks {
		task.StepSubmitted = 1
		c.Submit(task)
	}

	// WHEN stepped once
	stepConsumer(a, c, 1)

	// THEN the first finishes and the second absorbs the remaining 2 units
	require.Len(t, c.CompletedTasks(), 1)
	assert.Equal(t, int64(1), tasks[0].StepFinished)
	assert.Equal(t, 2, tasks[1].RemainingUnits)
	assert.Equal(t, int64(1), tasks[1].StepProcessingStarted)

	// WHEN stepped again
	stepConsumer(a, c, 2)

	// THEN the second finishes having used 2 of 5 units
	assert.Equal(t, int64(2), tasks[1].StepFinished)
	assert.True(t, c.IsFinished())
	testutil.AssertFloat64Equal(t, "utilisation", (1.0+0.4)/2, c.Utilisation(), 1e-12)
}

func TestConsumer_SeveralSmallTasks_FinishInOneStep(t *testing.T) {
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 10)
	for _, task := range tasksOfSizes(2, 3, 4) {
		c.Submit(task)
	}
	stepConsumer(a, c, 1)
	assert.Len(t, c.CompletedTasks(), 3)
	testutil.AssertFloat64Equal(t, "utilisation", 0.9, c.Utilisation(), 1e-12)
}

func TestConsumer_ZeroSizeTask_CompletesWithoutCapacity(t *testing.T) {
	// GIVEN a full-capacity task followed by a zero-size task
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 2)
	tasks := tasksOfSizes(2, 0)
	for _, task := range tasks {
		c.Submit(task)
	}

	// WHEN stepped once
	stepConsumer(a, c, 1)

	// THEN both complete on that step
	assert.Len(t, c.CompletedTasks(), 2)
	assert.Equal(t, int64(1), tasks[1].StepFinished)
}

func TestConsumer_IdleSteps_LowerUtilisation(t *testing.T) {
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 4)
	c.Submit(tasksOfSizes(4)[0])
	for step := int64(1); step <= 4; step++ {
		stepConsumer(a, c, step)
	}
	testutil.AssertFloat64Equal(t, "utilisation", 0.25, c.Utilisation(), 1e-12)
}

func TestConsumer_Delay_IsBacklogOverCapacity(t *testing.T) {
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 4)
	assert.Equal(t, 0.0, c.Delay())
	for _, task := range tasksOfSizes(6, 4) {
		c.Submit(task)
	}
	assert.Equal(t, 2.5, c.Delay())
}

func TestConsumer_Reset_ClearsState(t *testing.T) {
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 1)
	c.Submit(tasksOfSizes(1)[0])
	c.Submit(tasksOfSizes(3)[0])
	stepConsumer(a, c, 1)

	c.Reset()

	assert.Equal(t, int64(0), c.LocalStep())
	assert.Empty(t, c.CompletedTasks())
	assert.Empty(t, c.WaitingTasks())
	assert.Equal(t, 0.0, c.Utilisation())
}

func TestSortByCapacity_LargestFirst(t *testing.T) {
	a := NewArchitecture("a", "p", 1)
	cs := []*Consumer{mustConsumer(t, a, 6), mustConsumer(t, a, 20), mustConsumer(t, a, 16), mustConsumer(t, a, 20)}
	ids := []EntityID{cs[1].ID(), cs[3].ID(), cs[2].ID(), cs[0].ID()}

	SortByCapacity(cs)

	for i, c := range cs {
		assert.Equal(t, ids[i], c.ID(), "position %d", i)
	}
}
