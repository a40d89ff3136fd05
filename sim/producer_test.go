package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_AddWave_Validation(t *testing.T) {
	p := NewArchitecture("a", "p", 1).Producer()
	assert.Error(t, p.AddWave(0, repeatSize(1, 1)))
	assert.Error(t, p.AddWave(-3, repeatSize(1, 1)))
	assert.Error(t, p.AddWave(1, nil))
	assert.Empty(t, p.WaveSteps())
}

func TestProducer_WaveSteps_Sorted(t *testing.T) {
	p := NewArchitecture("a", "p", 1).Producer()
	for _, s := range []int64{30, 1, 7, 1} {
		require.NoError(t, p.AddWave(s, repeatSize(1, 1)))
	}
	assert.Equal(t, []int64{1, 7, 30}, p.WaveSteps())
}

func TestProducer_Step_SubmitsToRootWithIDs(t *testing.T) {
	// GIVEN a producer with a wave at step 2 over a single consumer
	a := NewArchitecture("a", "p", 1)
	c := mustConsumer(t, a, 1)
	mustAttach(t, a, a.Producer(), c)
	p := a.Producer()
	require.NoError(t, p.AddWave(2, &sizesGenerator{sizes: []int{4, 5, 6}}))

	// WHEN stepped twice
	p.Step(&Tick{Step: 1, arch: a})
	assert.Empty(t, c.WaitingTasks())
	assert.False(t, p.IsFinished())
	p.Step(&Tick{Step: 2, arch: a})

	// THEN the wave reaches the root stamped with ids and the step
	waiting := c.WaitingTasks()
	require.Len(t, waiting, 3)
	for i, task := range waiting {
		assert.Equal(t, int64(i), task.ID)
		assert.Equal(t, int64(2), task.StepSubmitted)
	}
	assert.Equal(t, 3, p.TasksSubmitted())
	assert.True(t, p.IsFinished())
}

func TestProducer_GeneratorError_Recorded(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
	p := a.Producer()
	boom := &GeneratorConfigError{Generator: "failing", Reason: "boom"}
	require.NoError(t, p.AddWave(1, &failingGenerator{err: boom}))

	p.Step(&Tick{Step: 1, arch: a})

	assert.ErrorIs(t, p.err, boom)
	assert.Equal(t, 0, p.TasksSubmitted())
}

func TestProducer_Reset_RefiresWaves(t *testing.T) {
	a, _, _ := newFlatTree(t, 1, PolicyRandom, 1)
	p := a.Producer()
	require.NoError(t, p.AddWave(1, repeatSize(1, 2)))
	p.Step(&Tick{Step: 1, arch: a})
	require.True(t, p.IsFinished())

	p.Reset()

	assert.False(t, p.IsFinished())
	assert.Equal(t, int64(0), p.LocalStep())
	assert.Equal(t, 0, p.TasksSubmitted())
}
