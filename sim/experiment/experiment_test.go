package experiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedule-sim/sim"
)

func TestLoad_TwoTier(t *testing.T) {
	// GIVEN the two-tier experiment file
	e, err := Load(filepath.Join("testdata", "two-tier.yaml"))
	require.NoError(t, err)

	// WHEN built
	arch, cfg, err := e.Build()
	require.NoError(t, err)

	// THEN the tree, waves and options match the file
	assert.Equal(t, "two-tier", arch.Name())
	assert.Equal(t, int64(7), arch.Seed())
	assert.Len(t, arch.Schedulers(), 3)
	assert.Len(t, arch.Consumers(), 9)
	assert.Equal(t, []int64{1, 40}, arch.Producer().WaveSteps())
	assert.Equal(t, int64(100000), cfg.MaxSteps)
	assert.Equal(t, 5, cfg.Output.BinCount)

	capacity := 0
	for _, c := range arch.Consumers() {
		capacity += c.UnitsPerStep()
	}
	assert.Equal(t, 3*12+2*8+4*4, capacity)
	assert.Equal(t, sim.PolicyRoundRobin, arch.Schedulers()[0].PolicyName())
}

func TestLoad_TwoTier_Runs(t *testing.T) {
	e, err := Load(filepath.Join("testdata", "two-tier.yaml"))
	require.NoError(t, err)
	arch, cfg, err := e.Build()
	require.NoError(t, err)

	res, err := sim.NewSimulation(arch, cfg).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, res.TasksSubmitted, res.TasksCompleted)
	assert.Len(t, res.BinnedMakespans, 5)
}

func TestLoad_UnknownField_Rejected(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown-field.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "childs")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	// GIVEN a file with six independent mistakes
	e, err := Load(filepath.Join("testdata", "invalid.yaml"))
	require.NoError(t, err)

	// WHEN validated
	err = e.Validate()

	// THEN all of them are reported together
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 6)
	assert.ErrorIs(t, err, sim.ErrEmptyScheduler)
	for _, want := range []string{"name is required", "wave step", "fastest-first", "tree.children[0]", "tree.children[1]: a consumer cannot have children"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_NodeShapes(t *testing.T) {
	tests := []struct {
		name    string
		node    NodeSpec
		wantErr bool
	}{
		{"consumer leaf", NodeSpec{Consumer: 4}, false},
		{"scheduler with child", NodeSpec{Scheduler: sim.PolicyMinMin, Children: []NodeSpec{{Consumer: 1}}}, false},
		{"shopping with options", NodeSpec{Scheduler: sim.PolicyShopping, ShoppingOptions: 3, Children: []NodeSpec{{Consumer: 1}}}, false},
		{"both kinds", NodeSpec{Scheduler: sim.PolicyRandom, Consumer: 2}, true},
		{"negative capacity", NodeSpec{Consumer: -2}, true},
		{"negative count", NodeSpec{Consumer: 2, Count: -1}, true},
		{"options on round robin", NodeSpec{Scheduler: sim.PolicyRoundRobin, ShoppingOptions: 2, Children: []NodeSpec{{Consumer: 1}}}, true},
		{"options on consumer", NodeSpec{Consumer: 1, ShoppingOptions: 2}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.node.validate("tree")
			assert.Equal(t, tc.wantErr, len(errs) > 0, "errors: %v", errs)
		})
	}
}

func TestValidate_RootCount(t *testing.T) {
	e := &Experiment{Name: "x", Tree: NodeSpec{Consumer: 1, Count: 2}}
	assert.Error(t, e.Validate())
}

func TestBuild_CountRepeatsSubtrees(t *testing.T) {
	// GIVEN a root with two copies of a scheduler that owns three consumers
	e := &Experiment{
		Name: "copies",
		Tree: NodeSpec{
			Scheduler: sim.PolicyRoundRobin,
			Children: []NodeSpec{{
				Scheduler: sim.PolicyMinMin,
				Count:     2,
				Children:  []NodeSpec{{Consumer: 5, Count: 3}},
			}},
		},
	}

	// WHEN built
	arch, _, err := e.Build()

	// THEN each copy has its own consumers
	require.NoError(t, err)
	assert.Len(t, arch.Schedulers(), 3)
	assert.Len(t, arch.Consumers(), 6)
	for _, s := range arch.Schedulers()[1:] {
		assert.Len(t, s.Children(), 3)
	}
}

func TestBuild_DefaultOutput(t *testing.T) {
	e := &Experiment{Name: "d", Tree: NodeSpec{Consumer: 1}}
	_, cfg, err := e.Build()
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultOutputOptions(), cfg.Output)
}

func TestBuild_InvalidGeneratorParams(t *testing.T) {
	e, err := Parse([]byte(`
name: bad-wave
producer: p
waves:
  - step: 1
    generator: {type: uniform, params: {start: 9, end: 3, count: 2}}
tree: {consumer: 1}
`))
	require.NoError(t, err)
	_, _, err = e.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wave[0]")
}
