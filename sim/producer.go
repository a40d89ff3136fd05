package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// WorkloadGenerator produces the tasks of one wave. Implementations live in
// sim/workload. Generate may return different tasks on each call.
type WorkloadGenerator interface {
	Name() string
	Generate(rng *rand.Rand) ([]*Task, error)
}

// Producer is the root of the tree. At each wave's trigger step it generates
// the wave and submits every task to its root child.
type Producer struct {
	treeNode
	name      string
	waves     map[int64][]WorkloadGenerator
	submitted int
	nextID    int64
	// err holds the first generator failure; the driver surfaces it.
	err error
}

func newProducer(owner *Architecture, name string) *Producer {
	return &Producer{
		treeNode: treeNode{id: 0, owner: owner, parent: NoEntity},
		name:     name,
		waves:    make(map[int64][]WorkloadGenerator),
	}
}

// Name returns the producer's label used in result rows.
func (p *Producer) Name() string { return p.name }

// Kind returns KindProducer.
func (p *Producer) Kind() EntityKind { return KindProducer }

// AddWave schedules gen to fire at step. Waves sharing a step fire in the
// order they were added.
func (p *Producer) AddWave(step int64, gen WorkloadGenerator) error {
	if step < 1 {
		return fmt.Errorf("wave step must be >= 1, got %d", step)
	}
	if gen == nil {
		return fmt.Errorf("wave at step %d has no generator", step)
	}
	p.waves[step] = append(p.waves[step], gen)
	return nil
}

// WaveSteps returns the trigger steps in ascending order.
func (p *Producer) WaveSteps() []int64 {
	steps := make([]int64, 0, len(p.waves))
	for s := range p.waves {
		steps = append(steps, s)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	return steps
}

// TasksSubmitted returns how many tasks the producer has handed to the tree.
func (p *Producer) TasksSubmitted() int { return p.submitted }

// root returns the producer's single child, or nil.
func (p *Producer) root() ConsumingEntity {
	if len(p.children) == 0 {
		return nil
	}
	return p.children[0]
}

// Step fires the waves registered for the new step.
func (p *Producer) Step(tick *Tick) {
	p.localStep++
	gens := p.waves[p.localStep]
	if len(gens) == 0 || p.err != nil {
		return
	}
	rng := tick.Rand(SubsystemWorkload)
	for _, gen := range gens {
		tasks, err := gen.Generate(rng)
		if err != nil {
			p.err = fmt.Errorf("wave at step %d: %w", p.localStep, err)
			return
		}
		for _, t := range tasks {
			t.markSubmitted(p.nextID, tick.Step)
			p.nextID++
			p.root().Submit(t)
		}
		p.submitted += len(tasks)
		logrus.Debugf("[step %07d] producer %s: wave %s submitted %d tasks", tick.Step, p.name, gen.Name(), len(tasks))
	}
}

// IsFinished reports whether every wave has fired.
func (p *Producer) IsFinished() bool {
	for s := range p.waves {
		if s > p.localStep {
			return false
		}
	}
	return true
}

// Reset rewinds the producer so its waves fire again.
func (p *Producer) Reset() {
	p.localStep = 0
	p.submitted = 0
	p.nextID = 0
	p.err = nil
}
