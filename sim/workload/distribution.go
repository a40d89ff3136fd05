package workload

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/schedule-sim/sim"
)

// Flat produces Count tasks of Size units each.
type Flat struct {
	Count int
	Size  int
}

func (g *Flat) Name() string { return fmt.Sprintf("flat(%d x %d)", g.Count, g.Size) }

func (g *Flat) Generate(_ *rand.Rand) ([]*sim.Task, error) {
	if g.Count < 0 || g.Size < 0 {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "count and size must be >= 0"}
	}
	tasks := make([]*sim.Task, g.Count)
	for i := range tasks {
		tasks[i] = sim.NewTask(g.Size)
	}
	return tasks, nil
}

// Linear produces one task of each size Start, Start+1, ..., Stop-1.
type Linear struct {
	Start int
	Stop  int
}

func (g *Linear) Name() string { return fmt.Sprintf("linear[%d,%d)", g.Start, g.Stop) }

func (g *Linear) Generate(_ *rand.Rand) ([]*sim.Task, error) {
	if g.Start < 0 {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "start must be >= 0"}
	}
	tasks := make([]*sim.Task, 0, max(g.Stop-g.Start, 0))
	for size := g.Start; size < g.Stop; size++ {
		tasks = append(tasks, sim.NewTask(size))
	}
	return tasks, nil
}

// Uniform produces Count tasks with sizes drawn uniformly from [Start, End).
type Uniform struct {
	Start int
	End   int
	Count int
}

func (g *Uniform) Name() string { return fmt.Sprintf("uniform[%d,%d) x %d", g.Start, g.End, g.Count) }

func (g *Uniform) Generate(rng *rand.Rand) ([]*sim.Task, error) {
	if g.Start < 0 || g.Count < 0 {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "start and count must be >= 0"}
	}
	if g.End <= g.Start {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "end must be greater than start"}
	}
	tasks := make([]*sim.Task, g.Count)
	for i := range tasks {
		tasks[i] = sim.NewTask(rng.Intn(g.End-g.Start) + g.Start)
	}
	return tasks, nil
}

// DefaultMaxRejections bounds the consecutive rejected draws a Gaussian
// generator tolerates before reporting its parameters as degenerate.
const DefaultMaxRejections = 100_000

// Gaussian draws sizes in [StartSize, EndSize) by rejection sampling
// against a normal density over the offset range [0, EndSize-StartSize),
// centred at Mu with spread Sigma and scaled so its peak weight is 1. It
// stops before the accepted task that would bring the total to
// TargetCombinedSize or beyond.
type Gaussian struct {
	StartSize          int
	EndSize            int
	Mu                 float64
	Sigma              float64
	TargetCombinedSize int
	// MaxRejections caps consecutive rejections; zero means DefaultMaxRejections.
	MaxRejections int
}

func (g *Gaussian) Name() string {
	return fmt.Sprintf("gaussian[%d,%d) mu=%g sigma=%g target=%d", g.StartSize, g.EndSize, g.Mu, g.Sigma, g.TargetCombinedSize)
}

// weights returns the normalized acceptance weight of each offset.
func (g *Gaussian) weights() ([]float64, error) {
	if g.StartSize < 1 {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "start size must be >= 1"}
	}
	if g.EndSize <= g.StartSize {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "end size must be greater than start size"}
	}
	if !(g.Sigma > 0) || math.IsInf(g.Sigma, 0) || math.IsNaN(g.Mu) || math.IsInf(g.Mu, 0) {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "mu must be finite and sigma finite and positive"}
	}
	dist := distuv.Normal{Mu: g.Mu, Sigma: g.Sigma}
	w := make([]float64, g.EndSize-g.StartSize)
	peak := 0.0
	for i := range w {
		w[i] = dist.Prob(float64(i))
		peak = max(peak, w[i])
	}
	if peak == 0 || math.IsNaN(peak) {
		return nil, &sim.GeneratorConfigError{Generator: g.Name(), Reason: "density places no weight on the size range"}
	}
	for i := range w {
		w[i] /= peak
	}
	return w, nil
}

func (g *Gaussian) Generate(rng *rand.Rand) ([]*sim.Task, error) {
	w, err := g.weights()
	if err != nil {
		return nil, err
	}
	limit := g.MaxRejections
	if limit <= 0 {
		limit = DefaultMaxRejections
	}

	var tasks []*sim.Task
	total, rejected := 0, 0
	for {
		offset := rng.Intn(len(w))
		if rng.Float64() >= w[offset] {
			rejected++
			if rejected > limit {
				return nil, &sim.GeneratorConfigError{
					Generator: g.Name(),
					Reason:    fmt.Sprintf("%d consecutive rejections; mu/sigma leave too little weight on the size range", rejected),
				}
			}
			continue
		}
		rejected = 0
		size := offset + g.StartSize
		if total+size >= g.TargetCombinedSize {
			return tasks, nil
		}
		total += size
		tasks = append(tasks, sim.NewTask(size))
	}
}
