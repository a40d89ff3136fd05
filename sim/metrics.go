package sim

import (
	"math"
)

// CompletedTasks returns every task finished by any registered consumer,
// grouped by consumer in attach order.
func (a *Architecture) CompletedTasks() []*Task {
	var out []*Task
	for _, c := range a.Consumers() {
		out = append(out, c.completed...)
	}
	return out
}

// Makespan is the number of steps from the earliest submission to the
// latest completion over all completed tasks. Zero when nothing completed.
func (a *Architecture) Makespan() int64 {
	tasks := a.CompletedTasks()
	if len(tasks) == 0 {
		return 0
	}
	first := tasks[0].StepSubmitted
	last := tasks[0].StepFinished
	for _, t := range tasks[1:] {
		first = min(first, t.StepSubmitted)
		last = max(last, t.StepFinished)
	}
	return max(last-first, 0)
}

// Utilisation is the capacity-weighted mean utilisation of the consumers:
// an idle large consumer costs more than an idle small one.
func (a *Architecture) Utilisation() float64 {
	weighted, capacity := 0.0, 0
	for _, c := range a.Consumers() {
		weighted += c.Utilisation() * float64(c.UnitsPerStep())
		capacity += c.UnitsPerStep()
	}
	if capacity == 0 {
		return 0
	}
	return weighted / float64(capacity)
}

// BinnedMakespans splits completed tasks into k equal-width bins by original
// size and returns the mean turnaround (finish minus submit) per bin. An empty
// bin yields NaN. Returns nil for k <= 0.
func (a *Architecture) BinnedMakespans(k int) []float64 {
	if k <= 0 {
		return nil
	}
	bins := BinTasksBySize(a.CompletedTasks(), k)
	out := make([]float64, k)
	for i, bin := range bins {
		turnarounds := make([]int64, len(bin))
		for j, t := range bin {
			turnarounds[j] = t.Turnaround()
		}
		out[i] = CalculateMean(turnarounds)
	}
	return out
}

// BinTasksBySize partitions tasks into k bins of width (max-min)/k over
// StartUnits. Each task lands in the first bin whose upper edge it does not
// exceed; every task lands in exactly one bin.
func BinTasksBySize(tasks []*Task, k int) [][]*Task {
	if k <= 0 {
		return nil
	}
	bins := make([][]*Task, k)
	if len(tasks) == 0 {
		return bins
	}
	lo, hi := tasks[0].StartUnits, tasks[0].StartUnits
	for _, t := range tasks[1:] {
		lo = min(lo, t.StartUnits)
		hi = max(hi, t.StartUnits)
	}
	width := float64(hi-lo) / float64(k)
	for _, t := range tasks {
		i := 0
		for i < k-1 && float64(i+1)*width+float64(lo) < float64(t.StartUnits) {
			i++
		}
		bins[i] = append(bins[i], t)
	}
	return bins
}

// turnaroundStats returns the mean and 99th percentile turnaround of the
// completed tasks, NaN when there are none.
func (a *Architecture) turnaroundStats() (mean, p99 float64) {
	tasks := a.CompletedTasks()
	if len(tasks) == 0 {
		return math.NaN(), math.NaN()
	}
	turnarounds := make([]int64, len(tasks))
	for i, t := range tasks {
		turnarounds[i] = t.Turnaround()
	}
	return CalculateMean(turnarounds), CalculatePercentile(turnarounds, 99)
}
