package sim

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/schedule-sim/sim/trace"
)

// RunState is the macro-state of a Simulation.
type RunState string

const (
	StateIdle     RunState = "idle"
	StateRunning  RunState = "running"
	StateFinished RunState = "finished"
)

// Assignment describes a task handed from a scheduler to one of its children.
type Assignment struct {
	Step        int64
	SchedulerID EntityID
	TargetID    EntityID
	TaskID      int64
	TaskUnits   int
	Policy      string
	ToConsumer  bool
}

// AssignmentObserver is notified whenever a scheduler places a task on a
// consumer. Hand-offs to nested schedulers are not reported; the nested
// scheduler reports the final placement. Renderers hook in here.
type AssignmentObserver interface {
	ObserveAssignment(a Assignment)
}

// AssignmentObserverFunc adapts a function to AssignmentObserver.
type AssignmentObserverFunc func(a Assignment)

func (f AssignmentObserverFunc) ObserveAssignment(a Assignment) { f(a) }

// RunConfig configures one Simulation.
type RunConfig struct {
	// MaxSteps aborts the run with ErrHorizonReached once the global step
	// reaches it. Zero means no limit.
	MaxSteps  int64
	Output    OutputOptions
	Trace     trace.TraceConfig
	Observers []AssignmentObserver
}

// Simulation drives one run over an Architecture. It owns the global step
// counter; nothing about the run lives in package-level state, so separate
// Simulations over separate Architectures can run side by side.
type Simulation struct {
	arch  *Architecture
	cfg   RunConfig
	step  int64
	state RunState
	trace *trace.SimulationTrace
}

// NewSimulation prepares a run over arch. The tree must not be edited
// while the run is in progress.
func NewSimulation(arch *Architecture, cfg RunConfig) *Simulation {
	s := &Simulation{arch: arch, cfg: cfg, state: StateIdle}
	if cfg.Trace.Enabled() {
		s.trace = trace.NewSimulationTrace(cfg.Trace)
	}
	return s
}

// Step returns the current global step.
func (s *Simulation) Step() int64 { return s.step }

// State returns the run's macro-state.
func (s *Simulation) State() RunState { return s.state }

// Trace returns the dispatch trace, or nil when tracing is disabled.
func (s *Simulation) Trace() *trace.SimulationTrace { return s.trace }

// Architecture returns the tree this simulation runs over.
func (s *Simulation) Architecture() *Architecture { return s.arch }

// Run ticks until the Producer has fired every wave and every entity has
// drained, then verifies step consistency and task conservation.
// ctx is checked between ticks.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if s.state != StateIdle {
		return nil, ErrAlreadyRan
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid architecture %s: %w", s.arch.name, err)
	}

	s.state = StateRunning
	logrus.Infof("running %s with producer %s (seed %d, %d entities)",
		s.arch.name, s.arch.producer.name, s.arch.Seed(), s.arch.registry.Size())

	for !s.finished() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s stopped at step %d: %w", s.arch.name, s.step, err)
		}
		if s.cfg.MaxSteps > 0 && s.step >= s.cfg.MaxSteps {
			return nil, fmt.Errorf("run %s: %w (%d steps)", s.arch.name, ErrHorizonReached, s.step)
		}
		s.tick()
		if err := s.arch.producer.err; err != nil {
			return nil, fmt.Errorf("run %s: %w", s.arch.name, err)
		}
	}
	s.state = StateFinished

	if err := s.checkIntegrity(); err != nil {
		return nil, fmt.Errorf("run %s failed integrity checks: %w", s.arch.name, err)
	}
	res := s.result()
	logrus.Infof("finished %s at step %d: makespan=%d utilisation=%.4f tasks=%d",
		s.arch.name, s.step, res.Makespan, res.Utilisation, res.TasksCompleted)
	return res, nil
}

// validate rejects trees that could never drain.
func (s *Simulation) validate() error {
	var errs *multierror.Error
	p := s.arch.producer
	if len(p.waves) > 0 && p.root() == nil {
		errs = multierror.Append(errs, ErrNoRoot)
	}
	for _, sch := range s.arch.Schedulers() {
		if len(sch.children) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("scheduler %d: %w", sch.ID(), ErrEmptyScheduler))
		}
	}
	if err := s.cfg.Output.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// finished is the termination predicate: every wave fired and every
// registered entity has nothing queued.
func (s *Simulation) finished() bool {
	if !s.arch.producer.IsFinished() {
		return false
	}
	for _, e := range s.arch.Entities() {
		if !e.IsFinished() {
			return false
		}
	}
	return true
}

// tick advances the global step, fires due waves and steps the tree one
// tier at a time. Each tier is shuffled so no sibling is always stepped first.
func (s *Simulation) tick() {
	s.step++
	t := &Tick{Step: s.step, arch: s.arch, sim: s}
	s.arch.producer.Step(t)

	rng := t.Rand(SubsystemTraversal)
	tier := s.arch.producer.Children()
	for len(tier) > 0 {
		rng.Shuffle(len(tier), func(i, j int) { tier[i], tier[j] = tier[j], tier[i] })
		var next []ConsumingEntity
		for _, e := range tier {
			next = append(next, e.node().children...)
			e.Step(t)
		}
		tier = next
	}
	logrus.Debugf("[step %07d] tick complete", s.step)
}

// checkIntegrity verifies that every entity was stepped once per tick and
// that every submitted task was completed. Failures are engine defects.
func (s *Simulation) checkIntegrity() error {
	var errs *multierror.Error
	check := func(e Steppable) {
		if e.LocalStep() != s.step {
			errs = multierror.Append(errs, &StepDesyncError{EntityID: e.ID(), LocalStep: e.LocalStep(), GlobalStep: s.step})
		}
	}
	check(s.arch.producer)
	for _, e := range s.arch.Entities() {
		check(e)
	}
	submitted := s.arch.producer.TasksSubmitted()
	if completed := len(s.arch.CompletedTasks()); completed != submitted {
		errs = multierror.Append(errs, &TaskCountError{Submitted: submitted, Completed: completed})
	}
	return errs.ErrorOrNil()
}

func (s *Simulation) recordDispatch(a Assignment) {
	if s.trace != nil {
		s.trace.RecordDispatch(trace.DispatchRecord{
			Step:        a.Step,
			TaskID:      a.TaskID,
			TaskUnits:   a.TaskUnits,
			SchedulerID: int(a.SchedulerID),
			TargetID:    int(a.TargetID),
			Policy:      a.Policy,
			ToConsumer:  a.ToConsumer,
		})
	}
	if !a.ToConsumer {
		return
	}
	for _, o := range s.cfg.Observers {
		o.ObserveAssignment(a)
	}
}

func (s *Simulation) result() *Result {
	mean, p99 := s.arch.turnaroundStats()
	return &Result{
		RunID:           uuid.New(),
		Architecture:    s.arch.name,
		Producer:        s.arch.producer.name,
		Seed:            s.arch.Seed(),
		Steps:           s.step,
		TasksSubmitted:  s.arch.producer.TasksSubmitted(),
		TasksCompleted:  len(s.arch.CompletedTasks()),
		Makespan:        s.arch.Makespan(),
		Utilisation:     s.arch.Utilisation(),
		BinnedMakespans: s.arch.BinnedMakespans(s.cfg.Output.BinCount),
		MeanTurnaround:  mean,
		P99Turnaround:   p99,
	}
}
