// Package sim provides the step-synchronous simulation engine for schedule-sim.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - task.go: Task lifecycle (submitted → processing → finished) and its timestamps
//   - architecture.go: the entity tree, its registry, and Attach/Detach
//   - simulator.go: the tick loop, randomized tier traversal, and integrity checks
//
// # Architecture
//
// A run is a tree rooted at a Producer. Interior nodes are Schedulers, each
// running one DispatchPolicy; leaves are Consumers with a fixed capacity in
// units per step. Every tick the Producer fires due waves, then each tier of
// the tree is stepped in shuffled order, so a task can cross every scheduler
// layer and reach a consumer within one tick.
//
// Implementations that depend on the engine live in sub-packages:
//   - sim/workload/: wave generators (flat, linear, uniform, gaussian)
//   - sim/experiment/: YAML experiment files and built-in presets
//   - sim/trace/: dispatch decision recording
//   - sim/sink/: result rows, SQLite results, Prometheus textfiles, JSON snapshots
//
// # Key Interfaces
//
//   - Steppable: anything the driver advances once per tick
//   - TaskSink: accepts tasks from a parent
//   - ConsumingEntity: Scheduler or Consumer
//   - DispatchPolicy: drains a scheduler's queue into its children
//   - WorkloadGenerator: produces the tasks of one wave
//   - AssignmentObserver: hook for renderers, fired on every consumer placement
//
// All randomness comes from the Architecture's PartitionedRNG, so a seed
// fully determines a run.
package sim
