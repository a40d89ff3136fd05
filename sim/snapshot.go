package sim

// Snapshot is a read-only copy of the tree for renderers. It holds values
// only, so nothing reachable from it can change the simulation.
type Snapshot struct {
	Architecture string         `json:"architecture"`
	Producer     string         `json:"producer"`
	Step         int64          `json:"step"`
	Nodes        []NodeView     `json:"nodes"`
	Edges        []Edge         `json:"edges"`
	Consumers    []ConsumerView `json:"consumers"`
}

// NodeView describes one tree node. Policy is empty for consumers and the producer.
type NodeView struct {
	ID           EntityID   `json:"id"`
	Kind         EntityKind `json:"kind"`
	Policy       string     `json:"policy,omitempty"`
	UnitsPerStep int        `json:"units_per_step"`
}

// Edge is a parent to child link.
type Edge struct {
	Parent EntityID `json:"parent"`
	Child  EntityID `json:"child"`
}

// ConsumerView is a consumer's capacity and task lists at snapshot time.
type ConsumerView struct {
	ID           EntityID   `json:"id"`
	UnitsPerStep int        `json:"units_per_step"`
	Completed    []TaskView `json:"completed"`
	Waiting      []TaskView `json:"waiting"`
}

// TaskView copies the fields of a Task.
type TaskView struct {
	ID                    int64 `json:"id"`
	StartUnits            int   `json:"start_units"`
	RemainingUnits        int   `json:"remaining_units"`
	StepSubmitted         int64 `json:"step_submitted"`
	StepProcessingStarted int64 `json:"step_processing_started"`
	StepFinished          int64 `json:"step_finished"`
}

func viewTasks(tasks []*Task) []TaskView {
	out := make([]TaskView, len(tasks))
	for i, t := range tasks {
		out[i] = TaskView{
			ID:                    t.ID,
			StartUnits:            t.StartUnits,
			RemainingUnits:        t.RemainingUnits,
			StepSubmitted:         t.StepSubmitted,
			StepProcessingStarted: t.StepProcessingStarted,
			StepFinished:          t.StepFinished,
		}
	}
	return out
}

// Snapshot copies the current tree state, labelled with step.
func (a *Architecture) Snapshot(step int64) Snapshot {
	snap := Snapshot{
		Architecture: a.name,
		Producer:     a.producer.name,
		Step:         step,
		Nodes:        []NodeView{{ID: a.producer.ID(), Kind: KindProducer}},
	}
	if root := a.producer.root(); root != nil {
		snap.Edges = append(snap.Edges, Edge{Parent: a.producer.ID(), Child: root.ID()})
	}
	for _, e := range a.Entities() {
		view := NodeView{ID: e.ID(), Kind: e.Kind(), UnitsPerStep: e.UnitsPerStep()}
		switch v := e.(type) {
		case *Scheduler:
			view.Policy = v.PolicyName()
			for _, c := range v.children {
				snap.Edges = append(snap.Edges, Edge{Parent: v.ID(), Child: c.ID()})
			}
		case *Consumer:
			snap.Consumers = append(snap.Consumers, ConsumerView{
				ID:           v.ID(),
				UnitsPerStep: v.unitsPerStep,
				Completed:    viewTasks(v.completed),
				Waiting:      viewTasks(v.waiting.Items()),
			})
		}
		snap.Nodes = append(snap.Nodes, view)
	}
	return snap
}
