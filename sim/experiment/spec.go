// Package experiment loads experiment files: a scheduling tree, the waves
// its Producer fires and the metrics to report. It also provides the
// built-in benchmark presets.
package experiment

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/workload"
)

// Experiment is the top-level experiment file:
//
//	name: two-tier
//	producer: uniform
//	seed: 42
//	waves:
//	  - step: 1
//	    generator: {type: uniform, params: {start: 20, end: 270, count: 200}}
//	tree:
//	  scheduler: min-min
//	  children:
//	    - {consumer: 20, count: 4}
//	    - {consumer: 16, count: 12}
type Experiment struct {
	Name     string              `yaml:"name"`
	Producer string              `yaml:"producer"`
	Seed     int64               `yaml:"seed"`
	MaxSteps int64               `yaml:"max_steps,omitempty"`
	Waves    []workload.WaveSpec `yaml:"waves"`
	Tree     NodeSpec            `yaml:"tree"`
	// Output defaults to sim.DefaultOutputOptions when omitted.
	Output *sim.OutputOptions `yaml:"output,omitempty"`
}

// NodeSpec is one node of the tree: a scheduler with children, or a
// consumer leaf. Count repeats the node under its parent.
type NodeSpec struct {
	Scheduler       string     `yaml:"scheduler,omitempty"`
	ShoppingOptions int        `yaml:"shopping_options,omitempty"`
	Consumer        int        `yaml:"consumer,omitempty"`
	Count           int        `yaml:"count,omitempty"`
	Children        []NodeSpec `yaml:"children,omitempty"`
}

// Load reads and strictly parses an experiment file. Unknown keys are errors.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment: %w", err)
	}
	return Parse(data)
}

// Parse strictly decodes an experiment from YAML.
func Parse(data []byte) (*Experiment, error) {
	var e Experiment
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&e); err != nil {
		return nil, fmt.Errorf("parsing experiment: %w", err)
	}
	return &e, nil
}

// Validate reports every problem with the experiment at once.
func (e *Experiment) Validate() error {
	var errs *multierror.Error
	if e.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("name is required"))
	}
	if e.MaxSteps < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_steps must be >= 0, got %d", e.MaxSteps))
	}
	for i, w := range e.Waves {
		if err := w.Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("waves[%d]: %w", i, err))
		}
	}
	if e.Tree.Count > 1 {
		errs = multierror.Append(errs, fmt.Errorf("tree: the producer takes a single root, got count %d", e.Tree.Count))
	}
	errs = multierror.Append(errs, e.Tree.validate("tree")...)
	if e.Output != nil {
		if err := e.Output.Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("output: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

func (n NodeSpec) validate(path string) []error {
	var errs []error
	isScheduler, isConsumer := n.Scheduler != "", n.Consumer != 0
	switch {
	case isScheduler && isConsumer:
		return append(errs, fmt.Errorf("%s: set either scheduler or consumer, not both", path))
	case !isScheduler && !isConsumer:
		return append(errs, fmt.Errorf("%s: one of scheduler or consumer is required", path))
	}
	if n.Count < 0 {
		errs = append(errs, fmt.Errorf("%s: count must be >= 0, got %d", path, n.Count))
	}
	if isConsumer {
		if n.Consumer < 1 {
			errs = append(errs, fmt.Errorf("%s: consumer units per step must be >= 1, got %d", path, n.Consumer))
		}
		if len(n.Children) > 0 {
			errs = append(errs, fmt.Errorf("%s: a consumer cannot have children", path))
		}
		if n.ShoppingOptions != 0 {
			errs = append(errs, fmt.Errorf("%s: shopping_options applies only to schedulers", path))
		}
		return errs
	}
	if !sim.ValidPolicies[n.Scheduler] {
		errs = append(errs, fmt.Errorf("%s: unknown scheduler policy %q; valid: %v", path, n.Scheduler, sim.PolicyNames()))
	}
	if n.ShoppingOptions < 0 || (n.ShoppingOptions > 0 && n.Scheduler != sim.PolicyShopping) {
		errs = append(errs, fmt.Errorf("%s: shopping_options must be positive and only set for %s", path, sim.PolicyShopping))
	}
	if len(n.Children) == 0 {
		errs = append(errs, fmt.Errorf("%s: %w", path, sim.ErrEmptyScheduler))
	}
	for i, c := range n.Children {
		errs = append(errs, c.validate(fmt.Sprintf("%s.children[%d]", path, i))...)
	}
	return errs
}

func (n NodeSpec) count() int {
	if n.Count == 0 {
		return 1
	}
	return n.Count
}

// OutputOptions returns the configured options or the defaults.
func (e *Experiment) OutputOptions() sim.OutputOptions {
	if e.Output == nil {
		return sim.DefaultOutputOptions()
	}
	return *e.Output
}
